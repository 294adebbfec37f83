package engine

// ActivityFactors maps activity levels to their TDEE multiplier.
var ActivityFactors = map[string]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// BMR estimates basal metabolic rate with the Mifflin-St Jeor equation:
// 10*weight + 6.25*height − 5*age, +5 for males and −161 for females.
func BMR(facts FactSet) float64 {
	bmr := 10*facts.WeightKG + 6.25*facts.HeightCM - 5*float64(facts.Age)
	if facts.Sex == SexMale {
		return bmr + 5
	}
	return bmr - 161
}

// TDEE is BMR scaled by the patient's activity factor. An unknown activity
// level falls back to sedentary; NewFactSet rejects those upstream, so the
// fallback only matters for hand-built fact sets.
func TDEE(facts FactSet) float64 {
	factor, ok := ActivityFactors[facts.Activity]
	if !ok {
		factor = ActivityFactors[ActivitySedentary]
	}
	return BMR(facts) * factor
}
