package engine

import (
	"fmt"
	"math"
	"strings"
)

// Sex as stored in patient facts.
const (
	SexFemale = "F"
	SexMale   = "M"
)

// Activity levels accepted by the engine. The keys of ActivityFactors are the
// single source of truth; the inference API validates input against them too.
const (
	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"
)

// Preexisting conditions the rule vocabulary knows about.
var knownConditions = map[string]bool{
	"diabetes":     true,
	"hypertension": true,
	"anemia":       true,
}

// FactSet is the working memory for one inference call: the patient's
// normalized inputs plus the derived BMI. Immutable for the duration of the
// call: matching never writes back into it (single-pass, no chaining).
type FactSet struct {
	Age        int
	Sex        string
	HeightCM   float64
	WeightKG   float64
	Activity   string
	Conditions []string
	BMI        float64
}

// NewFactSet normalizes raw patient inputs into a FactSet. BMI is always
// recomputed here (a caller-supplied value is never trusted) and rounded to
// one decimal before any condition sees it.
func NewFactSet(age int, sex string, heightCM, weightKG float64, activity string, conditions []string) (FactSet, error) {
	if age <= 0 || age >= 120 {
		return FactSet{}, fmt.Errorf("age must be between 1 and 119, got %d", age)
	}

	sex = strings.ToUpper(strings.TrimSpace(sex))
	if sex != SexFemale && sex != SexMale {
		return FactSet{}, fmt.Errorf("sex must be F or M, got %q", sex)
	}

	if heightCM <= 50 || heightCM >= 250 {
		return FactSet{}, fmt.Errorf("height_cm must be between 50 and 250, got %v", heightCM)
	}
	if weightKG <= 20 || weightKG >= 300 {
		return FactSet{}, fmt.Errorf("weight_kg must be between 20 and 300, got %v", weightKG)
	}

	activity = strings.ToLower(strings.TrimSpace(activity))
	if _, ok := ActivityFactors[activity]; !ok {
		return FactSet{}, fmt.Errorf("unknown activity level %q", activity)
	}

	normalized := make([]string, 0, len(conditions))
	for _, c := range conditions {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !knownConditions[c] {
			return FactSet{}, fmt.Errorf("unknown condition %q", c)
		}
		normalized = append(normalized, c)
	}

	heightM := heightCM / 100
	bmi := weightKG / (heightM * heightM)

	return FactSet{
		Age:        age,
		Sex:        sex,
		HeightCM:   heightCM,
		WeightKG:   weightKG,
		Activity:   activity,
		Conditions: normalized,
		BMI:        math.Round(bmi*10) / 10,
	}, nil
}

// hasCondition reports whether the fact set contains the given condition tag.
func (f FactSet) hasCondition(name string) bool {
	for _, c := range f.Conditions {
		if c == name {
			return true
		}
	}
	return false
}
