package storage

import "time"

// Demo nutritionist created on first start so rule authoring is usable
// out of the box.
const (
	SeedNutritionistEmail    = "pro@nutri.com"
	SeedNutritionistName     = "Nutricionista Pro"
	SeedNutritionistPassword = "nutri123"
)

// BaseRules returns the starter rule set loaded when the rules table is
// empty. Payloads are the full rule JSON the engine consumes.
func BaseRules() []StoredRule {
	now := time.Now()
	rules := []struct {
		id, name string
		priority int
		payload  string
	}{
		{
			id: "R1", name: "Bajo peso", priority: 20,
			payload: `{
				"id": "R1",
				"name": "Bajo peso",
				"priority": 20,
				"when": [{"fact": "bmi", "op": "<", "value": 18.5}],
				"then": {
					"diagnosis": ["Bajo peso"],
					"diet": {
						"kcal_target": {"method": "mifflin_st_jeor", "surplus_pct": 0.15},
						"macro_split": {"carb_pct": 0.50, "prot_pct": 0.20, "fat_pct": 0.30},
						"advice": ["Aumentar densidad calórica"],
						"restrictions": []
					},
					"explain": "IMC < 18.5"
				}
			}`,
		},
		{
			id: "R2", name: "Sobrepeso", priority: 10,
			payload: `{
				"id": "R2",
				"name": "Sobrepeso",
				"priority": 10,
				"when": [
					{"fact": "bmi", "op": ">=", "value": 25},
					{"fact": "bmi", "op": "<", "value": 30}
				],
				"then": {
					"diagnosis": ["Sobrepeso"],
					"diet": {
						"kcal_target": {"method": "mifflin_st_jeor", "deficit_pct": 0.15},
						"macro_split": {"carb_pct": 0.45, "prot_pct": 0.25, "fat_pct": 0.30},
						"advice": ["Déficit moderado"],
						"restrictions": ["bebidas_azucaradas"]
					},
					"explain": "IMC 25–29.9"
				}
			}`,
		},
		{
			id: "R3", name: "Obesidad", priority: 11,
			payload: `{
				"id": "R3",
				"name": "Obesidad",
				"priority": 11,
				"when": [{"fact": "bmi", "op": ">=", "value": 30}],
				"then": {
					"diagnosis": ["Obesidad"],
					"diet": {
						"kcal_target": {"method": "mifflin_st_jeor", "deficit_pct": 0.20},
						"macro_split": {"carb_pct": 0.40, "prot_pct": 0.30, "fat_pct": 0.30},
						"advice": ["Más proteína y fibra"],
						"restrictions": ["ultraprocesados"]
					},
					"explain": "IMC ≥ 30"
				}
			}`,
		},
	}

	out := make([]StoredRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, StoredRule{
			ID:        r.id,
			Name:      r.name,
			Priority:  r.priority,
			Payload:   []byte(r.payload),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}
