package engine

import (
	"math"
	"sort"
)

// FiredRule is one audit-trail entry: a rule whose conditions all held,
// recorded whether or not it influenced the final plan.
type FiredRule struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Explain string `json:"explain,omitempty"`
}

// Plan is the resolved diet plan. Nil KcalTarget/MacroSplit mean no matched
// rule contributed that field.
type Plan struct {
	KcalTarget   *int        `json:"kcal_target"`
	MacroSplit   *MacroSplit `json:"macro_split"`
	Restrictions []string    `json:"restrictions"`
	Advice       []string    `json:"advice"`
}

// InferenceResult is the full outcome of one inference call.
type InferenceResult struct {
	Diagnosis  []string    `json:"diagnosis"`
	Plan       Plan        `json:"plan"`
	FiredRules []FiredRule `json:"fired_rules"`
}

// Resolve merges the consequences of all matched rules into one result.
//
// Rules are sorted once by priority descending (ID ascending as the
// deterministic tie-break) and then traversed linearly:
//   - diagnosis, restrictions: order-preserving union, de-duplicated
//   - kcal_target, macro_split: winner-take-all; the first non-nil field in
//     priority order wins, never blended across rules
//   - advice: concatenation in priority order, de-duplicated by exact string
//   - fired_rules: every matched rule, in priority order
//
// Resolution never fails for a well-formed fact set; zero matches degrade to
// an empty diagnosis and a null plan.
func Resolve(matched []Rule, facts FactSet) InferenceResult {
	agenda := make([]Rule, len(matched))
	copy(agenda, matched)
	sort.SliceStable(agenda, func(i, j int) bool {
		if agenda[i].Priority != agenda[j].Priority {
			return agenda[i].Priority > agenda[j].Priority
		}
		return agenda[i].ID < agenda[j].ID
	})

	result := InferenceResult{
		Diagnosis:  []string{},
		FiredRules: []FiredRule{},
		Plan: Plan{
			Restrictions: []string{},
			Advice:       []string{},
		},
	}

	seenDiagnosis := map[string]bool{}
	seenRestriction := map[string]bool{}
	seenAdvice := map[string]bool{}

	for _, rule := range agenda {
		result.FiredRules = append(result.FiredRules, FiredRule{
			ID:      rule.ID,
			Name:    rule.Name,
			Explain: rule.Then.Explain,
		})

		for _, d := range rule.Then.Diagnosis {
			if !seenDiagnosis[d] {
				seenDiagnosis[d] = true
				result.Diagnosis = append(result.Diagnosis, d)
			}
		}

		diet := rule.Then.Diet

		if result.Plan.KcalTarget == nil && diet.KcalTarget != nil {
			target := resolveKcalTarget(*diet.KcalTarget, facts)
			result.Plan.KcalTarget = &target
		}

		if result.Plan.MacroSplit == nil && diet.MacroSplit != nil {
			split := *diet.MacroSplit
			result.Plan.MacroSplit = &split
		}

		for _, r := range diet.Restrictions {
			if !seenRestriction[r] {
				seenRestriction[r] = true
				result.Plan.Restrictions = append(result.Plan.Restrictions, r)
			}
		}

		for _, a := range diet.Advice {
			if !seenAdvice[a] {
				seenAdvice[a] = true
				result.Plan.Advice = append(result.Plan.Advice, a)
			}
		}
	}

	return result
}

// resolveKcalTarget turns a consequence's target into a concrete calorie
// number. The plan reports whole calories, so a plain fractional target is
// rounded to the nearest one; computed values go through Mifflin-St Jeor
// with the deficit/surplus applied and are rounded the same way.
func resolveKcalTarget(target KcalTarget, facts FactSet) int {
	if target.Plain != nil {
		return int(math.Round(*target.Plain))
	}
	tdee := TDEE(facts)
	return int(math.Round(tdee * (1 - target.DeficitPct + target.SurplusPct)))
}
