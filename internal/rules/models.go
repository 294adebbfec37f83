package rules

import (
	"fmt"
	"math"
	"time"

	"github.com/nutriexpert/api/internal/engine"
)

// RuleDTO is the wire shape of one advisory rule, plus storage timestamps.
type RuleDTO struct {
	engine.Rule
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ListRulesResponse is the response for GET /v1/rules.
type ListRulesResponse struct {
	Items []RuleDTO `json:"items"`
	Total int       `json:"total"`
}

// SaveRuleResponse is the response for POST and PUT. Warnings carry
// non-blocking authoring diagnostics (macro split sums, condition shape
// problems); the rule is stored either way.
type SaveRuleResponse struct {
	Rule     RuleDTO  `json:"rule"`
	Warnings []string `json:"warnings"`
}

// validateRule checks the structural minimum a rule needs to be stored:
// identity fields, and that every condition carries a fact, op, and value.
// Shape problems beyond absence (operator/value mismatches, macro sums)
// are reported as warnings so authored rules behave like the engine will
// treat them.
func validateRule(r engine.Rule) error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(r.ID) > 64 {
		return fmt.Errorf("id must be at most 64 characters")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	for i, cond := range r.When {
		if cond.Fact == "" {
			return fmt.Errorf("condition %d: fact is required", i)
		}
		if cond.Op == "" {
			return fmt.Errorf("condition %d: op is required", i)
		}
		if cond.Value.IsZero() {
			return fmt.Errorf("condition %d: value is required", i)
		}
	}
	return nil
}

// ruleWarnings collects authoring-time diagnostics. Shape mismatches
// (wrong operator or value type for a fact) do not block saving: the
// matcher excludes them per request, and the author sees here which
// ones will be. Absent fields are rejected earlier by validateRule.
func ruleWarnings(r engine.Rule) []string {
	warnings := []string{}

	for i, cond := range r.When {
		if err := cond.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("condition %d will exclude this rule from matching: %v", i, err))
		}
	}

	if kt := r.Then.Diet.KcalTarget; kt != nil {
		if err := kt.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("kcal_target: %v", err))
		}
	}

	if ms := r.Then.Diet.MacroSplit; ms != nil {
		if sum := ms.Sum(); math.Abs(sum-1) > 0.01 {
			warnings = append(warnings, fmt.Sprintf("macro_split percentages sum to %.2f, expected 1", sum))
		}
	}

	return warnings
}
