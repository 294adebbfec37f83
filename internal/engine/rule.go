package engine

import (
	"encoding/json"
	"fmt"
)

// Fields a condition may test. The evaluator is exhaustive over this set.
const (
	FactBMI        = "bmi"
	FactActivity   = "activity"
	FactConditions = "conditions"
)

// Operators. Numeric operators apply to bmi only; the membership operators
// apply to activity and conditions.
const (
	OpGTE      = ">="
	OpGT       = ">"
	OpLTE      = "<="
	OpLT       = "<"
	OpEq       = "=="
	OpNeq      = "!="
	OpContains = "contains"
	OpIn       = "in"
	OpNotIn    = "not_in"
)

// Value is the operand of a condition. Exactly one slot is set; which one is
// legal depends on the operator (numeric comparison → Number, contains/== on
// an enum → Str, in/not_in → List). The shape contract is enforced by
// Condition.Validate and re-checked by the evaluator.
type Value struct {
	Number *float64
	Str    *string
	List   []string
}

// UnmarshalJSON accepts a JSON number, string, or array of strings. A JSON
// null leaves every slot nil, so the condition fails Validate as absent
// rather than decoding to the number 0.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = Value{}

	if string(data) == "null" {
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		v.Number = &num
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		v.Str = &str
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		v.List = list
		return nil
	}

	return fmt.Errorf("condition value must be a number, string, or list of strings")
}

// MarshalJSON writes back whichever slot is populated.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.Number != nil:
		return json.Marshal(*v.Number)
	case v.Str != nil:
		return json.Marshal(*v.Str)
	case v.List != nil:
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

// IsZero reports whether no slot is populated (an absent value).
func (v Value) IsZero() bool {
	return v.Number == nil && v.Str == nil && v.List == nil
}

// Condition is one atomic test (fact, op, value). A rule matches only if every
// condition in its When list holds.
type Condition struct {
	Fact  string `json:"fact"`
	Op    string `json:"op"`
	Value Value  `json:"value"`
}

// Validate rejects structurally malformed conditions at authoring time:
// missing fact/op/value, an unknown fact or operator, or a value whose shape
// does not fit the operator.
func (c Condition) Validate() error {
	if c.Fact == "" {
		return fmt.Errorf("%w: missing fact", ErrInvalidCondition)
	}
	if c.Op == "" {
		return fmt.Errorf("%w: missing op", ErrInvalidCondition)
	}
	if c.Value.IsZero() {
		return fmt.Errorf("%w: missing value", ErrInvalidCondition)
	}

	switch c.Fact {
	case FactBMI:
		switch c.Op {
		case OpGTE, OpGT, OpLTE, OpLT, OpEq, OpNeq:
			if c.Value.Number == nil {
				return fmt.Errorf("%w: %s on bmi requires a numeric value", ErrInvalidCondition, c.Op)
			}
			return nil
		default:
			return fmt.Errorf("%w: operator %q not valid for bmi", ErrInvalidCondition, c.Op)
		}
	case FactActivity:
		switch c.Op {
		case OpEq, OpNeq:
			if c.Value.Str == nil {
				return fmt.Errorf("%w: %s on activity requires a string value", ErrInvalidCondition, c.Op)
			}
			return nil
		case OpIn, OpNotIn:
			if c.Value.List == nil {
				return fmt.Errorf("%w: %s requires a list value", ErrInvalidCondition, c.Op)
			}
			return nil
		default:
			return fmt.Errorf("%w: operator %q not valid for activity", ErrInvalidCondition, c.Op)
		}
	case FactConditions:
		switch c.Op {
		case OpContains:
			if c.Value.Str == nil {
				return fmt.Errorf("%w: contains requires a single member value", ErrInvalidCondition)
			}
			return nil
		case OpIn, OpNotIn:
			if c.Value.List == nil {
				return fmt.Errorf("%w: %s requires a list value", ErrInvalidCondition, c.Op)
			}
			return nil
		case OpEq, OpNeq:
			if c.Value.Str == nil && c.Value.List == nil {
				return fmt.Errorf("%w: %s on conditions requires a member or list value", ErrInvalidCondition, c.Op)
			}
			return nil
		default:
			return fmt.Errorf("%w: operator %q not valid for conditions", ErrInvalidCondition, c.Op)
		}
	default:
		return fmt.Errorf("%w: unknown fact %q", ErrInvalidCondition, c.Fact)
	}
}

// MethodMifflinStJeor marks a computed calorie target.
const MethodMifflinStJeor = "mifflin_st_jeor"

// KcalTarget is a tagged variant: either a plain calorie number, or a request
// to compute one from the patient's energy expenditure with a deficit or
// surplus applied. On the wire it is a bare number or a
// {"method":"mifflin_st_jeor", ...} object.
type KcalTarget struct {
	Plain      *float64
	Method     string
	DeficitPct float64
	SurplusPct float64
}

type kcalTargetJSON struct {
	Method     string  `json:"method"`
	DeficitPct float64 `json:"deficit_pct,omitempty"`
	SurplusPct float64 `json:"surplus_pct,omitempty"`
}

func (k *KcalTarget) UnmarshalJSON(data []byte) error {
	*k = KcalTarget{}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		k.Plain = &num
		return nil
	}

	var obj kcalTargetJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("kcal_target must be a number or a method object")
	}
	if obj.Method != MethodMifflinStJeor {
		return fmt.Errorf("unknown kcal_target method %q", obj.Method)
	}
	k.Method = obj.Method
	k.DeficitPct = obj.DeficitPct
	k.SurplusPct = obj.SurplusPct
	return nil
}

func (k KcalTarget) MarshalJSON() ([]byte, error) {
	if k.Plain != nil {
		return json.Marshal(*k.Plain)
	}
	return json.Marshal(kcalTargetJSON{
		Method:     k.Method,
		DeficitPct: k.DeficitPct,
		SurplusPct: k.SurplusPct,
	})
}

// Validate checks percentage bounds for computed targets.
func (k KcalTarget) Validate() error {
	if k.Plain != nil {
		if *k.Plain < 0 {
			return fmt.Errorf("kcal_target must not be negative")
		}
		return nil
	}
	if k.Method != MethodMifflinStJeor {
		return fmt.Errorf("unknown kcal_target method %q", k.Method)
	}
	if k.DeficitPct < 0 || k.DeficitPct > 1 {
		return fmt.Errorf("deficit_pct must be a fraction in [0,1]")
	}
	if k.SurplusPct < 0 || k.SurplusPct > 1 {
		return fmt.Errorf("surplus_pct must be a fraction in [0,1]")
	}
	return nil
}

// MacroSplit is a carb/protein/fat split as fractions. The three should sum
// to 1; authoring surfaces a warning when they do not, but resolution uses
// whatever was stored.
type MacroSplit struct {
	CarbPct float64 `json:"carb_pct"`
	ProtPct float64 `json:"prot_pct"`
	FatPct  float64 `json:"fat_pct"`
}

// Sum returns carb+prot+fat, used for the authoring warning.
func (m MacroSplit) Sum() float64 {
	return m.CarbPct + m.ProtPct + m.FatPct
}

// Diet is the diet-plan fragment of a consequence. Nil KcalTarget/MacroSplit
// mean the rule contributes nothing for that field.
type Diet struct {
	KcalTarget   *KcalTarget `json:"kcal_target,omitempty"`
	MacroSplit   *MacroSplit `json:"macro_split,omitempty"`
	Restrictions []string    `json:"restrictions,omitempty"`
	Advice       []string    `json:"advice,omitempty"`
}

// Consequence is what a matched rule asserts: diagnosis labels, a diet
// fragment, and a human-readable justification shown verbatim in the audit
// trail.
type Consequence struct {
	Diagnosis []string `json:"diagnosis,omitempty"`
	Diet      Diet     `json:"diet,omitempty"`
	Explain   string   `json:"explain,omitempty"`
}

// Rule is a named, prioritized bundle of AND-ed conditions and one
// consequence. Identity is the ID; higher priority is more authoritative.
// An empty When list matches unconditionally (a catch-all rule).
type Rule struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Priority int         `json:"priority"`
	When     []Condition `json:"when"`
	Then     Consequence `json:"then"`
}
