package engine

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCondition marks a structurally malformed condition: unknown
// fact/op, or a value whose shape does not fit the operator. At match time it
// excludes the owning rule, never the whole request.
var ErrInvalidCondition = errors.New("invalid condition")

// Evaluate tests one atomic condition against the fact set. It never fails
// for a condition that passes Validate; for malformed input it returns
// ErrInvalidCondition (wrapped with detail).
func Evaluate(cond Condition, facts FactSet) (bool, error) {
	if err := cond.Validate(); err != nil {
		return false, err
	}

	switch cond.Fact {
	case FactBMI:
		return evaluateNumeric(cond.Op, facts.BMI, *cond.Value.Number), nil
	case FactActivity:
		return evaluateScalar(cond, facts.Activity)
	case FactConditions:
		return evaluateSet(cond, facts)
	default:
		return false, fmt.Errorf("%w: unknown fact %q", ErrInvalidCondition, cond.Fact)
	}
}

// evaluateNumeric compares the fact against the operand. NaN on either side
// always evaluates false, for every operator including !=.
func evaluateNumeric(op string, fact, value float64) bool {
	if math.IsNaN(fact) || math.IsNaN(value) {
		return false
	}
	switch op {
	case OpGTE:
		return fact >= value
	case OpGT:
		return fact > value
	case OpLTE:
		return fact <= value
	case OpLT:
		return fact < value
	case OpEq:
		return fact == value
	case OpNeq:
		return fact != value
	}
	return false
}

// evaluateScalar handles the enum fact (activity): exact-string equality, or
// direct membership for in/not_in.
func evaluateScalar(cond Condition, fact string) (bool, error) {
	switch cond.Op {
	case OpEq:
		return fact == *cond.Value.Str, nil
	case OpNeq:
		return fact != *cond.Value.Str, nil
	case OpIn:
		return stringInList(fact, cond.Value.List), nil
	case OpNotIn:
		return !stringInList(fact, cond.Value.List), nil
	}
	return false, fmt.Errorf("%w: operator %q not valid for activity", ErrInvalidCondition, cond.Op)
}

// evaluateSet handles the set fact (conditions).
//   - contains: the single member is an element of the set.
//   - in: any element of the fact set appears in the list.
//   - not_in: no element of the fact set appears in the list.
//   - ==/!=: set equality in both orientations; a scalar value is treated as
//     a singleton set.
func evaluateSet(cond Condition, facts FactSet) (bool, error) {
	switch cond.Op {
	case OpContains:
		return facts.hasCondition(*cond.Value.Str), nil
	case OpIn:
		for _, member := range facts.Conditions {
			if stringInList(member, cond.Value.List) {
				return true, nil
			}
		}
		return false, nil
	case OpNotIn:
		for _, member := range facts.Conditions {
			if stringInList(member, cond.Value.List) {
				return false, nil
			}
		}
		return true, nil
	case OpEq:
		return setEquals(facts.Conditions, asList(cond.Value)), nil
	case OpNeq:
		return !setEquals(facts.Conditions, asList(cond.Value)), nil
	}
	return false, fmt.Errorf("%w: operator %q not valid for conditions", ErrInvalidCondition, cond.Op)
}

// asList widens a scalar value into a singleton list.
func asList(v Value) []string {
	if v.Str != nil {
		return []string{*v.Str}
	}
	return v.List
}

func stringInList(s string, list []string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// setEquals checks equality ignoring order and duplicates: every element of a
// is in b and every element of b is in a.
func setEquals(a, b []string) bool {
	for _, item := range a {
		if !stringInList(item, b) {
			return false
		}
	}
	for _, item := range b {
		if !stringInList(item, a) {
			return false
		}
	}
	return true
}
