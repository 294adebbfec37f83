package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func num(v float64) Value    { return Value{Number: &v} }
func str(s string) Value     { return Value{Str: &s} }
func list(s ...string) Value { return Value{List: s} }

func testFacts(t *testing.T) FactSet {
	t.Helper()
	facts, err := NewFactSet(28, "F", 160, 60, "moderate", []string{"diabetes"})
	if err != nil {
		t.Fatalf("NewFactSet failed: %v", err)
	}
	return facts
}

func TestNewFactSetComputesBMI(t *testing.T) {
	facts := testFacts(t)

	// 60 / 1.6^2 = 23.4375 → rounded to one decimal before evaluation
	if facts.BMI != 23.4 {
		t.Errorf("expected bmi 23.4, got %v", facts.BMI)
	}
}

func TestNewFactSetRejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		age      int
		sex      string
		height   float64
		weight   float64
		activity string
	}{
		{"zero age", 0, "F", 160, 60, "moderate"},
		{"bad sex", 30, "X", 160, 60, "moderate"},
		{"zero height", 30, "M", 0, 60, "moderate"},
		{"zero weight", 30, "M", 160, 0, "moderate"},
		{"bad activity", 30, "M", 160, 60, "couch"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFactSet(tc.age, tc.sex, tc.height, tc.weight, tc.activity, nil); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestEvaluateNumericOperators(t *testing.T) {
	facts := testFacts(t) // bmi = 23.4

	cases := []struct {
		op    string
		value float64
		want  bool
	}{
		{OpGTE, 23.4, true},
		{OpGTE, 25, false},
		{OpGT, 18.5, true},
		{OpGT, 23.4, false},
		{OpLTE, 23.4, true},
		{OpLT, 25, true},
		{OpLT, 18.5, false},
		{OpEq, 23.4, true},
		{OpEq, 24, false},
		{OpNeq, 24, true},
		{OpNeq, 23.4, false},
	}

	for _, tc := range cases {
		got, err := Evaluate(Condition{Fact: FactBMI, Op: tc.op, Value: num(tc.value)}, facts)
		if err != nil {
			t.Fatalf("bmi %s %v: unexpected error %v", tc.op, tc.value, err)
		}
		if got != tc.want {
			t.Errorf("bmi %s %v: expected %v, got %v", tc.op, tc.value, tc.want, got)
		}
	}
}

func TestEvaluateActivityEquality(t *testing.T) {
	facts := testFacts(t)

	got, err := Evaluate(Condition{Fact: FactActivity, Op: OpEq, Value: str("moderate")}, facts)
	if err != nil || !got {
		t.Errorf("expected activity == moderate to hold, got %v err=%v", got, err)
	}

	got, err = Evaluate(Condition{Fact: FactActivity, Op: OpIn, Value: list("light", "moderate")}, facts)
	if err != nil || !got {
		t.Errorf("expected activity in [light moderate] to hold, got %v err=%v", got, err)
	}

	got, err = Evaluate(Condition{Fact: FactActivity, Op: OpNotIn, Value: list("sedentary")}, facts)
	if err != nil || !got {
		t.Errorf("expected activity not_in [sedentary] to hold, got %v err=%v", got, err)
	}
}

func TestEvaluateSetMembership(t *testing.T) {
	facts := testFacts(t) // conditions = {diabetes}

	// contains: value is a single member of the set
	got, err := Evaluate(Condition{Fact: FactConditions, Op: OpContains, Value: str("diabetes")}, facts)
	if err != nil || !got {
		t.Errorf("expected contains diabetes to hold, got %v err=%v", got, err)
	}

	// in: any element of the fact set is in the list
	got, err = Evaluate(Condition{Fact: FactConditions, Op: OpIn, Value: list("diabetes", "anemia")}, facts)
	if err != nil || !got {
		t.Errorf("expected conditions in [diabetes anemia] to hold, got %v err=%v", got, err)
	}

	// not_in with the same list must be the exact complement
	got, err = Evaluate(Condition{Fact: FactConditions, Op: OpNotIn, Value: list("diabetes", "anemia")}, facts)
	if err != nil || got {
		t.Errorf("expected conditions not_in [diabetes anemia] to fail, got %v err=%v", got, err)
	}

	got, err = Evaluate(Condition{Fact: FactConditions, Op: OpNotIn, Value: list("hypertension")}, facts)
	if err != nil || !got {
		t.Errorf("expected conditions not_in [hypertension] to hold, got %v err=%v", got, err)
	}
}

func TestEvaluateSetEquality(t *testing.T) {
	facts, err := NewFactSet(40, "M", 175, 80, "light", []string{"diabetes", "hypertension"})
	if err != nil {
		t.Fatalf("NewFactSet failed: %v", err)
	}

	// == compares as set equality, order-insensitive
	got, err := Evaluate(Condition{Fact: FactConditions, Op: OpEq, Value: list("hypertension", "diabetes")}, facts)
	if err != nil || !got {
		t.Errorf("expected set equality to hold, got %v err=%v", got, err)
	}

	// extras on either side break equality
	got, err = Evaluate(Condition{Fact: FactConditions, Op: OpEq, Value: list("diabetes")}, facts)
	if err != nil || got {
		t.Errorf("expected subset to not equal, got %v err=%v", got, err)
	}

	// scalar value is treated as a singleton set
	single, err := NewFactSet(40, "M", 175, 80, "light", []string{"anemia"})
	if err != nil {
		t.Fatalf("NewFactSet failed: %v", err)
	}
	got, err = Evaluate(Condition{Fact: FactConditions, Op: OpEq, Value: str("anemia")}, single)
	if err != nil || !got {
		t.Errorf("expected singleton equality to hold, got %v err=%v", got, err)
	}

	got, err = Evaluate(Condition{Fact: FactConditions, Op: OpNeq, Value: str("anemia")}, facts)
	if err != nil || !got {
		t.Errorf("expected != anemia to hold for {diabetes hypertension}, got %v err=%v", got, err)
	}
}

func TestEvaluateMalformedConditions(t *testing.T) {
	facts := testFacts(t)

	cases := []struct {
		name string
		cond Condition
	}{
		{"missing fact", Condition{Op: OpGTE, Value: num(25)}},
		{"missing op", Condition{Fact: FactBMI, Value: num(25)}},
		{"missing value", Condition{Fact: FactBMI, Op: OpGTE}},
		{"unknown fact", Condition{Fact: "weight", Op: OpGTE, Value: num(80)}},
		{"contains on bmi", Condition{Fact: FactBMI, Op: OpContains, Value: str("25")}},
		{"string value for numeric op", Condition{Fact: FactBMI, Op: OpGTE, Value: str("25")}},
		{"scalar value for in", Condition{Fact: FactConditions, Op: OpIn, Value: str("diabetes")}},
		{"contains on activity", Condition{Fact: FactActivity, Op: OpContains, Value: str("moderate")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(tc.cond, facts)
			if !errors.Is(err, ErrInvalidCondition) {
				t.Errorf("expected ErrInvalidCondition, got %v", err)
			}
		})
	}
}

func TestEvaluateNullValueCondition(t *testing.T) {
	facts := testFacts(t)

	// A stored "value": null must stay empty after decoding, not turn
	// into the number 0 and make bmi >= 0 match everyone.
	var cond Condition
	if err := json.Unmarshal([]byte(`{"fact": "bmi", "op": ">=", "value": null}`), &cond); err != nil {
		t.Fatalf("failed to decode condition: %v", err)
	}
	if !cond.Value.IsZero() {
		t.Fatalf("expected empty value after decoding null, got %+v", cond.Value)
	}

	held, err := Evaluate(cond, facts)
	if !errors.Is(err, ErrInvalidCondition) {
		t.Errorf("expected ErrInvalidCondition, got result=%v err=%v", held, err)
	}
}

func TestMatchSingleForwardPass(t *testing.T) {
	facts := testFacts(t)

	matchRules := []Rule{
		{ID: "catch_all", Priority: -10}, // empty when matches everything
		{ID: "diabetic", When: []Condition{{Fact: FactConditions, Op: OpContains, Value: str("diabetes")}}},
		{ID: "underweight", When: []Condition{{Fact: FactBMI, Op: OpLT, Value: num(18.5)}}},
		{ID: "broken", When: []Condition{{Fact: "weight", Op: OpGT, Value: num(80)}}},
	}

	matched, skipped := Match(matchRules, facts)

	if len(matched) != 2 {
		t.Fatalf("expected 2 matched rules, got %d", len(matched))
	}
	// input order preserved
	if matched[0].ID != "catch_all" || matched[1].ID != "diabetic" {
		t.Errorf("expected input order [catch_all diabetic], got [%s %s]", matched[0].ID, matched[1].ID)
	}

	if len(skipped) != 1 || skipped[0].RuleID != "broken" {
		t.Errorf("expected rule 'broken' to be skipped, got %v", skipped)
	}
}
