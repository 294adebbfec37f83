package engine

// SkippedRule records a rule excluded from matching because one of its
// conditions was malformed. Returned as diagnostics, never as a failure of
// the whole request.
type SkippedRule struct {
	RuleID string `json:"rule_id"`
	Reason string `json:"reason"`
}

// Match selects every rule whose full When list holds against the facts, in a
// single forward pass. Input order is preserved (Resolve sorts by priority).
// There is no chaining: a matched rule's consequence never feeds back into the
// fact set. A rule with an empty When list matches unconditionally.
func Match(rules []Rule, facts FactSet) (matched []Rule, skipped []SkippedRule) {
	for _, rule := range rules {
		ok := true
		for _, cond := range rule.When {
			holds, err := Evaluate(cond, facts)
			if err != nil {
				skipped = append(skipped, SkippedRule{RuleID: rule.ID, Reason: err.Error()})
				ok = false
				break
			}
			if !holds {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, rule)
		}
	}
	return matched, skipped
}
