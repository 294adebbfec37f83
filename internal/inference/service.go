package inference

import (
	"context"
	"fmt"

	"github.com/nutriexpert/api/internal/engine"
)

// RuleSource supplies the rule set snapshot one inference call runs
// against. The rules service implements it.
type RuleSource interface {
	EngineRules(ctx context.Context) ([]engine.Rule, error)
}

// Service runs the fact → match → resolve pipeline.
type Service struct {
	rules RuleSource
}

// NewService creates a new inference service.
func NewService(rules RuleSource) *Service {
	return &Service{rules: rules}
}

// Infer normalizes the request into a fact set, matches it against a
// snapshot of the stored rules and resolves the matched consequences
// into one plan.
func (s *Service) Infer(ctx context.Context, req FactsRequest) (InferResponse, error) {
	facts, err := engine.NewFactSet(req.Age, req.Sex, req.HeightCM, req.WeightKG, req.Activity, req.Conditions)
	if err != nil {
		return InferResponse{}, fmt.Errorf("invalid facts: %w", err)
	}

	ruleSet, err := s.rules.EngineRules(ctx)
	if err != nil {
		return InferResponse{}, fmt.Errorf("failed to load rules: %w", err)
	}

	matched, skipped := engine.Match(ruleSet, facts)
	result := engine.Resolve(matched, facts)

	return InferResponse{
		BMI:          facts.BMI,
		Diagnosis:    result.Diagnosis,
		Plan:         result.Plan,
		FiredRules:   result.FiredRules,
		SkippedRules: skipped,
	}, nil
}
