package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nutriexpert/api/internal/engine"
	"github.com/nutriexpert/api/internal/storage"
)

// Service handles rule authoring business logic.
type Service struct {
	storage storage.RulesStorage
}

// NewService creates a new rules service.
func NewService(storage storage.RulesStorage) *Service {
	return &Service{storage: storage}
}

// List returns all stored rules. Rows whose payload no longer decodes
// are skipped rather than failing the whole listing.
func (s *Service) List(ctx context.Context) ([]RuleDTO, error) {
	stored, err := s.storage.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	items := make([]RuleDTO, 0, len(stored))
	for _, row := range stored {
		var rule engine.Rule
		if err := json.Unmarshal(row.Payload, &rule); err != nil {
			continue
		}
		items = append(items, RuleDTO{Rule: rule, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt})
	}

	return items, nil
}

// EngineRules returns the rule set as the engine consumes it: a read-only
// snapshot materialized at call time.
func (s *Service) EngineRules(ctx context.Context) ([]engine.Rule, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]engine.Rule, 0, len(items))
	for _, item := range items {
		out = append(out, item.Rule)
	}
	return out, nil
}

// Get returns one rule by id.
func (s *Service) Get(ctx context.Context, id string) (RuleDTO, error) {
	row, err := s.storage.GetRule(ctx, id)
	if err != nil {
		return RuleDTO{}, err
	}

	var rule engine.Rule
	if err := json.Unmarshal(row.Payload, &rule); err != nil {
		return RuleDTO{}, fmt.Errorf("stored rule %s is corrupted: %w", id, err)
	}

	return RuleDTO{Rule: rule, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}, nil
}

// Create stores a new rule and returns authoring warnings.
func (s *Service) Create(ctx context.Context, rule engine.Rule) (RuleDTO, []string, error) {
	if err := validateRule(rule); err != nil {
		return RuleDTO{}, nil, fmt.Errorf("validation failed: %w", err)
	}

	row, err := toStored(rule)
	if err != nil {
		return RuleDTO{}, nil, err
	}

	if err := s.storage.CreateRule(ctx, row); err != nil {
		return RuleDTO{}, nil, err
	}

	dto := RuleDTO{Rule: rule, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
	return dto, ruleWarnings(rule), nil
}

// Update replaces a rule wholesale. The id in the body must match the
// one being replaced; that check belongs to the handler since it is a
// request-shape concern.
func (s *Service) Update(ctx context.Context, rule engine.Rule) (RuleDTO, []string, error) {
	if err := validateRule(rule); err != nil {
		return RuleDTO{}, nil, fmt.Errorf("validation failed: %w", err)
	}

	row, err := toStored(rule)
	if err != nil {
		return RuleDTO{}, nil, err
	}

	if err := s.storage.UpdateRule(ctx, row); err != nil {
		return RuleDTO{}, nil, err
	}

	dto := RuleDTO{Rule: rule, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
	return dto, ruleWarnings(rule), nil
}

// Delete removes a rule by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteRule(ctx, id)
}

func toStored(rule engine.Rule) (*storage.StoredRule, error) {
	payload, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule: %w", err)
	}

	return &storage.StoredRule{
		ID:       rule.ID,
		Name:     rule.Name,
		Priority: rule.Priority,
		Payload:  payload,
	}, nil
}
