package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nutriexpert/api/internal/storage"
)

// RulesMemoryStorage — in-memory storage для правил
type RulesMemoryStorage struct {
	mu    sync.RWMutex
	rules map[string]storage.StoredRule
}

func NewRulesMemoryStorage() *RulesMemoryStorage {
	return &RulesMemoryStorage{
		rules: make(map[string]storage.StoredRule),
	}
}

func (s *RulesMemoryStorage) ListRules(ctx context.Context) ([]storage.StoredRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]storage.StoredRule, 0, len(s.rules))
	for _, r := range s.rules {
		rules = append(rules, r)
	}

	// stable order matches the postgres backend
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	return rules, nil
}

func (s *RulesMemoryStorage) GetRule(ctx context.Context, id string) (*storage.StoredRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rules[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &r, nil
}

func (s *RulesMemoryStorage) CreateRule(ctx context.Context, rule *storage.StoredRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[rule.ID]; ok {
		return storage.ErrDuplicate
	}

	now := time.Now()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = rule.CreatedAt

	s.rules[rule.ID] = *rule

	return nil
}

func (s *RulesMemoryStorage) UpdateRule(ctx context.Context, rule *storage.StoredRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rules[rule.ID]
	if !ok {
		return storage.ErrNotFound
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()
	s.rules[rule.ID] = *rule

	return nil
}

func (s *RulesMemoryStorage) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return storage.ErrNotFound
	}

	delete(s.rules, id)

	return nil
}
