package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriexpert/api/internal/storage"
)

// PostgresRulesStorage — Postgres storage для правил
type PostgresRulesStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresRulesStorage(pool *pgxpool.Pool) *PostgresRulesStorage {
	return &PostgresRulesStorage{pool: pool}
}

// ListRules возвращает все правила в стабильном порядке по id
func (s *PostgresRulesStorage) ListRules(ctx context.Context) ([]storage.StoredRule, error) {
	query := `
		SELECT id, name, priority, payload, created_at, updated_at
		FROM rules
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	rules := []storage.StoredRule{}
	for rows.Next() {
		var r storage.StoredRule
		err := rows.Scan(
			&r.ID,
			&r.Name,
			&r.Priority,
			&r.Payload,
			&r.CreatedAt,
			&r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, r)
	}

	return rules, rows.Err()
}

// GetRule возвращает правило по id
func (s *PostgresRulesStorage) GetRule(ctx context.Context, id string) (*storage.StoredRule, error) {
	query := `
		SELECT id, name, priority, payload, created_at, updated_at
		FROM rules
		WHERE id = $1
	`

	var r storage.StoredRule
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&r.ID,
		&r.Name,
		&r.Priority,
		&r.Payload,
		&r.CreatedAt,
		&r.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return &r, nil
}

// CreateRule создаёт правило (ErrDuplicate, если id занят)
func (s *PostgresRulesStorage) CreateRule(ctx context.Context, rule *storage.StoredRule) error {
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO rules (id, name, priority, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.Priority,
		rule.Payload,
		rule.CreatedAt,
		rule.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

// UpdateRule заменяет правило целиком
func (s *PostgresRulesStorage) UpdateRule(ctx context.Context, rule *storage.StoredRule) error {
	rule.UpdatedAt = time.Now()

	query := `
		UPDATE rules
		SET name = $2, priority = $3, payload = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.Priority,
		rule.Payload,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// DeleteRule удаляет правило
func (s *PostgresRulesStorage) DeleteRule(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}
