package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/nutriexpert/api/internal/storage"
)

// PostgresStorage — Postgres реализация всех хранилищ
type PostgresStorage struct {
	pool    *pgxpool.Pool
	users   *PostgresUsersStorage
	rules   *PostgresRulesStorage
	reports *PostgresReportsStorage
}

// New создаёт PostgresStorage и загружает seed-данные при первом запуске
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	ps := &PostgresStorage{
		pool:    pool,
		users:   NewPostgresUsersStorage(pool),
		rules:   NewPostgresRulesStorage(pool),
		reports: NewPostgresReportsStorage(pool),
	}

	if err := ps.ensureSeedData(ctx); err != nil {
		return nil, err
	}

	return ps, nil
}

// ensureSeedData создаёт демо-нутрициониста и базовые правила, если база пустая
func (p *PostgresStorage) ensureSeedData(ctx context.Context) error {
	var nutritionists int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(1) FROM users WHERE role = 'nutritionist'`).Scan(&nutritionists)
	if err != nil {
		return err
	}

	if nutritionists == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(storage.SeedNutritionistPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		_, err = p.pool.Exec(ctx, `
			INSERT INTO users (id, email, name, password_hash, role, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (email) DO NOTHING
		`, uuid.New(), storage.SeedNutritionistEmail, storage.SeedNutritionistName, string(hash), "nutritionist")
		if err != nil {
			return err
		}
	}

	var ruleCount int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(1) FROM rules`).Scan(&ruleCount); err != nil {
		return err
	}
	if ruleCount > 0 {
		return nil
	}

	now := time.Now()
	for _, r := range storage.BaseRules() {
		_, err := p.pool.Exec(ctx, `
			INSERT INTO rules (id, name, priority, payload, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.Name, r.Priority, r.Payload, now)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// UsersStorage methods - delegate to embedded users storage

func (p *PostgresStorage) CreateUser(ctx context.Context, user *storage.User) error {
	return p.users.CreateUser(ctx, user)
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return p.users.GetUserByEmail(ctx, email)
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	return p.users.GetUserByID(ctx, id)
}

// RulesStorage methods - delegate to embedded rules storage

func (p *PostgresStorage) ListRules(ctx context.Context) ([]storage.StoredRule, error) {
	return p.rules.ListRules(ctx)
}

func (p *PostgresStorage) GetRule(ctx context.Context, id string) (*storage.StoredRule, error) {
	return p.rules.GetRule(ctx, id)
}

func (p *PostgresStorage) CreateRule(ctx context.Context, rule *storage.StoredRule) error {
	return p.rules.CreateRule(ctx, rule)
}

func (p *PostgresStorage) UpdateRule(ctx context.Context, rule *storage.StoredRule) error {
	return p.rules.UpdateRule(ctx, rule)
}

func (p *PostgresStorage) DeleteRule(ctx context.Context, id string) error {
	return p.rules.DeleteRule(ctx, id)
}

// ReportsStorage methods - delegate to embedded reports storage

func (p *PostgresStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	return p.reports.CreateReport(ctx, report)
}

func (p *PostgresStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	return p.reports.GetReport(ctx, id)
}

func (p *PostgresStorage) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	return p.reports.ListReports(ctx, userID, limit, offset)
}

func (p *PostgresStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return p.reports.DeleteReport(ctx, id)
}
