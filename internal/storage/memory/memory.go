package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nutriexpert/api/internal/storage"
)

// MemoryStorage — in-memory реализация всех хранилищ (для разработки и тестов)
type MemoryStorage struct {
	users   *UsersMemoryStorage
	rules   *RulesMemoryStorage
	reports *ReportsMemoryStorage
}

// New создаёт MemoryStorage с демо-нутрициониста и базовыми правилами
func New() *MemoryStorage {
	m := &MemoryStorage{
		users:   NewUsersMemoryStorage(),
		rules:   NewRulesMemoryStorage(),
		reports: NewReportsMemoryStorage(),
	}
	m.seed()
	return m
}

func (m *MemoryStorage) seed() {
	hash, err := bcrypt.GenerateFromPassword([]byte(storage.SeedNutritionistPassword), bcrypt.DefaultCost)
	if err == nil {
		_ = m.users.CreateUser(context.Background(), &storage.User{
			ID:           uuid.New(),
			Email:        storage.SeedNutritionistEmail,
			Name:         storage.SeedNutritionistName,
			PasswordHash: string(hash),
			Role:         "nutritionist",
			CreatedAt:    time.Now(),
		})
	}

	for _, r := range storage.BaseRules() {
		rule := r
		_ = m.rules.CreateRule(context.Background(), &rule)
	}
}

func (m *MemoryStorage) Close() error {
	return nil
}

// UsersStorage methods - delegate to embedded users storage

func (m *MemoryStorage) CreateUser(ctx context.Context, user *storage.User) error {
	return m.users.CreateUser(ctx, user)
}

func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return m.users.GetUserByEmail(ctx, email)
}

func (m *MemoryStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	return m.users.GetUserByID(ctx, id)
}

// RulesStorage methods - delegate to embedded rules storage

func (m *MemoryStorage) ListRules(ctx context.Context) ([]storage.StoredRule, error) {
	return m.rules.ListRules(ctx)
}

func (m *MemoryStorage) GetRule(ctx context.Context, id string) (*storage.StoredRule, error) {
	return m.rules.GetRule(ctx, id)
}

func (m *MemoryStorage) CreateRule(ctx context.Context, rule *storage.StoredRule) error {
	return m.rules.CreateRule(ctx, rule)
}

func (m *MemoryStorage) UpdateRule(ctx context.Context, rule *storage.StoredRule) error {
	return m.rules.UpdateRule(ctx, rule)
}

func (m *MemoryStorage) DeleteRule(ctx context.Context, id string) error {
	return m.rules.DeleteRule(ctx, id)
}

// ReportsStorage methods - delegate to embedded reports storage

func (m *MemoryStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	return m.reports.CreateReport(ctx, report)
}

func (m *MemoryStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	return m.reports.GetReport(ctx, id)
}

func (m *MemoryStorage) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	return m.reports.ListReports(ctx, userID, limit, offset)
}

func (m *MemoryStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return m.reports.DeleteReport(ctx, id)
}
