package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key (user email, rule id)
	// already exists.
	ErrDuplicate = errors.New("already exists")
)

// User — registered account. Role gates rule authoring.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         string // "patient" or "nutritionist"
	CreatedAt    time.Time
}

// UsersStorage — интерфейс для работы с аккаунтами
type UsersStorage interface {
	// CreateUser сохраняет нового пользователя (ErrDuplicate по email)
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail возвращает пользователя по email
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID возвращает пользователя по ID
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// StoredRule — persisted advisory rule. The rule body (conditions and
// consequence) is kept as JSON; the engine package owns its shape.
type StoredRule struct {
	ID        string // author-chosen key, e.g. "R1"
	Name      string
	Priority  int
	Payload   []byte // full rule JSON
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RulesStorage — интерфейс для работы с правилами
type RulesStorage interface {
	// ListRules возвращает все правила (стабильный порядок по id)
	ListRules(ctx context.Context) ([]StoredRule, error)

	// GetRule возвращает правило по id
	GetRule(ctx context.Context, id string) (*StoredRule, error)

	// CreateRule создаёт правило (ErrDuplicate, если id занят)
	CreateRule(ctx context.Context, rule *StoredRule) error

	// UpdateRule заменяет правило целиком (ErrNotFound)
	UpdateRule(ctx context.Context, rule *StoredRule) error

	// DeleteRule удаляет правило (ErrNotFound)
	DeleteRule(ctx context.Context, id string) error
}

// ReportMeta — метаданные экспортированного отчёта
type ReportMeta struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Format    string // "pdf" or "csv"
	Title     string
	ObjectKey *string // blob key (NULL for memory mode)
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
	Data      []byte // only used in memory mode (not stored in DB)
}

// ReportsStorage — интерфейс для работы с отчётами
type ReportsStorage interface {
	// CreateReport создаёт новый отчёт (metadata + optional data for memory mode)
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport возвращает отчёт по ID
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)

	// ListReports возвращает отчёты пользователя с пагинацией
	ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ReportMeta, error)

	// DeleteReport удаляет отчёт (metadata и данные)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// Storage объединяет все хранилища и управляет соединением
type Storage interface {
	UsersStorage
	RulesStorage
	ReportsStorage

	// Close закрывает соединение (для Postgres)
	Close() error
}
