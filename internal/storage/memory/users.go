package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nutriexpert/api/internal/storage"
)

// UsersMemoryStorage — in-memory storage для аккаунтов
type UsersMemoryStorage struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]storage.User
	byEmail map[string]uuid.UUID
}

func NewUsersMemoryStorage() *UsersMemoryStorage {
	return &UsersMemoryStorage{
		users:   make(map[uuid.UUID]storage.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *UsersMemoryStorage) CreateUser(ctx context.Context, user *storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := s.byEmail[key]; ok {
		return storage.ErrDuplicate
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	s.users[user.ID] = *user
	s.byEmail[key] = user.ID

	return nil
}

func (s *UsersMemoryStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	user := s.users[id]
	return &user, nil
}

func (s *UsersMemoryStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &user, nil
}
