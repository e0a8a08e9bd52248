package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/store"
)

// MemoryUserStore is an in-memory store.UserStore. Passwords are stored with
// a recognizable "hashed:" prefix instead of real bcrypt so tests can assert
// on them cheaply.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	// Optional overrides for error injection.
	CreateFn  func(ctx context.Context, user *domain.User) error
	AwardXPFn func(ctx context.Context, id uuid.UUID, delta int) error
}

// NewMemoryUserStore creates an empty MemoryUserStore.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*domain.User)}
}

var _ store.UserStore = (*MemoryUserStore)(nil)

// Create implements store.UserStore.Create
func (s *MemoryUserStore) Create(ctx context.Context, user *domain.User) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, user)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == strings.ToLower(user.Email) {
			return store.ErrEmailExists
		}
	}

	stored := *user
	if stored.Password != "" {
		stored.HashedPassword = "hashed:" + stored.Password
		stored.Password = ""
	}
	s.users[stored.ID] = &stored
	user.Password = ""
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *MemoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// Update implements store.UserStore.Update
func (s *MemoryUserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}

	stored := *user
	if stored.Password != "" {
		stored.HashedPassword = "hashed:" + stored.Password
		stored.Password = ""
	} else {
		stored.HashedPassword = existing.HashedPassword
	}
	stored.XP = existing.XP
	s.users[stored.ID] = &stored
	user.Password = ""
	return nil
}

// AwardXP implements store.UserStore.AwardXP
func (s *MemoryUserStore) AwardXP(ctx context.Context, id uuid.UUID, delta int) error {
	if s.AwardXPFn != nil {
		return s.AwardXPFn(ctx, id, delta)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.XP += delta
	return nil
}

// MustCreate inserts a user directly, panicking on error. Test setup helper.
func (s *MemoryUserStore) MustCreate(user *domain.User) *domain.User {
	if err := s.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}
