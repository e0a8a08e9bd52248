package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/store"
)

// MemoryNotificationStore is an in-memory store.NotificationStore.
type MemoryNotificationStore struct {
	mu            sync.Mutex
	notifications []*domain.Notification

	// Optional override for error injection.
	CreateFn func(ctx context.Context, n *domain.Notification) error
}

// NewMemoryNotificationStore creates an empty MemoryNotificationStore.
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{}
}

var _ store.NotificationStore = (*MemoryNotificationStore)(nil)

// Create implements store.NotificationStore.Create
func (s *MemoryNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *n
	s.notifications = append(s.notifications, &copied)
	return nil
}

// ListByUser implements store.NotificationStore.ListByUser
func (s *MemoryNotificationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []*domain.Notification{}
	for _, n := range s.notifications {
		if n.UserID == userID {
			copied := *n
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// MarkAllRead implements store.NotificationStore.MarkAllRead
func (s *MemoryNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

// All returns every stored notification. Test inspection helper.
func (s *MemoryNotificationStore) All() []*domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		copied := *n
		result = append(result, &copied)
	}
	return result
}
