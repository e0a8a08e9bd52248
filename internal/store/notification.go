package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
// Notifications are append-only; the read flag is the only mutable field.
type NotificationStore interface {
	// Create saves a new notification.
	// Returns ErrInvalidEntity if the target user does not exist.
	Create(ctx context.Context, n *domain.Notification) error

	// ListByUser returns a user's notifications, newest-first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)

	// MarkAllRead flips every unread notification for the user to read.
	// Returns the number of notifications updated.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}
