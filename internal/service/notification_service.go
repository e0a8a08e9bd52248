package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/events"
	"github.com/taskhive/taskhive-api/internal/store"
)

// NotificationService creates notification records and pushes them to the
// owning user's realtime channel.
type NotificationService interface {
	// NotifyTaskEvent records a task lifecycle notification for the given
	// user and pushes it over their realtime channel.
	NotifyTaskEvent(ctx context.Context, userID uuid.UUID, typ string, task *domain.Task, message string) (*domain.Notification, error)

	// NotifyOverdue records a task_overdue notification for the given user
	// and pushes it over their realtime channel.
	NotifyOverdue(ctx context.Context, userID uuid.UUID, task *domain.Task, message string) (*domain.Notification, error)

	// ListForUser returns the user's notifications, newest-first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)

	// MarkAllRead flips all of the user's unread notifications to read and
	// returns the number updated.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	notificationStore store.NotificationStore
	publisher         events.Publisher
	logger            *slog.Logger
}

// NewNotificationService creates a new NotificationService. The publisher is
// an explicitly injected event sink, typically the realtime hub.
func NewNotificationService(
	notificationStore store.NotificationStore,
	publisher events.Publisher,
	logger *slog.Logger,
) *NotificationServiceImpl {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &NotificationServiceImpl{
		notificationStore: notificationStore,
		publisher:         publisher,
		logger:            logger.With("component", "notification_service"),
	}
}

var _ NotificationService = (*NotificationServiceImpl)(nil)

// NotifyTaskEvent implements NotificationService.NotifyTaskEvent
func (s *NotificationServiceImpl) NotifyTaskEvent(
	ctx context.Context,
	userID uuid.UUID,
	typ string,
	task *domain.Task,
	message string,
) (*domain.Notification, error) {
	n, err := domain.NewTaskEventNotification(userID, typ, task, message)
	if err != nil {
		return nil, fmt.Errorf("failed to build notification: %w", err)
	}
	return s.deliver(ctx, n)
}

// NotifyOverdue implements NotificationService.NotifyOverdue
func (s *NotificationServiceImpl) NotifyOverdue(
	ctx context.Context,
	userID uuid.UUID,
	task *domain.Task,
	message string,
) (*domain.Notification, error) {
	n, err := domain.NewOverdueNotification(userID, task, message)
	if err != nil {
		return nil, fmt.Errorf("failed to build notification: %w", err)
	}
	return s.deliver(ctx, n)
}

// deliver persists the notification, then pushes it verbatim over the target
// user's realtime channel.
func (s *NotificationServiceImpl) deliver(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if err := s.notificationStore.Create(ctx, n); err != nil {
		s.logger.Error("failed to persist notification",
			"error", err,
			"type", n.Type,
			"user_id", n.UserID)
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.publisher.PublishToUser(ctx, n.UserID, events.Event{
		Name: events.NotificationNew,
		Data: n,
	})

	s.logger.Debug("notification delivered",
		"notification_id", n.ID,
		"type", n.Type,
		"user_id", n.UserID)
	return n, nil
}

// ListForUser implements NotificationService.ListForUser
func (s *NotificationServiceImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	notifications, err := s.notificationStore.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list notifications",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkAllRead implements NotificationService.MarkAllRead
func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.notificationStore.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("failed to mark notifications read",
			"error", err,
			"user_id", userID)
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	s.logger.Debug("notifications marked read",
		"user_id", userID,
		"updated", updated)
	return updated, nil
}
