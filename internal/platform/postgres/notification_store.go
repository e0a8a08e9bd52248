package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/store"
)

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the
// NotificationStore interface.
func NewPostgresNotificationStore(db store.DBTX, log *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresNotificationStore{
		db:     db,
		logger: log.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO notifications (id, user_id, type, task_id, message, read, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.TaskID, n.Message, n.Read, []byte(n.Metadata), n.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, n.UserID)
		}
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()),
			slog.String("user_id", n.UserID.String()))
		return MapError(err)
	}

	log.Debug("notification created",
		slog.String("notification_id", n.ID.String()),
		slog.String("type", n.Type),
		slog.String("user_id", n.UserID.String()))
	return nil
}

// ListByUser implements store.NotificationStore.ListByUser
func (s *PostgresNotificationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, type, task_id, message, read, metadata, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	notifications := []*domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		var metadata []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.TaskID, &n.Message,
			&n.Read, &metadata, &n.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		n.Metadata = metadata
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkAllRead implements store.NotificationStore.MarkAllRead
func (s *PostgresNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`,
		userID,
	)
	if err != nil {
		log.Error("failed to mark notifications read",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}
	return result.RowsAffected()
}
