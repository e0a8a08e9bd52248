package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Notification types. The type is the discriminant of the metadata payload:
// task lifecycle events carry TaskEventMeta, overdue alerts carry OverdueMeta.
const (
	NotificationTaskCreated   = "task_created"
	NotificationTaskAssigned  = "task_assigned"
	NotificationTaskUpdated   = "task_updated"
	NotificationTaskCompleted = "task_completed"
	NotificationTaskDeleted   = "task_deleted"
	NotificationCommentAdded  = "comment_added"
	NotificationTaskOverdue   = "task_overdue"
)

// Notification-specific validation errors.
var (
	ErrEmptyNotificationID      = errors.New("notification ID cannot be empty")
	ErrEmptyNotificationUser    = errors.New("notification user cannot be empty")
	ErrEmptyNotificationMessage = errors.New("notification message cannot be empty")
)

// TaskEventMeta is the metadata payload for task lifecycle notifications
// (created/assigned/updated/completed/deleted/comment_added). It snapshots the
// task at notification time.
type TaskEventMeta struct {
	TaskTitle string `json:"task_title"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
}

// OverdueMeta is the metadata payload for task_overdue notifications.
type OverdueMeta struct {
	Priority string     `json:"priority"`
	DueDate  *time.Time `json:"due_date,omitempty"`
}

// Notification is an alert created for a single user. Notifications are never
// deleted; the read flag is the only mutable field.
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      string          `json:"type"`
	TaskID    *uuid.UUID      `json:"task_id,omitempty"`
	Message   string          `json:"message"`
	Read      bool            `json:"read"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewTaskEventNotification creates a notification about a task lifecycle event
// for the given user, snapshotting the task's display fields into the
// metadata payload.
func NewTaskEventNotification(userID uuid.UUID, typ string, task *Task, message string) (*Notification, error) {
	meta, err := json.Marshal(TaskEventMeta{
		TaskTitle: task.Title,
		Status:    task.Status,
		Priority:  task.Priority,
	})
	if err != nil {
		return nil, err
	}
	return newNotification(userID, typ, &task.ID, message, meta)
}

// NewOverdueNotification creates a task_overdue notification for the given
// user.
func NewOverdueNotification(userID uuid.UUID, task *Task, message string) (*Notification, error) {
	meta, err := json.Marshal(OverdueMeta{
		Priority: task.Priority,
		DueDate:  task.DueDate,
	})
	if err != nil {
		return nil, err
	}
	return newNotification(userID, NotificationTaskOverdue, &task.ID, message, meta)
}

func newNotification(userID uuid.UUID, typ string, taskID *uuid.UUID, message string, meta json.RawMessage) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		TaskID:    taskID,
		Message:   message,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}

	if n.UserID == uuid.Nil {
		return ErrEmptyNotificationUser
	}

	if !ValidNotificationType(n.Type) {
		return ErrInvalidNotificationType
	}

	if n.Message == "" {
		return ErrEmptyNotificationMessage
	}

	return nil
}

// ValidNotificationType reports whether t is one of the enumerated
// notification types.
func ValidNotificationType(t string) bool {
	switch t {
	case NotificationTaskCreated, NotificationTaskAssigned, NotificationTaskUpdated,
		NotificationTaskCompleted, NotificationTaskDeleted, NotificationCommentAdded,
		NotificationTaskOverdue:
		return true
	}
	return false
}
