package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
)

// TaskFilter narrows task listings. Zero values mean "no constraint".
type TaskFilter struct {
	Status   string
	Priority string
	// Query matches task titles case-insensitively as a substring.
	Query   string
	DueFrom *time.Time
	DueTo   *time.Time
}

// TaskStore defines the interface for task data persistence.
// Read methods populate the Creator and Assignee display references; GetByID
// additionally populates comments with their authors.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity if a referenced user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task with populated user references and comments.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListForUser returns tasks visible to the given user (as creator or
	// assignee) matching the filter, newest-first. Admins see all tasks.
	ListForUser(ctx context.Context, userID uuid.UUID, role string, filter TaskFilter) ([]*domain.Task, error)

	// Update applies the given task's mutable fields (title, description,
	// status, priority, dates, assignee, subtasks, completedAt).
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task and its comments.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddComment appends a comment to a task.
	// Returns ErrTaskNotFound if the task does not exist.
	AddComment(ctx context.Context, comment *domain.Comment) error

	// ListAutoStartDue returns tasks with status todo whose start date has
	// passed.
	ListAutoStartDue(ctx context.Context, now time.Time) ([]*domain.Task, error)

	// ListAutoCompleteDue returns unfinished tasks whose end date has passed.
	ListAutoCompleteDue(ctx context.Context, now time.Time) ([]*domain.Task, error)

	// ListOverdueUnnotified returns unfinished tasks whose end date has
	// passed and whose overdue latch is unset.
	ListOverdueUnnotified(ctx context.Context, now time.Time) ([]*domain.Task, error)

	// MarkInProgress transitions a task from todo to in-progress. The update
	// is conditional on the current status; it reports false when the task
	// was already advanced by a concurrent actor.
	MarkInProgress(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkDone transitions a task to done and stamps completedAt. The update
	// is conditional on the task not already being done.
	MarkDone(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)

	// LatchOverdueNotified sets overdueNotifiedAt if and only if it is still
	// unset. It reports false when the latch was already set, so a task is
	// alerted at most once regardless of how many sweeps observe it.
	LatchOverdueNotified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}
