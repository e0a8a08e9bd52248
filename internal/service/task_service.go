package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/events"
	"github.com/taskhive/taskhive-api/internal/store"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// CreateTaskInput carries the caller-supplied fields for task creation.
// Title is the only required field.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	StartDate   *time.Time
	DueDate     *time.Time
	EndDate     *time.Time
	AssignedTo  *uuid.UUID
	Subtasks    []domain.Subtask
}

// UpdateTaskInput is a partial patch: nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	StartDate   *time.Time
	DueDate     *time.Time
	EndDate     *time.Time
	AssignedTo  *uuid.UUID
	Subtasks    []domain.Subtask
}

// TaskService provides CRUD and comment operations over tasks and owns the
// status-transition side effects: completion timestamp, XP award,
// notification fan-out and realtime broadcast.
type TaskService interface {
	// List returns tasks visible to the actor matching the filter,
	// newest-first.
	List(ctx context.Context, actor Actor, filter store.TaskFilter) ([]*domain.Task, error)

	// Get returns a single task with populated user references and comments.
	// Returns store.ErrTaskNotFound or ErrForbidden.
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Task, error)

	// Create creates a task owned by the actor. StartDate defaults to now
	// when absent. Broadcasts task:created and notifies the assignee.
	Create(ctx context.Context, actor Actor, input CreateTaskInput) (*domain.Task, error)

	// Update applies a partial patch. The first transition into done stamps
	// completedAt and awards priority-weighted XP to the acting user.
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateTaskInput) (*domain.Task, error)

	// Delete removes the task and broadcasts task:deleted.
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error

	// AddComment appends a comment and broadcasts task:comment_added.
	AddComment(ctx context.Context, actor Actor, id uuid.UUID, text string) (*domain.Task, error)
}

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	taskStore     store.TaskStore
	userStore     store.UserStore
	notifications NotificationService
	publisher     events.Publisher
	logger        *slog.Logger
}

// NewTaskService creates a new TaskService. The publisher is an explicitly
// injected event sink, typically the realtime hub.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	notifications NotificationService,
	publisher events.Publisher,
	logger *slog.Logger,
) *TaskServiceImpl {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &TaskServiceImpl{
		taskStore:     taskStore,
		userStore:     userStore,
		notifications: notifications,
		publisher:     publisher,
		logger:        logger.With("component", "task_service"),
	}
}

var _ TaskService = (*TaskServiceImpl)(nil)

// List implements TaskService.List
func (s *TaskServiceImpl) List(ctx context.Context, actor Actor, filter store.TaskFilter) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListForUser(ctx, actor.ID, actor.Role, filter)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err, "user_id", actor.ID)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Get implements TaskService.Get
func (s *TaskServiceImpl) Get(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor.ID, actor.Role) {
		return nil, ErrForbidden
	}
	return task, nil
}

// Create implements TaskService.Create
func (s *TaskServiceImpl) Create(ctx context.Context, actor Actor, input CreateTaskInput) (*domain.Task, error) {
	task, err := domain.NewTask(input.Title, actor.ID)
	if err != nil {
		return nil, err
	}

	task.Description = input.Description
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	if input.StartDate != nil {
		task.StartDate = input.StartDate
	}
	task.DueDate = input.DueDate
	task.EndDate = input.EndDate
	task.AssignedTo = input.AssignedTo
	if input.Subtasks != nil {
		task.Subtasks = input.Subtasks
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task", "error", err, "user_id", actor.ID)
		return nil, err
	}

	// Re-fetch so the response and broadcast carry populated user references.
	created, err := s.taskStore.GetByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, created, events.TaskCreated, created)

	if created.AssignedTo != nil && *created.AssignedTo != actor.ID {
		s.notifyAssignee(ctx, created, domain.NotificationTaskAssigned,
			fmt.Sprintf("You have been assigned to task %q", created.Title))
	}

	s.logger.Info("task created", "task_id", created.ID, "created_by", actor.ID)
	return created, nil
}

// Update implements TaskService.Update
func (s *TaskServiceImpl) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateTaskInput) (*domain.Task, error) {
	prev, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prev.VisibleTo(actor.ID, actor.Role) {
		return nil, ErrForbidden
	}

	task := *prev
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.StartDate != nil {
		task.StartDate = input.StartDate
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.EndDate != nil {
		task.EndDate = input.EndDate
	}
	if input.AssignedTo != nil {
		task.AssignedTo = input.AssignedTo
	}
	if input.Subtasks != nil {
		task.Subtasks = input.Subtasks
	}

	// Handle completion: the first transition into done stamps completedAt
	// and awards XP to the acting user. The time-based sweep deliberately
	// skips the award.
	completedNow := false
	if input.Status != nil && *input.Status != prev.Status {
		if !validTransition(prev.Status, *input.Status) {
			return nil, ErrInvalidTransition
		}
		task.Status = *input.Status
		if task.Status == domain.StatusDone {
			now := time.Now().UTC()
			task.CompletedAt = &now
			completedNow = true
		}
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskStore.Update(ctx, &task); err != nil {
		s.logger.Error("failed to update task", "error", err, "task_id", id)
		return nil, err
	}

	if completedNow {
		xp := domain.CompletionXP(task.Priority)
		if err := s.userStore.AwardXP(ctx, actor.ID, xp); err != nil {
			// The completion already persisted; losing the award is logged,
			// not fatal.
			s.logger.Error("failed to award completion xp",
				"error", err,
				"task_id", id,
				"user_id", actor.ID,
				"xp", xp)
		} else {
			s.logger.Info("completion xp awarded",
				"task_id", id,
				"user_id", actor.ID,
				"xp", xp)
		}
	}

	updated, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, updated, events.TaskUpdated, updated)

	if updated.AssignedTo != nil && *updated.AssignedTo != actor.ID {
		s.notifyAssignee(ctx, updated, domain.NotificationTaskUpdated,
			fmt.Sprintf("Task %q has been updated", updated.Title))
	}

	return updated, nil
}

// Delete implements TaskService.Delete
func (s *TaskServiceImpl) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !task.VisibleTo(actor.ID, actor.Role) {
		return ErrForbidden
	}

	if err := s.taskStore.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete task", "error", err, "task_id", id)
		return err
	}

	// Deletion broadcasts only the ID; no notification record is created.
	s.broadcast(ctx, task, events.TaskDeleted, map[string]any{"id": id})

	return nil
}

// AddComment implements TaskService.AddComment
func (s *TaskServiceImpl) AddComment(ctx context.Context, actor Actor, id uuid.UUID, text string) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor.ID, actor.Role) {
		return nil, ErrForbidden
	}

	comment, err := domain.NewComment(id, actor.ID, text)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.AddComment(ctx, comment); err != nil {
		s.logger.Error("failed to add comment", "error", err, "task_id", id)
		return nil, err
	}

	populated, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, populated, events.TaskCommentAdded, populated)

	if populated.AssignedTo != nil && *populated.AssignedTo != actor.ID {
		s.notifyAssignee(ctx, populated, domain.NotificationCommentAdded,
			fmt.Sprintf("New comment on task %q", populated.Title))
	}

	return populated, nil
}

// broadcast emits the event to the creator's channel and, if different, the
// assignee's.
func (s *TaskServiceImpl) broadcast(ctx context.Context, task *domain.Task, name string, payload any) {
	event := events.Event{Name: name, Data: payload}
	s.publisher.PublishToUser(ctx, task.CreatedBy, event)
	if task.AssignedTo != nil && *task.AssignedTo != task.CreatedBy {
		s.publisher.PublishToUser(ctx, *task.AssignedTo, event)
	}
}

func (s *TaskServiceImpl) notifyAssignee(ctx context.Context, task *domain.Task, typ, message string) {
	if task.AssignedTo == nil {
		return
	}
	if _, err := s.notifications.NotifyTaskEvent(ctx, *task.AssignedTo, typ, task, message); err != nil {
		// Notification failure must not fail the task operation.
		s.logger.Error("failed to notify assignee",
			"error", err,
			"task_id", task.ID,
			"type", typ)
	}
}

// validTransition enforces the strict forward progression
// todo -> in-progress -> done; done is terminal.
func validTransition(from, to string) bool {
	switch from {
	case domain.StatusTodo:
		return to == domain.StatusInProgress || to == domain.StatusDone
	case domain.StatusInProgress:
		return to == domain.StatusDone
	default:
		return false
	}
}
