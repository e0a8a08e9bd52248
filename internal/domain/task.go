package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task statuses. Status only advances todo -> in-progress -> done; done is
// terminal.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// XP awarded when a task is completed manually, weighted by priority.
var xpByPriority = map[string]int{
	PriorityLow:    10,
	PriorityMedium: 25,
	PriorityHigh:   50,
}

// Task-specific validation errors.
var (
	ErrEmptyTaskID    = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle = errors.New("task title cannot be empty")
	ErrEmptyCreator   = errors.New("task creator cannot be empty")
)

// UserRef is a denormalized reference to a user, carried on task reads so
// responses include display fields for the creator, assignee and comment
// authors without a second round trip.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Subtask is an embedded checklist item on a task. Subtasks are stored as a
// JSONB list and have no identity of their own.
type Subtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Comment is a comment on a task.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Author    *UserRef  `json:"author,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment creates a new Comment on the given task.
func NewComment(taskID, authorID uuid.UUID, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("comment text cannot be empty")
	}
	return &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Task represents a unit of work owned by its creator and optionally assigned
// to another user. Both creator and assignee receive visibility and realtime
// events.
type Task struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	OverdueNotifiedAt *time.Time `json:"overdue_notified_at,omitempty"`
	AssignedTo        *uuid.UUID `json:"assigned_to,omitempty"`
	CreatedBy         uuid.UUID  `json:"created_by"`
	Assignee          *UserRef   `json:"assignee,omitempty"`
	Creator           *UserRef   `json:"creator,omitempty"`
	Subtasks          []Subtask  `json:"subtasks"`
	Comments          []Comment  `json:"comments,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewTask creates a new Task with the given title and creator.
// Status defaults to todo, priority to medium, and the start date to now when
// none is provided.
func NewTask(title string, createdBy uuid.UUID) (*Task, error) {
	now := time.Now().UTC()
	start := now
	task := &Task{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Status:    StatusTodo,
		Priority:  PriorityMedium,
		StartDate: &start,
		CreatedBy: createdBy,
		Subtasks:  []Subtask{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if t.CreatedBy == uuid.Nil {
		return ErrEmptyCreator
	}

	if !ValidStatus(t.Status) {
		return ErrInvalidStatus
	}

	if !ValidPriority(t.Priority) {
		return ErrInvalidPriority
	}

	return nil
}

// ValidStatus reports whether s is one of the allowed task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the allowed task priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// CompletionXP returns the experience points awarded for manually completing a
// task of the given priority. Unknown priorities fall back to the low award.
func CompletionXP(priority string) int {
	if xp, ok := xpByPriority[priority]; ok {
		return xp
	}
	return xpByPriority[PriorityLow]
}

// VisibleTo reports whether the given user may see and mutate this task.
// Tasks are visible to their creator, their assignee, and admins.
func (t *Task) VisibleTo(userID uuid.UUID, role string) bool {
	if role == RoleAdmin {
		return true
	}
	if t.CreatedBy == userID {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
