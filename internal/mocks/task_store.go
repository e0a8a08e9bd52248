package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/store"
)

// MemoryTaskStore is an in-memory store.TaskStore. The conditional
// transition methods replicate the status and latch guards of the SQL
// implementation so sweeper idempotence can be tested against it.
type MemoryTaskStore struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]*domain.Task
	comments map[uuid.UUID][]domain.Comment

	// Optional overrides for error injection.
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	MarkInProgressFn func(ctx context.Context, id uuid.UUID) (bool, error)
	MarkDoneFn       func(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)
}

// NewMemoryTaskStore creates an empty MemoryTaskStore.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks:    make(map[uuid.UUID]*domain.Task),
		comments: make(map[uuid.UUID][]domain.Comment),
	}
}

var _ store.TaskStore = (*MemoryTaskStore)(nil)

func cloneTask(t *domain.Task) *domain.Task {
	copied := *t
	copied.Subtasks = append([]domain.Subtask(nil), t.Subtasks...)
	copied.Comments = append([]domain.Comment(nil), t.Comments...)
	return &copied
}

// Create implements store.TaskStore.Create
func (s *MemoryTaskStore) Create(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *MemoryTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := cloneTask(t)
	copied.Comments = append([]domain.Comment(nil), s.comments[id]...)
	return copied, nil
}

// ListForUser implements store.TaskStore.ListForUser
func (s *MemoryTaskStore) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	role string,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.Task
	for _, t := range s.tasks {
		if role != domain.RoleAdmin && !t.VisibleTo(userID, role) {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Query)) {
			continue
		}
		if filter.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*filter.DueFrom)) {
			continue
		}
		if filter.DueTo != nil && (t.DueDate == nil || t.DueDate.After(*filter.DueTo)) {
			continue
		}
		result = append(result, cloneTask(t))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Update implements store.TaskStore.Update
func (s *MemoryTaskStore) Update(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *MemoryTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	delete(s.comments, id)
	return nil
}

// AddComment implements store.TaskStore.AddComment
func (s *MemoryTaskStore) AddComment(ctx context.Context, comment *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[comment.TaskID]; !ok {
		return store.ErrTaskNotFound
	}
	s.comments[comment.TaskID] = append(s.comments[comment.TaskID], *comment)
	return nil
}

// ListAutoStartDue implements store.TaskStore.ListAutoStartDue
func (s *MemoryTaskStore) ListAutoStartDue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.Task
	for _, t := range s.tasks {
		if t.Status == domain.StatusTodo && t.StartDate != nil && !t.StartDate.After(now) {
			result = append(result, cloneTask(t))
		}
	}
	return result, nil
}

// ListAutoCompleteDue implements store.TaskStore.ListAutoCompleteDue
func (s *MemoryTaskStore) ListAutoCompleteDue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.Task
	for _, t := range s.tasks {
		if t.Status != domain.StatusDone && t.EndDate != nil && !t.EndDate.After(now) {
			result = append(result, cloneTask(t))
		}
	}
	return result, nil
}

// ListOverdueUnnotified implements store.TaskStore.ListOverdueUnnotified
func (s *MemoryTaskStore) ListOverdueUnnotified(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.Task
	for _, t := range s.tasks {
		if t.Status != domain.StatusDone && t.EndDate != nil && !t.EndDate.After(now) &&
			t.OverdueNotifiedAt == nil {
			result = append(result, cloneTask(t))
		}
	}
	return result, nil
}

// MarkInProgress implements store.TaskStore.MarkInProgress
func (s *MemoryTaskStore) MarkInProgress(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.MarkInProgressFn != nil {
		return s.MarkInProgressFn(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status != domain.StatusTodo {
		return false, nil
	}
	t.Status = domain.StatusInProgress
	t.UpdatedAt = time.Now().UTC()
	return true, nil
}

// MarkDone implements store.TaskStore.MarkDone
func (s *MemoryTaskStore) MarkDone(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	if s.MarkDoneFn != nil {
		return s.MarkDoneFn(ctx, id, completedAt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status == domain.StatusDone {
		return false, nil
	}
	t.Status = domain.StatusDone
	t.CompletedAt = &completedAt
	t.UpdatedAt = time.Now().UTC()
	return true, nil
}

// LatchOverdueNotified implements store.TaskStore.LatchOverdueNotified
func (s *MemoryTaskStore) LatchOverdueNotified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OverdueNotifiedAt != nil {
		return false, nil
	}
	t.OverdueNotifiedAt = &at
	return true, nil
}

// MustCreate inserts a task directly, panicking on error. Test setup helper.
func (s *MemoryTaskStore) MustCreate(task *domain.Task) *domain.Task {
	if err := s.Create(context.Background(), task); err != nil {
		panic(err)
	}
	return task
}
