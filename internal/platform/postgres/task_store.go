package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection that should be
// initialized and managed by the caller. If log is nil, the default logger is
// used.
func NewPostgresTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// taskSelect joins users twice so every read populates the creator and
// assignee display references.
const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority,
	       t.start_date, t.due_date, t.end_date, t.completed_at, t.overdue_notified_at,
	       t.assigned_to, t.created_by, t.subtasks, t.created_at, t.updated_at,
	       c.name, c.email,
	       a.name, a.email
	FROM tasks t
	JOIN users c ON c.id = t.created_by
	LEFT JOIN users a ON a.id = t.assigned_to
`

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	subtasks, err := marshalSubtasks(task.Subtasks)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, title, description, status, priority,
		                   start_date, due_date, end_date, completed_at, overdue_notified_at,
		                   assigned_to, created_by, subtasks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.db.ExecContext(ctx, query,
		task.ID, task.Title, nullString(task.Description), task.Status, task.Priority,
		task.StartDate, task.DueDate, task.EndDate, task.CompletedAt, task.OverdueNotifiedAt,
		task.AssignedTo, task.CreatedBy, subtasks, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return fmt.Errorf("%w: referenced user not found", store.ErrInvalidEntity)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("created_by", task.CreatedBy.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, taskSelect+` WHERE t.id = $1`, id)
	if err != nil {
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	tasks, err := s.collectTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, store.ErrTaskNotFound
	}

	task := tasks[0]
	task.Comments, err = s.listComments(ctx, id)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListForUser implements store.TaskStore.ListForUser
func (s *PostgresTaskStore) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	role string,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := taskSelect + ` WHERE 1=1`
	var args []any

	if role != domain.RoleAdmin {
		args = append(args, userID)
		query += fmt.Sprintf(` AND (t.created_by = $%d OR t.assigned_to = $%d)`, len(args), len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND t.status = $%d`, len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(` AND t.priority = $%d`, len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += fmt.Sprintf(` AND t.title ILIKE $%d`, len(args))
	}
	if filter.DueFrom != nil {
		args = append(args, *filter.DueFrom)
		query += fmt.Sprintf(` AND t.due_date >= $%d`, len(args))
	}
	if filter.DueTo != nil {
		args = append(args, *filter.DueTo)
		query += fmt.Sprintf(` AND t.due_date <= $%d`, len(args))
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return s.collectTasks(rows)
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	subtasks, err := marshalSubtasks(task.Subtasks)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    start_date = $5, due_date = $6, end_date = $7, completed_at = $8,
		    assigned_to = $9, subtasks = $10, updated_at = now()
		WHERE id = $11
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title, nullString(task.Description), task.Status, task.Priority,
		task.StartDate, task.DueDate, task.EndDate, task.CompletedAt,
		task.AssignedTo, subtasks, task.ID,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced user not found", store.ErrInvalidEntity)
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// Delete implements store.TaskStore.Delete
// Comments go with the task via ON DELETE CASCADE.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// AddComment implements store.TaskStore.AddComment
func (s *PostgresTaskStore) AddComment(ctx context.Context, comment *domain.Comment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO task_comments (id, task_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		comment.ID, comment.TaskID, comment.AuthorID, comment.Text, comment.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrTaskNotFound
		}
		log.Error("failed to add comment",
			slog.String("error", err.Error()),
			slog.String("task_id", comment.TaskID.String()))
		return MapError(err)
	}
	return nil
}

// ListAutoStartDue implements store.TaskStore.ListAutoStartDue
func (s *PostgresTaskStore) ListAutoStartDue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		taskSelect+` WHERE t.status = $1 AND t.start_date IS NOT NULL AND t.start_date <= $2`,
		domain.StatusTodo, now,
	)
	if err != nil {
		return nil, MapError(err)
	}
	return s.collectTasks(rows)
}

// ListAutoCompleteDue implements store.TaskStore.ListAutoCompleteDue
func (s *PostgresTaskStore) ListAutoCompleteDue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		taskSelect+` WHERE t.status <> $1 AND t.end_date IS NOT NULL AND t.end_date <= $2`,
		domain.StatusDone, now,
	)
	if err != nil {
		return nil, MapError(err)
	}
	return s.collectTasks(rows)
}

// ListOverdueUnnotified implements store.TaskStore.ListOverdueUnnotified
func (s *PostgresTaskStore) ListOverdueUnnotified(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		taskSelect+` WHERE t.status <> $1 AND t.end_date IS NOT NULL AND t.end_date <= $2
		             AND t.overdue_notified_at IS NULL`,
		domain.StatusDone, now,
	)
	if err != nil {
		return nil, MapError(err)
	}
	return s.collectTasks(rows)
}

// MarkInProgress implements store.TaskStore.MarkInProgress
// The status guard makes the transition a no-op when a concurrent actor
// already advanced the task.
func (s *PostgresTaskStore) MarkInProgress(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		domain.StatusInProgress, id, domain.StatusTodo,
	)
	if err != nil {
		return false, MapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// MarkDone implements store.TaskStore.MarkDone
func (s *PostgresTaskStore) MarkDone(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = $1, completed_at = $2, updated_at = now()
		 WHERE id = $3 AND status <> $1`,
		domain.StatusDone, completedAt, id,
	)
	if err != nil {
		return false, MapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// LatchOverdueNotified implements store.TaskStore.LatchOverdueNotified
// The IS NULL guard is the one-shot overdue latch: once set it is never
// cleared, so at most one sweep cycle wins.
func (s *PostgresTaskStore) LatchOverdueNotified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET overdue_notified_at = $1, updated_at = now()
		 WHERE id = $2 AND overdue_notified_at IS NULL`,
		at, id,
	)
	if err != nil {
		return false, MapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *PostgresTaskStore) listComments(ctx context.Context, taskID uuid.UUID) ([]domain.Comment, error) {
	query := `
		SELECT c.id, c.task_id, c.author_id, c.text, c.created_at, u.name, u.email
		FROM task_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.task_id = $1
		ORDER BY c.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		var authorName, authorEmail string
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &c.CreatedAt,
			&authorName, &authorEmail); err != nil {
			return nil, MapError(err)
		}
		c.Author = &domain.UserRef{ID: c.AuthorID, Name: authorName, Email: authorEmail}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *PostgresTaskStore) collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(rows *sql.Rows) (*domain.Task, error) {
	var task domain.Task
	var description sql.NullString
	var subtasks []byte
	var creatorName, creatorEmail string
	var assigneeName, assigneeEmail sql.NullString

	err := rows.Scan(
		&task.ID, &task.Title, &description, &task.Status, &task.Priority,
		&task.StartDate, &task.DueDate, &task.EndDate, &task.CompletedAt, &task.OverdueNotifiedAt,
		&task.AssignedTo, &task.CreatedBy, &subtasks, &task.CreatedAt, &task.UpdatedAt,
		&creatorName, &creatorEmail,
		&assigneeName, &assigneeEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}

	task.Description = description.String
	task.Creator = &domain.UserRef{ID: task.CreatedBy, Name: creatorName, Email: creatorEmail}
	if task.AssignedTo != nil && assigneeName.Valid {
		task.Assignee = &domain.UserRef{
			ID:    *task.AssignedTo,
			Name:  assigneeName.String,
			Email: assigneeEmail.String,
		}
	}

	task.Subtasks = []domain.Subtask{}
	if len(subtasks) > 0 {
		if err := json.Unmarshal(subtasks, &task.Subtasks); err != nil {
			return nil, fmt.Errorf("failed to decode subtasks: %w", err)
		}
	}

	return &task, nil
}

func marshalSubtasks(subtasks []domain.Subtask) ([]byte, error) {
	if subtasks == nil {
		subtasks = []domain.Subtask{}
	}
	return json.Marshal(subtasks)
}
