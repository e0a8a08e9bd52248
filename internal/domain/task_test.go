package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/domain"
)

func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		creator := uuid.New()
		before := time.Now().UTC()
		task, err := domain.NewTask("Write report", creator)
		require.NoError(t, err)

		assert.Equal(t, "Write report", task.Title)
		assert.Equal(t, domain.StatusTodo, task.Status)
		assert.Equal(t, domain.PriorityMedium, task.Priority)
		assert.Equal(t, creator, task.CreatedBy)
		require.NotNil(t, task.StartDate)
		assert.False(t, task.StartDate.Before(before))
		assert.Nil(t, task.CompletedAt)
		assert.Nil(t, task.OverdueNotifiedAt)
	})

	t.Run("trims title", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask("  padded  ", uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "padded", task.Title)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask("   ", uuid.New())
		assert.Error(t, err)
	})
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	newValid := func() *domain.Task {
		task, err := domain.NewTask("valid", uuid.New())
		require.NoError(t, err)
		return task
	}

	tests := []struct {
		name    string
		mutate  func(*domain.Task)
		wantErr error
	}{
		{
			name:    "unknown status",
			mutate:  func(task *domain.Task) { task.Status = "paused" },
			wantErr: domain.ErrInvalidStatus,
		},
		{
			name:    "unknown priority",
			mutate:  func(task *domain.Task) { task.Priority = "urgent" },
			wantErr: domain.ErrInvalidPriority,
		},
		{
			name:   "all statuses accepted",
			mutate: func(task *domain.Task) { task.Status = domain.StatusInProgress },
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			task := newValid()
			tc.mutate(task)
			err := task.Validate()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompletionXP(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, domain.CompletionXP(domain.PriorityLow))
	assert.Equal(t, 25, domain.CompletionXP(domain.PriorityMedium))
	assert.Equal(t, 50, domain.CompletionXP(domain.PriorityHigh))
	assert.Equal(t, 10, domain.CompletionXP("unknown"), "unknown priorities fall back to the low award")
}

func TestTaskVisibleTo(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	assignee := uuid.New()
	stranger := uuid.New()

	task, err := domain.NewTask("scoped", creator)
	require.NoError(t, err)
	task.AssignedTo = &assignee

	assert.True(t, task.VisibleTo(creator, domain.RoleUser))
	assert.True(t, task.VisibleTo(assignee, domain.RoleUser))
	assert.False(t, task.VisibleTo(stranger, domain.RoleUser))
	assert.True(t, task.VisibleTo(stranger, domain.RoleAdmin))
}

func TestNewComment(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	authorID := uuid.New()

	comment, err := domain.NewComment(taskID, authorID, "  looks good  ")
	require.NoError(t, err)
	assert.Equal(t, "looks good", comment.Text)
	assert.Equal(t, taskID, comment.TaskID)
	assert.Equal(t, authorID, comment.AuthorID)

	_, err = domain.NewComment(taskID, authorID, "   ")
	assert.Error(t, err)
}
