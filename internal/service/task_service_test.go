package service_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/events"
	"github.com/taskhive/taskhive-api/internal/mocks"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

type taskServiceFixture struct {
	users         *mocks.MemoryUserStore
	tasks         *mocks.MemoryTaskStore
	notifications *mocks.MemoryNotificationStore
	publisher     *mocks.RecordingPublisher
	service       service.TaskService
}

func newTaskServiceFixture(t *testing.T) *taskServiceFixture {
	t.Helper()

	users := mocks.NewMemoryUserStore()
	tasks := mocks.NewMemoryTaskStore()
	notifications := mocks.NewMemoryNotificationStore()
	publisher := mocks.NewRecordingPublisher()

	logger := slog.Default()
	notificationService := service.NewNotificationService(notifications, publisher, logger)
	taskService := service.NewTaskService(tasks, users, notificationService, publisher, logger)

	return &taskServiceFixture{
		users:         users,
		tasks:         tasks,
		notifications: notifications,
		publisher:     publisher,
		service:       taskService,
	}
}

func (f *taskServiceFixture) newUser(t *testing.T, name string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(name, name+"@example.com", "password123")
	require.NoError(t, err)
	return f.users.MustCreate(user)
}

func TestTaskServiceCreate(t *testing.T) {
	t.Parallel()

	t.Run("broadcasts to creator and notifies assignee", func(t *testing.T) {
		t.Parallel()

		f := newTaskServiceFixture(t)
		creator := f.newUser(t, "creator")
		assignee := f.newUser(t, "assignee")
		actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

		task, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{
			Title:      "Prepare demo",
			Priority:   domain.PriorityHigh,
			AssignedTo: &assignee.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusTodo, task.Status)

		creatorEvents := f.publisher.EventsFor(creator.ID)
		require.NotEmpty(t, creatorEvents)
		assert.Equal(t, events.TaskCreated, creatorEvents[0].Event.Name)

		// The assignee gets the created event plus the assignment
		// notification push.
		assigneeEvents := f.publisher.EventsFor(assignee.ID)
		names := make([]string, 0, len(assigneeEvents))
		for _, e := range assigneeEvents {
			names = append(names, e.Event.Name)
		}
		assert.Contains(t, names, events.TaskCreated)
		assert.Contains(t, names, events.NotificationNew)

		stored := f.notifications.All()
		require.Len(t, stored, 1)
		assert.Equal(t, domain.NotificationTaskAssigned, stored[0].Type)
		assert.Equal(t, assignee.ID, stored[0].UserID)
	})

	t.Run("self-assignment skips the notification", func(t *testing.T) {
		t.Parallel()

		f := newTaskServiceFixture(t)
		creator := f.newUser(t, "solo")
		actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

		_, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{
			Title:      "Self-assigned",
			AssignedTo: &creator.ID,
		})
		require.NoError(t, err)
		assert.Empty(t, f.notifications.All())
	})

	t.Run("rejects invalid priority", func(t *testing.T) {
		t.Parallel()

		f := newTaskServiceFixture(t)
		creator := f.newUser(t, "picky")
		actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

		_, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{
			Title:    "Bad priority",
			Priority: "urgent",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPriority)
	})
}

func TestTaskServiceUpdateCompletion(t *testing.T) {
	t.Parallel()

	t.Run("first transition to done awards priority XP and stamps completedAt", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			priority string
			wantXP   int
		}{
			{domain.PriorityLow, 10},
			{domain.PriorityMedium, 25},
			{domain.PriorityHigh, 50},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.priority, func(t *testing.T) {
				t.Parallel()

				f := newTaskServiceFixture(t)
				creator := f.newUser(t, "finisher-"+tc.priority)
				actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

				task, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{
					Title:    "Finish me",
					Priority: tc.priority,
				})
				require.NoError(t, err)

				done := domain.StatusDone
				updated, err := f.service.Update(context.Background(), actor, task.ID, service.UpdateTaskInput{
					Status: &done,
				})
				require.NoError(t, err)

				assert.Equal(t, domain.StatusDone, updated.Status)
				require.NotNil(t, updated.CompletedAt)

				user, err := f.users.GetByID(context.Background(), creator.ID)
				require.NoError(t, err)
				assert.Equal(t, tc.wantXP, user.XP)
			})
		}
	})

	t.Run("done is terminal", func(t *testing.T) {
		t.Parallel()

		f := newTaskServiceFixture(t)
		creator := f.newUser(t, "terminal")
		actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

		task, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{Title: "One way"})
		require.NoError(t, err)

		done := domain.StatusDone
		_, err = f.service.Update(context.Background(), actor, task.ID, service.UpdateTaskInput{Status: &done})
		require.NoError(t, err)

		todo := domain.StatusTodo
		_, err = f.service.Update(context.Background(), actor, task.ID, service.UpdateTaskInput{Status: &todo})
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("backwards transition rejected", func(t *testing.T) {
		t.Parallel()

		f := newTaskServiceFixture(t)
		creator := f.newUser(t, "stepper")
		actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

		task, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{Title: "Forward only"})
		require.NoError(t, err)

		inProgress := domain.StatusInProgress
		_, err = f.service.Update(context.Background(), actor, task.ID, service.UpdateTaskInput{Status: &inProgress})
		require.NoError(t, err)

		todo := domain.StatusTodo
		_, err = f.service.Update(context.Background(), actor, task.ID, service.UpdateTaskInput{Status: &todo})
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("non-status patch never awards XP", func(t *testing.T) {
		t.Parallel()

		f := newTaskServiceFixture(t)
		creator := f.newUser(t, "renamer")
		actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

		task, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{Title: "Old title"})
		require.NoError(t, err)

		title := "New title"
		updated, err := f.service.Update(context.Background(), actor, task.ID, service.UpdateTaskInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "New title", updated.Title)
		assert.Equal(t, domain.StatusTodo, updated.Status)

		user, err := f.users.GetByID(context.Background(), creator.ID)
		require.NoError(t, err)
		assert.Zero(t, user.XP)
	})
}

func TestTaskServiceVisibility(t *testing.T) {
	t.Parallel()

	f := newTaskServiceFixture(t)
	creator := f.newUser(t, "owner")
	stranger := f.newUser(t, "stranger")
	admin := f.newUser(t, "admin")

	actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}
	task, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{Title: "Private"})
	require.NoError(t, err)

	t.Run("stranger cannot read", func(t *testing.T) {
		_, err := f.service.Get(context.Background(), service.Actor{ID: stranger.ID, Role: domain.RoleUser}, task.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("stranger cannot update or delete", func(t *testing.T) {
		title := "hijacked"
		strangerActor := service.Actor{ID: stranger.ID, Role: domain.RoleUser}
		_, err := f.service.Update(context.Background(), strangerActor, task.ID, service.UpdateTaskInput{Title: &title})
		assert.ErrorIs(t, err, service.ErrForbidden)

		err = f.service.Delete(context.Background(), strangerActor, task.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		got, err := f.service.Get(context.Background(), service.Actor{ID: admin.ID, Role: domain.RoleAdmin}, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
	})

	t.Run("list is scoped", func(t *testing.T) {
		visible, err := f.service.List(context.Background(), actor, store.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, visible, 1)

		hidden, err := f.service.List(context.Background(), service.Actor{ID: stranger.ID, Role: domain.RoleUser}, store.TaskFilter{})
		require.NoError(t, err)
		assert.Empty(t, hidden)
	})
}

func TestTaskServiceDelete(t *testing.T) {
	t.Parallel()

	f := newTaskServiceFixture(t)
	creator := f.newUser(t, "deleter")
	assignee := f.newUser(t, "watcher")
	actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

	task, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{
		Title:      "Doomed",
		AssignedTo: &assignee.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), actor, task.ID))

	_, err = f.service.Get(context.Background(), actor, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	var sawDelete bool
	for _, e := range f.publisher.EventsFor(assignee.ID) {
		if e.Event.Name == events.TaskDeleted {
			sawDelete = true
		}
	}
	assert.True(t, sawDelete, "assignee should receive the deletion event")
}

func TestTaskServiceAddComment(t *testing.T) {
	t.Parallel()

	f := newTaskServiceFixture(t)
	creator := f.newUser(t, "commenter")
	assignee := f.newUser(t, "reader")
	actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

	task, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{
		Title:      "Discuss",
		AssignedTo: &assignee.ID,
	})
	require.NoError(t, err)

	updated, err := f.service.AddComment(context.Background(), actor, task.ID, "First!")
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "First!", updated.Comments[0].Text)
	assert.Equal(t, creator.ID, updated.Comments[0].AuthorID)

	var commentNotifications int
	for _, n := range f.notifications.All() {
		if n.Type == domain.NotificationCommentAdded {
			commentNotifications++
			assert.Equal(t, assignee.ID, n.UserID)
		}
	}
	assert.Equal(t, 1, commentNotifications)

	_, err = f.service.AddComment(context.Background(), actor, task.ID, "   ")
	assert.Error(t, err)
}

func TestTaskServiceAwardFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newTaskServiceFixture(t)
	creator := f.newUser(t, "unlucky")
	actor := service.Actor{ID: creator.ID, Role: domain.RoleUser}

	task, err := f.service.Create(context.Background(), actor, service.CreateTaskInput{Title: "XP lost"})
	require.NoError(t, err)

	f.users.AwardXPFn = func(ctx context.Context, id uuid.UUID, delta int) error {
		return context.DeadlineExceeded
	}

	done := domain.StatusDone
	updated, err := f.service.Update(context.Background(), actor, task.ID, service.UpdateTaskInput{Status: &done})
	require.NoError(t, err, "completion must survive a failed XP award")
	assert.Equal(t, domain.StatusDone, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.WithinDuration(t, time.Now().UTC(), *updated.CompletedAt, time.Minute)
}
