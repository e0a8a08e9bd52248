// Package lifecycle implements the time-driven task lifecycle job: recurring
// sweeps that reconcile task status against wall-clock time and raise
// at-most-one overdue alert per task.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/events"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

// Config holds the sweep intervals. The three sweeps run on independent
// timers and are not mutually coordinated.
type Config struct {
	AutoStartInterval    time.Duration
	AutoCompleteInterval time.Duration
	OverdueInterval      time.Duration
}

// DefaultConfig returns the default sweep intervals.
func DefaultConfig() Config {
	return Config{
		AutoStartInterval:    5 * time.Second,
		AutoCompleteInterval: 10 * time.Second,
		OverdueInterval:      60 * time.Second,
	}
}

// Sweeper is a cancellable scheduled job that advances task status based on
// elapsed time. It assumes a single active instance; running several
// concurrently can double-fire realtime events even though the conditional
// store updates keep the status transitions themselves single-shot.
type Sweeper struct {
	taskStore     store.TaskStore
	notifications service.NotificationService
	publisher     events.Publisher
	config        Config
	logger        *slog.Logger
	timeFunc      func() time.Time // Injectable for testing

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewSweeper creates a new Sweeper. The publisher is the injected realtime
// event sink; intervals at or below zero fall back to the defaults.
func NewSweeper(
	taskStore store.TaskStore,
	notifications service.NotificationService,
	publisher events.Publisher,
	config Config,
	logger *slog.Logger,
) *Sweeper {
	def := DefaultConfig()
	if config.AutoStartInterval <= 0 {
		config.AutoStartInterval = def.AutoStartInterval
	}
	if config.AutoCompleteInterval <= 0 {
		config.AutoCompleteInterval = def.AutoCompleteInterval
	}
	if config.OverdueInterval <= 0 {
		config.OverdueInterval = def.OverdueInterval
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		taskStore:     taskStore,
		notifications: notifications,
		publisher:     publisher,
		config:        config,
		logger:        logger.With("component", "lifecycle_sweeper"),
		timeFunc:      time.Now,
	}
}

// NewSweeperWithClock creates a Sweeper with an injected time source so
// tests can control what "now" means for the sweeps.
func NewSweeperWithClock(
	taskStore store.TaskStore,
	notifications service.NotificationService,
	publisher events.Publisher,
	config Config,
	logger *slog.Logger,
	timeFunc func() time.Time,
) *Sweeper {
	s := NewSweeper(taskStore, notifications, publisher, config, logger)
	if timeFunc != nil {
		s.timeFunc = timeFunc
	}
	return s
}

// Start launches the three sweep loops. They run until the context is
// canceled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("sweeper already started")
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)

	s.runLoop(ctx, "auto_start", s.config.AutoStartInterval, s.SweepAutoStart)
	s.runLoop(ctx, "auto_complete", s.config.AutoCompleteInterval, s.SweepAutoComplete)
	s.runLoop(ctx, "overdue", s.config.OverdueInterval, s.SweepOverdue)

	s.logger.Info("lifecycle sweeper started",
		"auto_start_interval", s.config.AutoStartInterval,
		"auto_complete_interval", s.config.AutoCompleteInterval,
		"overdue_interval", s.config.OverdueInterval)
	return nil
}

// Stop cancels the sweep loops and waits for them to drain. Safe to call
// once after a successful Start.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("lifecycle sweeper stopped")
}

// runLoop ticks the given sweep until the context is done. A sweep that
// returns an error is logged and retried on the next tick; the loop never
// exits on sweep failure.
func (s *Sweeper) runLoop(ctx context.Context, name string, interval time.Duration, sweep func(context.Context) (int, error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				processed, err := sweep(ctx)
				if err != nil {
					s.logger.Error("sweep failed",
						"sweep", name,
						"error", err)
					continue
				}
				if processed > 0 {
					s.logger.Info("sweep completed",
						"sweep", name,
						"processed", processed)
				}
			}
		}
	}()
}

// SweepAutoStart promotes tasks from todo to in-progress once their start
// date has passed, emitting an update event to the creator's and assignee's
// channels. Returns the number of tasks transitioned.
func (s *Sweeper) SweepAutoStart(ctx context.Context) (int, error) {
	now := s.timeFunc().UTC()
	tasks, err := s.taskStore.ListAutoStartDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list auto-start candidates: %w", err)
	}

	processed := 0
	for _, task := range tasks {
		// Per-item isolation: a failing task is logged and skipped so the
		// rest of the batch still transitions.
		changed, err := s.taskStore.MarkInProgress(ctx, task.ID)
		if err != nil {
			s.logger.Error("failed to auto-start task",
				"task_id", task.ID,
				"error", err)
			continue
		}
		if !changed {
			// Already advanced by a concurrent actor.
			continue
		}

		task.Status = domain.StatusInProgress
		s.broadcastUpdate(ctx, task)
		processed++
	}
	return processed, nil
}

// SweepAutoComplete marks unfinished tasks done once their end date has
// passed, stamping completedAt. Unlike the manual finish path this awards no
// experience points. Returns the number of tasks transitioned.
func (s *Sweeper) SweepAutoComplete(ctx context.Context) (int, error) {
	now := s.timeFunc().UTC()
	tasks, err := s.taskStore.ListAutoCompleteDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list auto-complete candidates: %w", err)
	}

	processed := 0
	for _, task := range tasks {
		changed, err := s.taskStore.MarkDone(ctx, task.ID, now)
		if err != nil {
			s.logger.Error("failed to auto-complete task",
				"task_id", task.ID,
				"error", err)
			continue
		}
		if !changed {
			continue
		}

		task.Status = domain.StatusDone
		completedAt := now
		task.CompletedAt = &completedAt
		s.broadcastUpdate(ctx, task)
		processed++
	}
	return processed, nil
}

// SweepOverdue latches overdueNotifiedAt on overdue tasks and, when the task
// has an assignee, raises a single task_overdue notification. The latch is
// one-shot: once set it is never cleared, so a task is alerted at most once
// regardless of how many sweep cycles observe it. Returns the number of
// tasks latched.
func (s *Sweeper) SweepOverdue(ctx context.Context) (int, error) {
	now := s.timeFunc().UTC()
	tasks, err := s.taskStore.ListOverdueUnnotified(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue candidates: %w", err)
	}

	processed := 0
	for _, task := range tasks {
		latched, err := s.taskStore.LatchOverdueNotified(ctx, task.ID, now)
		if err != nil {
			s.logger.Error("failed to latch overdue task",
				"task_id", task.ID,
				"error", err)
			continue
		}
		if !latched {
			continue
		}
		processed++

		if task.AssignedTo == nil {
			continue
		}
		_, err = s.notifications.NotifyOverdue(ctx, *task.AssignedTo, task,
			fmt.Sprintf("Task %q is overdue", task.Title))
		if err != nil {
			// The latch already won; the alert for this episode is lost
			// rather than retried, matching the at-most-once guarantee.
			s.logger.Error("failed to deliver overdue notification",
				"task_id", task.ID,
				"user_id", *task.AssignedTo,
				"error", err)
		}
	}
	return processed, nil
}

// broadcastUpdate emits task:updated to the creator and, if different, the
// assignee.
func (s *Sweeper) broadcastUpdate(ctx context.Context, task *domain.Task) {
	event := events.Event{Name: events.TaskUpdated, Data: task}
	s.publisher.PublishToUser(ctx, task.CreatedBy, event)
	if task.AssignedTo != nil && *task.AssignedTo != task.CreatedBy {
		s.publisher.PublishToUser(ctx, *task.AssignedTo, event)
	}
}
