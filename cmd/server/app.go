package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/lifecycle"
	"github.com/taskhive/taskhive-api/internal/platform/postgres"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/service/auth"
	"github.com/taskhive/taskhive-api/internal/store"
)

// application holds the initialized dependencies of the server: stores,
// services, the realtime hub and the lifecycle sweeper.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore         store.UserStore
	taskStore         store.TaskStore
	notificationStore store.NotificationStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	googleVerifier   auth.GoogleVerifier

	hub                 *realtime.Hub
	notificationService service.NotificationService
	taskService         service.TaskService
	sweeper             *lifecycle.Sweeper
}

// newApplication builds the full dependency graph from configuration.
// The realtime hub doubles as the event publisher injected into the
// services and the sweeper.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	userStore := postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	notificationStore := postgres.NewPostgresNotificationStore(db, logger)

	hub := realtime.NewHub(logger)

	notificationService := service.NewNotificationService(notificationStore, hub, logger)
	taskService := service.NewTaskService(taskStore, userStore, notificationService, hub, logger)

	sweeper := lifecycle.NewSweeper(taskStore, notificationService, hub, lifecycle.Config{
		AutoStartInterval:    time.Duration(cfg.Lifecycle.AutoStartIntervalSeconds) * time.Second,
		AutoCompleteInterval: time.Duration(cfg.Lifecycle.AutoCompleteIntervalSeconds) * time.Second,
		OverdueInterval:      time.Duration(cfg.Lifecycle.OverdueIntervalSeconds) * time.Second,
	}, logger)

	return &application{
		config:              cfg,
		logger:              logger,
		db:                  db,
		userStore:           userStore,
		taskStore:           taskStore,
		notificationStore:   notificationStore,
		jwtService:          jwtService,
		passwordVerifier:    auth.NewBcryptVerifier(),
		googleVerifier:      auth.NewGoogleVerifier(cfg.Auth.GoogleClientID),
		hub:                 hub,
		notificationService: notificationService,
		taskService:         taskService,
		sweeper:             sweeper,
	}, nil
}

// openDatabase opens and verifies the Postgres connection pool.
func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// cleanup releases application resources in reverse dependency order.
func (app *application) cleanup() {
	app.sweeper.Stop()
	app.hub.Close()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
