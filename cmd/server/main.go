// Package main implements the entry point for the TaskHive API server,
// a task management backend with JWT authentication, realtime updates over
// WebSocket, and a time-driven task lifecycle job.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run migrations (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd, appLogger); err != nil {
			slog.Error("Migration failed", "command", *migrateCmd, "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), cfg, appLogger); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

// run wires the application together and serves until shutdown.
func run(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	if err := app.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start lifecycle sweeper: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
