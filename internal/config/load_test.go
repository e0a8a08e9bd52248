package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TASKHIVE_DATABASE_URL", "postgres://localhost:5432/taskhive_test")
	t.Setenv("TASKHIVE_AUTH_JWT_SECRET", "config-test-secret-key-long-enough!!!!")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 15, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, 10080, cfg.Auth.RefreshTokenLifetimeMinutes)
	assert.Equal(t, 5, cfg.Lifecycle.AutoStartIntervalSeconds)
	assert.Equal(t, 10, cfg.Lifecycle.AutoCompleteIntervalSeconds)
	assert.Equal(t, 60, cfg.Lifecycle.OverdueIntervalSeconds)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKHIVE_SERVER_PORT", "9090")
	t.Setenv("TASKHIVE_LIFECYCLE_OVERDUE_INTERVAL_SECONDS", "300")
	t.Setenv("TASKHIVE_AUTH_GOOGLE_CLIENT_ID", "client-123.apps.googleusercontent.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 300, cfg.Lifecycle.OverdueIntervalSeconds)
	assert.Equal(t, "client-123.apps.googleusercontent.com", cfg.Auth.GoogleClientID)
}

func TestLoadRejectsMissingSecrets(t *testing.T) {
	t.Setenv("TASKHIVE_DATABASE_URL", "postgres://localhost:5432/taskhive_test")
	t.Setenv("TASKHIVE_AUTH_JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	t.Setenv("TASKHIVE_DATABASE_URL", "postgres://localhost:5432/taskhive_test")
	t.Setenv("TASKHIVE_AUTH_JWT_SECRET", "short")

	_, err := config.Load()
	assert.Error(t, err)
}
