package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	// GoogleClientID is the OAuth client ID used as the audience when
	// verifying Google ID tokens. Empty disables federated login.
	GoogleClientID string `mapstructure:"google_client_id"`
	BcryptCost     int    `mapstructure:"bcrypt_cost"                    validate:"omitempty,gte=4,lte=31"`
}

// LifecycleConfig contains the sweep intervals for the time-driven task
// lifecycle job, in seconds.
type LifecycleConfig struct {
	AutoStartIntervalSeconds    int `mapstructure:"auto_start_interval_seconds"    validate:"required,gt=0"`
	AutoCompleteIntervalSeconds int `mapstructure:"auto_complete_interval_seconds" validate:"required,gt=0"`
	OverdueIntervalSeconds      int `mapstructure:"overdue_interval_seconds"       validate:"required,gt=0"`
}
