package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
	Handlers HandlersConfig `mapstructure:"handlers" validate:"required"`
}

// ServerConfig contains process-wide settings.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// MetricsConfig contains settings for the metrics responder.
type MetricsConfig struct {
	Port      int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// WorkerConfig contains the task engine's timing and retry settings.
type WorkerConfig struct {
	// PollInterval bounds a single dequeue wait, and with it shutdown latency
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	// ErrorPause is the back-off after a processing loop fault
	ErrorPause time.Duration `mapstructure:"error_pause" validate:"gt=0"`
	// HealthInterval is the period of the health-check producer
	HealthInterval time.Duration `mapstructure:"health_interval" validate:"gt=0"`
	// MaxAttempts is the default attempt ceiling for submitted tasks
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1"`
	// ShutdownTimeout bounds the graceful stop of the HTTP server
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// HandlersConfig contains settings for the built-in task handlers.
type HandlersConfig struct {
	DataDir          string        `mapstructure:"data_dir" validate:"required"`
	VectorIndexDelay time.Duration `mapstructure:"vector_index_delay" validate:"gte=0"`
	ModelCacheDelay  time.Duration `mapstructure:"model_cache_delay" validate:"gte=0"`
}
