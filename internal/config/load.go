package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key when read from the environment.
const EnvPrefix = "MCP_WORKER"

// legacyEnv maps configuration keys to the unprefixed variables the worker
// was historically deployed with. Prefixed variables take precedence.
var legacyEnv = map[string]string{
	"metrics.port":      "METRICS_PORT",
	"server.log_level":  "LOG_LEVEL",
	"handlers.data_dir": "DATA_DIR",
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Optional config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/mcp-worker")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables, e.g. MCP_WORKER_METRICS_PORT
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.log_level", "info")

	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.namespace", "mcp_worker")

	v.SetDefault("worker.poll_interval", "1s")
	v.SetDefault("worker.error_pause", "1s")
	v.SetDefault("worker.health_interval", "30s")
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.shutdown_timeout", "10s")

	v.SetDefault("handlers.data_dir", "/data")
	v.SetDefault("handlers.vector_index_delay", "1s")
	v.SetDefault("handlers.model_cache_delay", "500ms")
}
