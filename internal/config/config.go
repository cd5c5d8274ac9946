// Package config provides configuration for the formwright tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dlovans/formwright/pkg/preview"
	"github.com/dlovans/formwright/pkg/storage"
)

// Config holds all configuration.
type Config struct {
	// Storage selects where saved forms live.
	Storage storage.Config `json:"storage" yaml:"storage"`

	// Log configures the zap logger.
	Log LogConfig `json:"log" yaml:"log"`

	// Preview configures live preview sessions.
	Preview PreviewConfig `json:"preview" yaml:"preview"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is "console" or "json".
	Format string `json:"format" yaml:"format"`
}

// PreviewConfig holds preview session settings.
type PreviewConfig struct {
	// MaxPasses bounds recompute passes per change.
	MaxPasses int `json:"max_passes" yaml:"max_passes"`
}

// MetricsConfig holds metrics endpoint settings.
type MetricsConfig struct {
	// Addr is the listen address of /metrics; empty disables it.
	Addr string `json:"addr" yaml:"addr"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: storage.Config{
			Backend: storage.BackendFile,
			Path:    DefaultStoragePath(),
			Key:     storage.DefaultKey,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Preview: PreviewConfig{
			MaxPasses: preview.DefaultMaxPasses,
		},
	}
}

// DefaultStoragePath returns the per-user localStorage file, falling back to
// the working directory when no home directory is known.
func DefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "formwright.json"
	}
	return filepath.Join(home, ".formwright", "localStorage.json")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case storage.BackendMemory:
	case storage.BackendFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required when backend is file")
		}
	case storage.BackendSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when backend is sqlite")
		}
	case storage.BackendRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required when backend is redis")
		}
	case storage.BackendLocalStorage:
	default:
		return fmt.Errorf("invalid storage backend: %s (must be memory, file, sqlite, redis, or localstorage)", c.Storage.Backend)
	}

	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be console or json)", c.Log.Format)
	}

	if c.Preview.MaxPasses < 1 || c.Preview.MaxPasses > 10000 {
		return fmt.Errorf("preview.max_passes must be between 1 and 10000, got %d", c.Preview.MaxPasses)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv overrides cfg from environment variables.
// Environment variables use the FORMWRIGHT_ prefix.
func LoadFromEnv(cfg *Config) {
	// Storage
	if v := os.Getenv("FORMWRIGHT_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("FORMWRIGHT_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("FORMWRIGHT_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("FORMWRIGHT_REDIS_URL"); v != "" {
		cfg.Storage.RedisURL = v
	}
	if v := os.Getenv("FORMWRIGHT_REDIS_PREFIX"); v != "" {
		cfg.Storage.RedisPrefix = v
	}
	if v := os.Getenv("FORMWRIGHT_STORAGE_KEY"); v != "" {
		cfg.Storage.Key = v
	}

	// Logging
	if v := os.Getenv("FORMWRIGHT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("FORMWRIGHT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}

	if v := os.Getenv("FORMWRIGHT_MAX_PASSES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Preview.MaxPasses = n
		}
	}
	if v := os.Getenv("FORMWRIGHT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// Load reads path when it is non-empty, otherwise starts from the defaults,
// then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	LoadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
