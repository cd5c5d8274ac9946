package storage

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendMemory       = "memory"
	BackendFile         = "file"
	BackendSQLite       = "sqlite"
	BackendRedis        = "redis"
	BackendLocalStorage = "localstorage"
)

// Config selects and configures a KV backend.
type Config struct {
	Backend     string `json:"backend" yaml:"backend"`
	Path        string `json:"path" yaml:"path"`                 // file backend
	DSN         string `json:"dsn" yaml:"dsn"`                   // sqlite backend
	RedisURL    string `json:"redis_url" yaml:"redis_url"`       // redis backend, redis://host:port/db
	RedisPrefix string `json:"redis_prefix" yaml:"redis_prefix"` // prepended to every redis key
	Key         string `json:"key" yaml:"key"`                   // key holding the saved-form list
}

// Open builds the backend named by cfg.Backend. logger may be nil.
func Open(cfg Config, logger *zap.Logger) (KV, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendMemory, "":
		return NewMemoryKV(), nil
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file backend: path is required")
		}
		return NewFileKV(cfg.Path, WithFileLogger(logger)), nil
	case BackendSQLite:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("sqlite backend: dsn is required")
		}
		return NewSQLiteKV(cfg.DSN)
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis backend: redis_url is required")
		}
		return NewRedisKV(cfg.RedisURL, cfg.RedisPrefix)
	case BackendLocalStorage:
		return openLocalStorage()
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
