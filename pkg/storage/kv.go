// Package storage persists saved forms in a browser-localStorage-shaped
// key/value store. A Gateway reads and writes the saved-form list as one JSON
// document under a single key; KV backends decide where that document lives.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBackend wraps I/O failures of a KV backend (disk, database, network).
// Malformed stored data is not a backend error.
var ErrBackend = errors.New("storage backend failure")

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// KV is a string key/value store with localStorage semantics: a missing key
// is not an error.
type KV interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Close releases the backend's resources.
	Close() error
}

func backendErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", ErrBackend, op, key, err)
}

// MemoryKV keeps values in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Close() error { return nil }
