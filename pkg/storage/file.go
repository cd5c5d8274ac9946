package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileKV stores every key in one JSON object file, the on-disk analogue of a
// browser origin's localStorage. Writes go to a temp file that is renamed over
// the existing one.
//
// A file that is not a JSON object reads as empty. It is left untouched until
// the next Set, which first moves it aside to <path>.corrupt-<unix nanos>.
type FileKV struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	clock  func() time.Time
}

// FileOption configures a FileKV.
type FileOption func(*FileKV)

// WithFileLogger sets the logger used to report unreadable files.
func WithFileLogger(l *zap.Logger) FileOption {
	return func(f *FileKV) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFileKV returns a store backed by path. The file and its directory are
// created on first write.
func NewFileKV(path string, opts ...FileOption) *FileKV {
	f := &FileKV{path: path, logger: zap.NewNop(), clock: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the backing file.
func (f *FileKV) Path() string { return f.path }

// load reads the file. corrupt is true when it exists but does not parse.
func (f *FileKV) load() (data map[string]string, corrupt bool, err error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, false, nil
		}
		return nil, false, err
	}
	data = map[string]string{}
	if len(b) == 0 {
		return data, false, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		f.logger.Warn("ignoring unreadable storage file",
			zap.String("path", f.path),
			zap.Int("bytes", len(b)),
			zap.Error(err),
		)
		return map[string]string{}, true, nil
	}
	return data, false, nil
}

func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, _, err := f.load()
	if err != nil {
		return "", false, backendErr("get", key, err)
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *FileKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, corrupt, err := f.load()
	if err != nil {
		return backendErr("set", key, err)
	}
	if corrupt {
		backup := fmt.Sprintf("%s.corrupt-%d", f.path, f.clock().UnixNano())
		if err := os.Rename(f.path, backup); err != nil {
			return backendErr("set", key, err)
		}
		f.logger.Warn("moved unreadable storage file aside",
			zap.String("path", f.path),
			zap.String("backup", backup),
		)
	}
	data[key] = value
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return backendErr("set", key, err)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return backendErr("set", key, err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return backendErr("set", key, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return backendErr("set", key, err)
	}
	return nil
}

func (f *FileKV) Close() error { return nil }
