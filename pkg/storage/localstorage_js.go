//go:build js && wasm

package storage

import (
	"context"
	"fmt"
	"syscall/js"
)

// LocalStorageKV is backed by the browser's window.localStorage.
type LocalStorageKV struct {
	ls js.Value
}

// NewLocalStorageKV binds to window.localStorage.
func NewLocalStorageKV() (*LocalStorageKV, error) {
	ls := js.Global().Get("localStorage")
	if ls.IsUndefined() || ls.IsNull() {
		return nil, fmt.Errorf("%w: localStorage is not available", ErrBackend)
	}
	return &LocalStorageKV{ls: ls}, nil
}

func (l *LocalStorageKV) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = backendErr("get", key, fmt.Errorf("%v", r))
		}
	}()
	v := l.ls.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// Set may fail when the origin's quota is exhausted; the browser throws,
// which syscall/js surfaces as a panic.
func (l *LocalStorageKV) Set(ctx context.Context, key, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = backendErr("set", key, fmt.Errorf("%v", r))
		}
	}()
	l.ls.Call("setItem", key, value)
	return nil
}

func (l *LocalStorageKV) Close() error { return nil }
