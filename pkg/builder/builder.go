// Package builder edits the schema under construction in a store.
// Every field is normalized and checked before it reaches the store, which
// accepts whatever it is given.
package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/store"
)

var (
	ErrNoField   = errors.New("no such field")
	ErrBadMove   = errors.New("move index out of range")
	ErrEmptyName = errors.New("form name is required")
)

// Editor applies checked edits to a store's builder region.
type Editor struct {
	store *store.Store
}

// New returns an editor over st.
func New(st *store.Store) *Editor {
	return &Editor{store: st}
}

// Schema returns a copy of the schema under construction.
func (e *Editor) Schema() form.Schema {
	return e.store.Builder()
}

// Rename sets the form name.
func (e *Editor) Rename(name string) {
	e.store.SetName(name)
}

// Add checks f and appends it with a new ID, which it returns.
func (e *Editor) Add(f form.Field) (string, error) {
	f = f.Normalize()
	if err := f.Check(); err != nil {
		return "", err
	}
	return e.store.AddField(f), nil
}

// Update checks f and replaces the field with the same ID.
func (e *Editor) Update(f form.Field) error {
	f = f.Normalize()
	if err := f.Check(); err != nil {
		return err
	}
	if !e.store.UpdateField(f) {
		return fmt.Errorf("%w: %q", ErrNoField, f.ID)
	}
	return nil
}

func (e *Editor) Delete(id string) error {
	if !e.store.DeleteField(id) {
		return fmt.Errorf("%w: %q", ErrNoField, id)
	}
	return nil
}

func (e *Editor) Move(from, to int) error {
	if !e.store.MoveField(from, to) {
		return fmt.Errorf("%w: %d -> %d with %d fields", ErrBadMove, from, to, len(e.store.Builder().Fields))
	}
	return nil
}

// Reset clears the builder.
func (e *Editor) Reset() {
	e.store.ResetBuilder()
}

// Load replaces the builder with s. Nothing is loaded when any field fails
// its check or two fields share an ID.
func (e *Editor) Load(s form.Schema) error {
	s = s.Clone()
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		f = f.Normalize()
		if err := f.Check(); err != nil {
			return err
		}
		if f.ID == "" || seen[f.ID] {
			return fmt.Errorf("field %q: id must be present and unique", f.Label)
		}
		seen[f.ID] = true
		s.Fields[i] = f
	}
	e.store.LoadBuilder(s)
	return nil
}

// Ready returns the schema with its name trimmed, or ErrEmptyName when there
// is nothing to save it under.
func (e *Editor) Ready() (form.Schema, error) {
	s := e.store.Builder()
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return form.Schema{}, ErrEmptyName
	}
	return s, nil
}
