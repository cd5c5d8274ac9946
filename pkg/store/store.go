// Package store holds the mutable state of the form builder.
//
// A Store owns two independent regions: the schema under construction in the
// builder, and the preview session (its fields and value map). All mutation
// goes through Store methods; readers get copies. Listeners are notified after
// the store's lock is released, so a listener may call back into the store.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dlovans/formwright/pkg/form"
)

// Region identifies which part of the state a change touched.
type Region int

const (
	RegionBuilder Region = iota
	RegionPreviewFields
	RegionPreviewValues
)

func (r Region) String() string {
	switch r {
	case RegionBuilder:
		return "builder"
	case RegionPreviewFields:
		return "preview_fields"
	case RegionPreviewValues:
		return "preview_values"
	}
	return "unknown"
}

// Change describes a completed mutation.
type Change struct {
	Region Region
	Op     string   // Operation name, e.g. "set_value"
	IDs    []string // Field IDs affected, when meaningful
}

// Listener is called once per completed mutation.
type Listener func(Change)

// Store is the single writer for builder and preview state.
type Store struct {
	mu sync.Mutex

	builder form.Schema

	previewFields []form.Field
	values        form.Values

	newID     func() string
	listeners map[int]Listener
	nextSub   int
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the uuid-based field ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		values:    form.Values{},
		newID:     uuid.NewString,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// commit releases the lock and then notifies listeners of c.
// Callers must hold s.mu.
func (s *Store) commit(c Change) {
	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextSub; i++ {
		if l, ok := s.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()
	for _, l := range listeners {
		l(c)
	}
}
