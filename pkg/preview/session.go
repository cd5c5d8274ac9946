// Package preview runs a live form: it keeps derived fields in step with
// user input and gates submission on validation.
//
// A Session subscribes to a store. Every change to the preview fields or
// values triggers a pass: the derive engine runs over a snapshot and its
// output is merged back. A merge that changes something triggers the next
// pass, so a chain of derived fields settles one hop per pass. Passes stop at
// a fixed point or after MaxPasses, which contains cyclic formulas that never
// settle.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dlovans/formwright/pkg/derive"
	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/storage"
	"github.com/dlovans/formwright/pkg/store"
	"github.com/dlovans/formwright/pkg/validate"
)

// DefaultMaxPasses bounds consecutive recompute passes per trigger.
const DefaultMaxPasses = 32

var (
	ErrUnknownField = errors.New("unknown field")
	ErrReadOnly     = errors.New("derived field is read-only")
)

// Observer receives the outcome of every settle run.
type Observer interface {
	ObserveSettle(passes int, converged bool)
}

// Session is one live preview bound to a store.
type Session struct {
	store     *store.Store
	engine    *derive.Engine
	logger    *zap.Logger
	maxPasses int
	observer  Observer

	mu      sync.Mutex
	running bool
	pending bool
	last    int

	unsubscribe func()
}

// Option configures a Session.
type Option func(*Session)

func WithEngine(e *derive.Engine) Option {
	return func(s *Session) {
		if e != nil {
			s.engine = e
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxPasses overrides DefaultMaxPasses. Values below 1 are ignored.
func WithMaxPasses(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxPasses = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// New binds a session to st. Call Close to detach it.
func New(st *store.Store, opts ...Option) *Session {
	s := &Session{
		store:     st,
		engine:    derive.New(),
		logger:    zap.NewNop(),
		maxPasses: DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = st.Subscribe(s.onChange)
	return s
}

// Close stops reacting to store changes.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) onChange(c store.Change) {
	if c.Region == store.RegionBuilder {
		return
	}
	s.settle()
}

// settle runs passes until a merge changes nothing. A change arriving while a
// run is in progress (including the run's own merges) marks it pending and is
// picked up by the running loop.
func (s *Session) settle() {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	passes := 0
	converged := false
	for {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()

		fields, values := s.store.Snapshot()
		s.store.MergeValues(s.engine.Compute(fields, values))
		passes++

		s.mu.Lock()
		more := s.pending
		s.mu.Unlock()
		if !more {
			converged = true
			break
		}
		if passes >= s.maxPasses {
			break
		}
	}

	s.mu.Lock()
	s.running = false
	s.pending = false
	s.last = passes
	s.mu.Unlock()

	if !converged {
		s.logger.Warn("derived values did not settle",
			zap.Int("passes", passes),
			zap.Int("max_passes", s.maxPasses),
		)
	}
	if s.observer != nil {
		s.observer.ObserveSettle(passes, converged)
	}
}

// LastPasses reports how many passes the most recent settle run made.
func (s *Session) LastPasses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Open starts a preview of fields, seeding defaults and computing derived
// values.
func (s *Session) Open(fields []form.Field) {
	s.store.LoadPreview(fields)
}

// OpenBuilder previews the schema currently in the builder.
func (s *Session) OpenBuilder() {
	s.Open(s.store.Builder().Fields)
}

// OpenSaved previews the saved form with the given ID. An unknown ID opens an
// empty preview and reports found=false.
func (s *Session) OpenSaved(ctx context.Context, g *storage.Gateway, id string) (found bool, err error) {
	rec, ok, err := g.Find(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Info("saved form not found", zap.String("id", id))
		s.Reset()
		return false, nil
	}
	s.Open(rec.Fields)
	return true, nil
}

// Reset ends the preview: no fields, no values.
func (s *Session) Reset() {
	s.store.ResetPreview()
}

// Fields returns the fields being previewed.
func (s *Session) Fields() []form.Field {
	return s.store.PreviewFields()
}

// Set records user input for a non-derived field.
func (s *Session) Set(id, value string) error {
	fields := s.store.PreviewFields()
	i := form.IndexOf(fields, id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	if fields[i].IsDerived() {
		return fmt.Errorf("%w: %q", ErrReadOnly, fields[i].Label)
	}
	s.store.SetValue(id, value)
	return nil
}

// Values returns the current value map.
func (s *Session) Values() form.Values {
	return s.store.Values()
}

// Errors returns the validation messages of every field.
func (s *Session) Errors() map[string][]string {
	fields, values := s.store.Snapshot()
	return validate.All(fields, values)
}

// SubmitResult is the outcome of a submit attempt.
type SubmitResult struct {
	Accepted  bool
	Violation validate.Violation // First failing rule when not accepted
	Values    form.Values        // Submitted values when accepted
}

// Submit checks every field in schema order and stops at the first
// violation. Nothing is persisted.
func (s *Session) Submit() SubmitResult {
	fields, values := s.store.Snapshot()
	if v, found := validate.First(fields, values); found {
		s.logger.Info("submit rejected",
			zap.String("field_id", v.FieldID),
			zap.String("reason", v.Message),
		)
		return SubmitResult{Violation: v}
	}
	s.logger.Info("form submitted", zap.Int("fields", len(values)))
	return SubmitResult{Accepted: true, Values: values}
}
