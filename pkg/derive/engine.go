// Package derive computes the values of derived fields from their formulas.
//
// One call to Compute is one fixed-point iteration: every derived field is
// evaluated against the same snapshot of the value map, so a chain
// A <- B <- C settles one hop per call. Cycles are not detected; each pass
// simply reads whatever the value map held when it started.
package derive

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/formula"
)

// ErrNoFormula is reported for a derived field whose formula is blank.
var ErrNoFormula = errors.New("derived field has no formula")

// Observer receives the outcome of every formula evaluation.
// err is nil on success.
type Observer interface {
	ObserveFormula(fieldID string, err error, elapsed time.Duration)
}

// Engine evaluates derived fields. The zero value is not usable; call New.
type Engine struct {
	logger   *zap.Logger
	clock    func() time.Time
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the sink for formula failures.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock fixes the time source exposed to formulas through Date.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithObserver registers a callback for evaluation outcomes (metrics).
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New creates an engine. Without options it logs nowhere and uses time.Now.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: zap.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Compute evaluates every derived field with a default engine.
func Compute(fields []form.Field, values form.Values) form.Values {
	return defaultEngine.Compute(fields, values)
}

// Compute returns the freshly evaluated value of every derived field.
// Non-derived fields are absent from the result; callers merge it into
// their value map rather than replace the map with it.
// A failing formula yields "" for its field and never aborts the batch.
func (e *Engine) Compute(fields []form.Field, values form.Values) form.Values {
	result := make(form.Values)
	scope := e.buildContext(fields, values)

	for _, f := range fields {
		if !f.IsDerived() {
			continue
		}
		result[f.ID] = e.evaluate(f, scope)
	}
	return result
}

// evaluate runs one field's formula, containing every failure.
func (e *Engine) evaluate(f form.Field, scope formula.Scope) string {
	start := time.Now()
	value, err := e.run(f.Derived.Formula, scope)
	if e.observer != nil {
		e.observer.ObserveFormula(f.ID, err, time.Since(start))
	}
	if err != nil {
		e.logger.Warn("derived formula failed",
			zap.String("field_id", f.ID),
			zap.String("label", f.Label),
			zap.String("formula", f.Derived.Formula),
			zap.Error(err),
		)
		return ""
	}
	return value
}

func (e *Engine) run(source string, scope formula.Scope) (value string, err error) {
	if strings.TrimSpace(source) == "" {
		return "", ErrNoFormula
	}
	// A panicking builtin fails only this field.
	defer func() {
		if r := recover(); r != nil {
			value, err = "", &formula.Error{Kind: formula.KindType, Pos: -1, Msg: "formula panicked"}
			e.logger.Error("derived formula panicked", zap.Any("panic", r))
		}
	}()
	out, err := formula.Evaluate(source, scope)
	if err != nil {
		return "", err
	}
	return formula.Display(out), nil
}
