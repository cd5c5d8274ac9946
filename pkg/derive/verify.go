package derive

import (
	"github.com/dlovans/formwright/pkg/form"
)

// Mismatch is a derived field whose stored value differs from a fresh pass.
type Mismatch struct {
	FieldID  string `json:"field_id"`
	Stored   string `json:"stored"`
	Computed string `json:"computed"`
}

// Verify checks that values is settled: running one more pass over it would
// not change any derived value. It returns every field that would change,
// in schema order. An empty result means the map is at a fixed point.
//
// This is the auditor counterpart to Compute; it proves a submitted value map
// was produced by the formulas rather than typed in.
func (e *Engine) Verify(fields []form.Field, values form.Values) []Mismatch {
	computed := e.Compute(fields, values)

	var out []Mismatch
	for _, f := range fields {
		want, ok := computed[f.ID]
		if !ok {
			continue
		}
		if got := values[f.ID]; got != want {
			out = append(out, Mismatch{FieldID: f.ID, Stored: got, Computed: want})
		}
	}
	return out
}

// Verify audits values with a default engine.
func Verify(fields []form.Field, values form.Values) []Mismatch {
	return defaultEngine.Verify(fields, values)
}

// Settle repeats passes, merging each result into a copy of values, until a
// pass changes nothing or maxPasses have run. It reports the settled map, the
// number of passes made and whether a fixed point was reached. A cyclic
// formula set may never converge; maxPasses bounds it.
func (e *Engine) Settle(fields []form.Field, values form.Values, maxPasses int) (form.Values, int, bool) {
	current := values.Clone()
	for pass := 1; pass <= maxPasses; pass++ {
		changed := false
		for id, v := range e.Compute(fields, current) {
			if old, ok := current[id]; !ok || old != v {
				current[id] = v
				changed = true
			}
		}
		if !changed {
			return current, pass, true
		}
	}
	return current, maxPasses, false
}
