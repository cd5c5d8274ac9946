package derive

import (
	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/formula"
)

// buildContext assembles the read-only scope a formula evaluates in:
// byId and byLabel views of the value map plus the builtin utilities.
// Fields missing from values read as "". On duplicate labels the later
// field wins.
func (e *Engine) buildContext(fields []form.Field, values form.Values) formula.Env {
	byID := make(formula.Object, len(fields))
	byLabel := make(formula.Object, len(fields))

	for _, f := range fields {
		v := values[f.ID]
		byID[f.ID] = v
		byLabel[f.Label] = v
	}

	scope := formula.Builtins(e.clock)
	scope[formula.ScopeByID] = byID
	scope[formula.ScopeByLabel] = byLabel
	return scope
}
