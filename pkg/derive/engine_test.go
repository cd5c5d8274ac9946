package derive

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/formula"
)

func derived(id, label, formula string, parents ...string) form.Field {
	return form.Field{
		ID:    id,
		Label: label,
		Type:  form.TypeText,
		Derived: &form.DerivedConfig{
			IsDerived: true,
			Parents:   parents,
			Formula:   formula,
		},
	}
}

func areaFields() []form.Field {
	return []form.Field{
		{ID: "a", Label: "Width", Type: form.TypeNumber, DefaultValue: "4"},
		{ID: "b", Label: "Height", Type: form.TypeNumber, DefaultValue: "5"},
		derived("c", "Area", "Number(byId.a)*Number(byId.b)", "a", "b"),
	}
}

func TestComputeByID(t *testing.T) {
	got := Compute(areaFields(), form.Values{"a": "4", "b": "5"})
	assert.Equal(t, form.Values{"c": "20"}, got)
}

func TestComputeByLabel(t *testing.T) {
	fields := areaFields()
	fields[2].Derived.Formula = "byLabel.Width * byLabel.Height + ' sq'"

	got := Compute(fields, form.Values{"a": "3", "b": "7"})
	assert.Equal(t, form.Values{"c": "21 sq"}, got)
}

func TestComputeSkipsNonDerived(t *testing.T) {
	fields := areaFields()
	// A derived config that is switched off does not count
	fields[0].Derived = &form.DerivedConfig{IsDerived: false, Formula: "1"}

	got := Compute(fields, form.Values{"a": "4", "b": "5"})
	assert.NotContains(t, got, "a")
	assert.NotContains(t, got, "b")
	assert.Contains(t, got, "c")
}

func TestComputeFailOpen(t *testing.T) {
	tests := []struct {
		name    string
		formula string
	}{
		{"type error", "byId.nonexistent.value"},
		{"reference error", "window.alert(1)"},
		{"syntax error", "byId.a +"},
		{"empty formula", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := areaFields()
			fields[2].Derived.Formula = tt.formula

			var got form.Values
			require.NotPanics(t, func() {
				got = Compute(fields, form.Values{"a": "4", "b": "5"})
			})
			assert.Equal(t, form.Values{"c": ""}, got)
		})
	}
}

func TestComputeBrokenFormulaDoesNotBreakOthers(t *testing.T) {
	fields := append(areaFields(), derived("d", "Broken", "byId.nope.x", "a"))

	got := Compute(fields, form.Values{"a": "2", "b": "3"})
	assert.Equal(t, form.Values{"c": "6", "d": ""}, got)
}

func TestComputeToleratesMissingParents(t *testing.T) {
	fields := []form.Field{derived("x", "Constant", "40 + 2")}

	got := Compute(fields, nil)
	assert.Equal(t, form.Values{"x": "42"}, got)
}

func TestComputeMissingValuesReadEmpty(t *testing.T) {
	fields := []form.Field{
		{ID: "a", Label: "A", Type: form.TypeText},
		derived("b", "B", "byId.a === '' ? 'blank' : byId.a", "a"),
	}

	got := Compute(fields, form.Values{})
	assert.Equal(t, "blank", got["b"])
}

func TestComputeDuplicateLabelLastWins(t *testing.T) {
	fields := []form.Field{
		{ID: "first", Label: "Amount", Type: form.TypeNumber},
		{ID: "second", Label: "Amount", Type: form.TypeNumber},
		derived("total", "Total", "byLabel.Amount", "first", "second"),
	}

	got := Compute(fields, form.Values{"first": "1", "second": "2"})
	assert.Equal(t, "2", got["total"])
}

func TestComputeUsesSnapshot(t *testing.T) {
	// c depends on b, which depends on a. One call only moves one hop.
	fields := []form.Field{
		{ID: "a", Label: "A", Type: form.TypeNumber},
		derived("b", "B", "Number(byId.a) + 1", "a"),
		derived("c", "C", "Number(byId.b) * 10", "b"),
	}
	values := form.Values{"a": "1", "b": "", "c": ""}

	first := Compute(fields, values)
	assert.Equal(t, form.Values{"b": "2", "c": "0"}, first)

	// Merge and run again: the chain advances one more hop
	for k, v := range first {
		values[k] = v
	}
	second := Compute(fields, values)
	assert.Equal(t, form.Values{"b": "2", "c": "20"}, second)
}

func TestComputeDoesNotMutateInputs(t *testing.T) {
	fields := areaFields()
	values := form.Values{"a": "4", "b": "5"}

	Compute(fields, values)
	assert.Equal(t, form.Values{"a": "4", "b": "5"}, values)
	assert.Equal(t, "Number(byId.a)*Number(byId.b)", fields[2].Derived.Formula)
}

func TestComputeCycleLagsOnePass(t *testing.T) {
	fields := []form.Field{
		derived("a", "A", "Number(byId.b) + 1", "b"),
		derived("b", "B", "Number(byId.a) + 1", "a"),
	}

	got := Compute(fields, form.Values{"a": "0", "b": "0"})
	assert.Equal(t, form.Values{"a": "1", "b": "1"}, got)

	got = Compute(fields, got)
	assert.Equal(t, form.Values{"a": "2", "b": "2"}, got)
}

func TestComputeWithClock(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC) }
	engine := New(WithClock(clock))
	fields := []form.Field{
		{ID: "dob", Label: "Start", Type: form.TypeDate},
		derived("days", "Days", "Date.diffDays(byId.dob, Date.today())", "dob"),
	}

	got := engine.Compute(fields, form.Values{"dob": "2025-06-01"})
	assert.Equal(t, "14", got["days"])
}

type recordingObserver struct {
	ids  []string
	errs []error
}

func (r *recordingObserver) ObserveFormula(fieldID string, err error, _ time.Duration) {
	r.ids = append(r.ids, fieldID)
	r.errs = append(r.errs, err)
}

func TestFailuresAreReported(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	obs := &recordingObserver{}
	engine := New(WithLogger(zap.New(core)), WithObserver(obs))

	fields := append(areaFields(),
		derived("d", "Broken", "byId.nonexistent.value", "a"),
		derived("e", "Blank", "", "a"),
	)
	got := engine.Compute(fields, form.Values{"a": "4", "b": "5"})
	assert.Equal(t, form.Values{"c": "20", "d": "", "e": ""}, got)

	require.Equal(t, []string{"c", "d", "e"}, obs.ids)
	assert.NoError(t, obs.errs[0])
	assert.True(t, errors.Is(obs.errs[1], &formula.Error{Kind: formula.KindType}))
	assert.ErrorIs(t, obs.errs[2], ErrNoFormula)

	entries := logs.FilterMessage("derived formula failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "d", entries[0].ContextMap()["field_id"])
	assert.Equal(t, "e", entries[1].ContextMap()["field_id"])
}

func TestVerify(t *testing.T) {
	fields := areaFields()

	assert.Empty(t, Verify(fields, form.Values{"a": "4", "b": "5", "c": "20"}))

	mismatches := Verify(fields, form.Values{"a": "4", "b": "5", "c": "21"})
	require.Len(t, mismatches, 1)
	assert.Equal(t, Mismatch{FieldID: "c", Stored: "21", Computed: "20"}, mismatches[0])
}

func TestSettle(t *testing.T) {
	t.Run("chain converges", func(t *testing.T) {
		fields := []form.Field{
			{ID: "a", Label: "A", Type: form.TypeNumber},
			derived("b", "B", "Number(byId.a) + 1", "a"),
			derived("c", "C", "Number(byId.b) * 10", "b"),
		}
		values := form.Values{"a": "1", "b": "", "c": ""}

		settled, passes, ok := New().Settle(fields, values, 10)
		assert.True(t, ok)
		assert.Equal(t, 3, passes)
		assert.Equal(t, form.Values{"a": "1", "b": "2", "c": "20"}, settled)
		assert.Equal(t, "", values["b"], "input must not be mutated")
	})

	t.Run("cycle stops at the bound", func(t *testing.T) {
		fields := []form.Field{
			derived("a", "A", "Number(byId.b) + 1", "b"),
			derived("b", "B", "Number(byId.a) + 1", "a"),
		}

		settled, passes, ok := New().Settle(fields, form.Values{}, 5)
		assert.False(t, ok)
		assert.Equal(t, 5, passes)
		assert.Equal(t, form.Values{"a": "5", "b": "5"}, settled)
	})
}
