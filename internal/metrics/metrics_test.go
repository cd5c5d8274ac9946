package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/dlovans/formwright/pkg/derive"
	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/formula"
)

func TestOutcome(t *testing.T) {
	_, syntaxErr := formula.Compile("1 +")
	_, refErr := formula.Evaluate("nope", formula.Env{})

	tests := []struct {
		err      error
		expected string
	}{
		{nil, "ok"},
		{derive.ErrNoFormula, "no_formula"},
		{syntaxErr, "syntax_error"},
		{refErr, "reference_error"},
		{fmt.Errorf("wrapped: %w", &formula.Error{Kind: formula.KindType, Pos: -1}), "type_error"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Outcome(tt.err), "outcome of %v", tt.err)
	}
}

func TestRecorderWithEngine(t *testing.T) {
	okBefore := testutil.ToFloat64(FormulaEvaluations.WithLabelValues("ok"))
	synBefore := testutil.ToFloat64(FormulaEvaluations.WithLabelValues("syntax_error"))

	e := derive.New(derive.WithObserver(Recorder{}))
	e.Compute([]form.Field{
		{ID: "a", Label: "A", Type: form.TypeNumber, Derived: &form.DerivedConfig{IsDerived: true, Parents: []string{"x"}, Formula: "1 + 1"}},
		{ID: "b", Label: "B", Type: form.TypeNumber, Derived: &form.DerivedConfig{IsDerived: true, Parents: []string{"x"}, Formula: "1 +"}},
	}, form.Values{})

	assert.Equal(t, okBefore+1, testutil.ToFloat64(FormulaEvaluations.WithLabelValues("ok")))
	assert.Equal(t, synBefore+1, testutil.ToFloat64(FormulaEvaluations.WithLabelValues("syntax_error")))
}

func TestRecorderSettleAndGateway(t *testing.T) {
	passes := testutil.ToFloat64(DerivePasses)
	unsettled := testutil.ToFloat64(UnsettledRuns)
	listErr := testutil.ToFloat64(GatewayOps.WithLabelValues("list", "error"))

	r := Recorder{}
	r.ObserveSettle(3, true)
	r.ObserveSettle(32, false)
	r.ObserveGatewayOp("list", errors.New("disk gone"))
	r.ObserveFormula("x", nil, time.Millisecond)

	assert.Equal(t, passes+35, testutil.ToFloat64(DerivePasses))
	assert.Equal(t, unsettled+1, testutil.ToFloat64(UnsettledRuns))
	assert.Equal(t, listErr+1, testutil.ToFloat64(GatewayOps.WithLabelValues("list", "error")))
}
