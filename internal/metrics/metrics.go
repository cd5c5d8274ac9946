// Package metrics exposes Prometheus counters for formula evaluation,
// recompute passes and saved-form storage.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dlovans/formwright/pkg/derive"
	"github.com/dlovans/formwright/pkg/formula"
)

var (
	FormulaEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formwright_formula_evaluations_total",
			Help: "Derived formula evaluations by outcome",
		},
		[]string{"outcome"},
	)
	FormulaLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formwright_formula_eval_seconds",
			Help:    "Latency of one derived formula evaluation",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
	)
	DerivePasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "formwright_derive_passes_total",
			Help: "Recompute passes run by preview sessions",
		},
	)
	UnsettledRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "formwright_derive_unsettled_total",
			Help: "Preview recompute runs stopped by the pass bound",
		},
	)
	GatewayOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formwright_gateway_ops_total",
			Help: "Saved-form storage operations by outcome",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		FormulaEvaluations,
		FormulaLatency,
		DerivePasses,
		UnsettledRuns,
		GatewayOps,
	)
}

// Outcome classifies a formula evaluation result as a label value.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, derive.ErrNoFormula) {
		return "no_formula"
	}
	var ferr *formula.Error
	if errors.As(err, &ferr) {
		switch ferr.Kind {
		case formula.KindSyntax:
			return "syntax_error"
		case formula.KindReference:
			return "reference_error"
		case formula.KindType:
			return "type_error"
		}
	}
	return "error"
}

// Recorder feeds engine, session and gateway callbacks into the package
// counters.
type Recorder struct{}

func (Recorder) ObserveFormula(fieldID string, err error, elapsed time.Duration) {
	FormulaEvaluations.WithLabelValues(Outcome(err)).Inc()
	FormulaLatency.Observe(elapsed.Seconds())
}

func (Recorder) ObserveSettle(passes int, converged bool) {
	DerivePasses.Add(float64(passes))
	if !converged {
		UnsettledRuns.Inc()
	}
}

func (Recorder) ObserveGatewayOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	GatewayOps.WithLabelValues(op, outcome).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
