// Package metrics registers the agent's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors bumped by the runner and the function-call
// handler. The serve path exposes them on /metrics.
type Metrics struct {
	// FunctionCalls counts module function invocations.
	// Labels: function, status (success|error).
	FunctionCalls *prometheus.CounterVec

	// StateResults counts per-entry apply outcomes.
	// Labels: state, status (ok|pending|failed).
	StateResults *prometheus.CounterVec

	// Runs counts apply runs.
	// Labels: mode (apply|dry_run), status (ok|failed).
	Runs *prometheus.CounterVec

	// RunDuration measures apply run wall time in seconds.
	RunDuration prometheus.Histogram
}

// New registers the collectors with reg. The agent passes the default
// registerer; tests pass a fresh registry for isolation.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FunctionCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "driftd",
				Name:      "function_calls_total",
				Help:      "Module function invocations by function and status.",
			},
			[]string{"function", "status"},
		),
		StateResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "driftd",
				Name:      "state_results_total",
				Help:      "State apply results by state and status.",
			},
			[]string{"state", "status"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "driftd",
				Name:      "runs_total",
				Help:      "Apply runs by mode and status.",
			},
			[]string{"mode", "status"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "driftd",
				Name:      "run_duration_seconds",
				Help:      "Apply run duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// RecordFunctionCall counts one function invocation.
func (m *Metrics) RecordFunctionCall(function string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.FunctionCalls.WithLabelValues(function, status).Inc()
}

// RecordStateResult counts one state apply outcome.
func (m *Metrics) RecordStateResult(state, status string) {
	m.StateResults.WithLabelValues(state, status).Inc()
}

// RecordRun counts a finished run and observes its duration.
func (m *Metrics) RecordRun(dryRun, failed bool, seconds float64) {
	mode := "apply"
	if dryRun {
		mode = "dry_run"
	}
	status := "ok"
	if failed {
		status = "failed"
	}
	m.Runs.WithLabelValues(mode, status).Inc()
	m.RunDuration.Observe(seconds)
}
