// Package metrics holds the Prometheus metrics for the design workflow.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "designflow"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Metrics holds Prometheus metrics for the workflow engine.
// A nil *Metrics is valid and records nothing.
//
// Metrics:
//   - designflow_workflow_actions_total{action,result}
//   - designflow_confirmations_total{result}
//   - designflow_pivots_triggered_total
//   - designflow_sessions_started_total
type Metrics struct {
	WorkflowActionsTotal *prometheus.CounterVec
	ConfirmationsTotal   *prometheus.CounterVec
	PivotsTriggeredTotal prometheus.Counter
	SessionsStartedTotal prometheus.Counter
}

// New creates metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WorkflowActionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_actions_total",
				Help:      "Total number of workflow actions by action and result",
			},
			[]string{"action", "result"},
		),
		ConfirmationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "confirmations_total",
				Help:      "Total number of phase confirmations by result",
			},
			[]string{"result"},
		),
		PivotsTriggeredTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pivots_triggered_total",
			Help:      "Total number of pivot evaluations that recommended a pivot",
		}),
		SessionsStartedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of design sessions started",
		}),
	}
}

// Default returns metrics registered on the default registerer. Safe to
// call more than once.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// ObserveAction counts one workflow action.
func (m *Metrics) ObserveAction(action, result string) {
	if m == nil {
		return
	}
	m.WorkflowActionsTotal.WithLabelValues(action, result).Inc()
}

// ObserveConfirmation counts one confirmation verdict.
func (m *Metrics) ObserveConfirmation(passed bool) {
	if m == nil {
		return
	}
	result := ResultFailure
	if passed {
		result = ResultSuccess
	}
	m.ConfirmationsTotal.WithLabelValues(result).Inc()
}

// ObservePivot counts a triggered pivot.
func (m *Metrics) ObservePivot(triggered bool) {
	if m == nil || !triggered {
		return
	}
	m.PivotsTriggeredTotal.Inc()
}

// ObserveSessionStarted counts a started session.
func (m *Metrics) ObserveSessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStartedTotal.Inc()
}
