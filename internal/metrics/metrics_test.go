package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAction("advance", ResultSuccess)
	m.ObserveAction("advance", ResultSuccess)
	m.ObserveAction("complete", ResultFailure)
	m.ObserveConfirmation(true)
	m.ObserveConfirmation(false)
	m.ObservePivot(true)
	m.ObservePivot(false)
	m.ObserveSessionStarted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WorkflowActionsTotal.WithLabelValues("advance", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkflowActionsTotal.WithLabelValues("complete", ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfirmationsTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfirmationsTotal.WithLabelValues(ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PivotsTriggeredTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStartedTotal))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAction("start", ResultSuccess)
		m.ObserveConfirmation(true)
		m.ObservePivot(true)
		m.ObserveSessionStarted()
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestDefault_Idempotent(t *testing.T) {
	assert.Same(t, Default(), Default())
}
