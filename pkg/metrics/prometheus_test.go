package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.Classified("assigned")
	m.Classified("assigned")
	m.AssignmentApplied()
	m.AssignmentFailed("remote")
	m.TokenRefreshed("success")
	m.BatchFlushed("error")
	m.ReconcileFinished(time.Now())

	done := m.CallStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlightCalls))
	done()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SchedulesClassified.WithLabelValues("assigned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssignmentsApplied))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssignmentErrors.WithLabelValues("remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchFlushes.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightCalls))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Classified("assigned")
		m.AssignmentApplied()
		m.AssignmentFailed("remote")
		m.TokenRefreshed("success")
		m.BatchFlushed("ok")
		m.ReconcileFinished(time.Now())
		m.CallStarted()()
	})
}
