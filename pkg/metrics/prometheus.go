package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SchedulesClassified *prometheus.CounterVec
	ReconcileDuration   prometheus.Histogram
	AssignmentsApplied  prometheus.Counter
	AssignmentErrors    *prometheus.CounterVec
	TokenRefreshes      *prometheus.CounterVec
	InFlightCalls       prometheus.Gauge
	RemoteCallDuration  prometheus.Histogram
	BatchFlushes        *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SchedulesClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_classified_total",
			Help:      "Schedule records classified, by status",
		}, []string{"status"}),
		ReconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Time taken by a reconciliation pass",
			Buckets:   prometheus.DefBuckets,
		}),
		AssignmentsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_applied_total",
			Help:      "Meetings successfully moved to a new host",
		}),
		AssignmentErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_errors_total",
			Help:      "Failed assignments, by kind",
		}, []string{"kind"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Credential refresh attempts, by result",
		}, []string{"result"}),
		InFlightCalls: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_calls_in_flight",
			Help:      "Conferencing API calls currently in flight",
		}),
		RemoteCallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Latency of conferencing API calls",
			Buckets:   prometheus.DefBuckets,
		}),
		BatchFlushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_flushes_total",
			Help:      "Batched host-change writes, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) Classified(status string) {
	if m == nil {
		return
	}
	m.SchedulesClassified.WithLabelValues(status).Inc()
}

func (m *Metrics) ReconcileFinished(started time.Time) {
	if m == nil {
		return
	}
	m.ReconcileDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) AssignmentApplied() {
	if m == nil {
		return
	}
	m.AssignmentsApplied.Inc()
}

func (m *Metrics) AssignmentFailed(kind string) {
	if m == nil {
		return
	}
	m.AssignmentErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) TokenRefreshed(result string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

// CallStarted marks a remote call in flight and returns the func that ends it
func (m *Metrics) CallStarted() func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	m.InFlightCalls.Inc()
	return func() {
		m.InFlightCalls.Dec()
		m.RemoteCallDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) BatchFlushed(result string) {
	if m == nil {
		return
	}
	m.BatchFlushes.WithLabelValues(result).Inc()
}
