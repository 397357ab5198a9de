package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit delivery.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	Failures        *prometheus.CounterVec
	PublishDuration prometheus.Histogram
}

// NewMetrics registers audit metrics with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Emitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sowell_audit_events_emitted_total",
			Help: "Total number of audit events delivered, by event type",
		}, []string{"event"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sowell_audit_events_failed_total",
			Help: "Total number of audit events that could not be delivered, by event type",
		}, []string{"event"}),
		PublishDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sowell_audit_publish_duration_seconds",
			Help:    "Time taken to deliver one audit event",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

func (m *Metrics) observe(event EventType, d time.Duration) {
	if m == nil {
		return
	}
	m.Emitted.WithLabelValues(string(event)).Inc()
	m.PublishDuration.Observe(d.Seconds())
}

func (m *Metrics) incFailures(event EventType) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(string(event)).Inc()
}
