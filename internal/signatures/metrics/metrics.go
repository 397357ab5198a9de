package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for signature verification.
type Metrics struct {
	Verified       *prometheus.CounterVec
	Overwritten    prometheus.Counter
	VerifyDuration prometheus.Histogram
}

// New registers verification metrics with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sowell_signatures_verified_total",
			Help: "Total number of sheet lines recorded, by match outcome",
		}, []string{"status"}),
		Overwritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "sowell_signatures_overwritten_total",
			Help: "Total number of verifications that replaced an earlier entry for the same line",
		}),
		VerifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sowell_signature_verify_duration_seconds",
			Help:    "Duration of signature verification",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveVerified records one recorded line.
func (m *Metrics) ObserveVerified(status string, overwritten bool, start time.Time) {
	if m == nil {
		return
	}
	m.Verified.WithLabelValues(status).Inc()
	if overwritten {
		m.Overwritten.Inc()
	}
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}
