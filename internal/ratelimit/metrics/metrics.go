package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts rate limit decisions.
type Metrics struct {
	Rejected prometheus.Counter
	Errors   prometheus.Counter
}

// New registers rate limit metrics with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "sowell_ratelimit_rejected_total",
			Help: "Total number of requests refused by the rate limiter",
		}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Name: "sowell_ratelimit_errors_total",
			Help: "Total number of rate limit checks that failed and let the request through",
		}),
	}
}

func (m *Metrics) IncRejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}

func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.Errors.Inc()
}
