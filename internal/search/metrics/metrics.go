package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the matching engine.
type Metrics struct {
	SearchDuration *prometheus.HistogramVec
	ResultSize     *prometheus.HistogramVec
	Timeouts       *prometheus.CounterVec
	Rejected       prometheus.Counter
}

// New registers matching-engine metrics with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sowell_search_duration_seconds",
			Help:    "Duration of voter searches by mode",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"mode"}),
		ResultSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sowell_search_results",
			Help:    "Number of candidates returned per search",
			Buckets: []float64{0, 1, 5, 10, 20, 40, 50},
		}, []string{"mode"}),
		Timeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sowell_search_timeouts_total",
			Help: "Total number of searches that exceeded their time budget",
		}, []string{"mode"}),
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "sowell_search_rejected_total",
			Help: "Total number of searches rejected for malformed criteria",
		}),
	}
}

// ObserveSearch records a completed search.
func (m *Metrics) ObserveSearch(mode string, start time.Time, results int) {
	if m == nil {
		return
	}
	m.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	m.ResultSize.WithLabelValues(mode).Observe(float64(results))
}

// IncTimeout records a search that ran out of time.
func (m *Metrics) IncTimeout(mode string) {
	if m == nil {
		return
	}
	m.Timeouts.WithLabelValues(mode).Inc()
}

// IncRejected records a search refused before reaching the store.
func (m *Metrics) IncRejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}
