package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts sheet lifecycle changes.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Rejected    *prometheus.CounterVec
	Printed     prometheus.Counter
}

// New registers sheet metrics with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sowell_sheet_transitions_total",
			Help: "Total number of sheet status changes",
		}, []string{"from", "to"}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sowell_sheet_transitions_rejected_total",
			Help: "Total number of refused sheet status changes, by reason",
		}, []string{"reason"}),
		Printed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sowell_sheets_printed_total",
			Help: "Total number of blank sheets printed",
		}),
	}
}

func (m *Metrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddPrinted(n int) {
	if m == nil {
		return
	}
	m.Printed.Add(float64(n))
}
