package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts batch lifecycle changes and the sheets they carry along.
type Metrics struct {
	Created     prometheus.Counter
	Transitions *prometheus.CounterVec
	Cascaded    *prometheus.CounterVec
	Rejected    *prometheus.CounterVec
}

// New registers batch metrics with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Created: factory.NewCounter(prometheus.CounterOpts{
			Name: "sowell_batches_created_total",
			Help: "Total number of batches opened for building",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sowell_batch_transitions_total",
			Help: "Total number of batch status changes",
		}, []string{"from", "to"}),
		Cascaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sowell_batch_cascaded_sheets_total",
			Help: "Total number of member sheets moved by batch status changes",
		}, []string{"to"}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sowell_batch_operations_rejected_total",
			Help: "Total number of refused batch operations, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncCreated() {
	if m == nil {
		return
	}
	m.Created.Inc()
}

func (m *Metrics) IncTransition(from, to string, cascaded int64) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
	m.Cascaded.WithLabelValues(to).Add(float64(cascaded))
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}
