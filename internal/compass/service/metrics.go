package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the domain counters. A nil *Metrics records nothing.
type Metrics struct {
	InviteRejections   *prometheus.CounterVec
	AssessmentsCreated prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		InviteRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invite_gate_rejections_total",
				Help:      "Invite requests refused by the gate, by reason",
			},
			[]string{"reason"},
		),
		AssessmentsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assessments_created_total",
				Help:      "Assessments created by owners",
			},
		),
	}

	reg.MustRegister(m.InviteRejections, m.AssessmentsCreated)
	return m
}

func (m *Metrics) inviteRejected(reason string) {
	if m == nil {
		return
	}
	m.InviteRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) assessmentCreated() {
	if m == nil {
		return
	}
	m.AssessmentsCreated.Inc()
}
