package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Offer outcomes recorded by the dispatch workflow.
const (
	OutcomeCreated  = "created"
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeExpired  = "expired"
)

// DispatchMetrics records dispatch and settlement events in Prometheus.
// A nil *DispatchMetrics is valid and records nothing.
type DispatchMetrics struct {
	offers        *prometheus.CounterVec
	exhaustions   prometheus.Counter
	settlements   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	commission    prometheus.Counter
}

// NewDispatchMetrics registers the collectors on reg. If reg is nil, the
// default registerer is used. Collectors already registered are reused.
func NewDispatchMetrics(reg prometheus.Registerer) (*DispatchMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &DispatchMetrics{
		offers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repairhub_job_offers_total",
			Help: "Job offers by outcome",
		}, []string{"outcome"}),
		exhaustions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repairhub_dispatch_exhausted_total",
			Help: "Bookings left without an available technician",
		}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repairhub_settlements_total",
			Help: "Booking lifecycle transitions applied by settlement",
		}, []string{"transition"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repairhub_notification_failures_total",
			Help: "Notifications that could not be stored or pushed",
		}, []string{"type"}),
		commission: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repairhub_admin_commission_total",
			Help: "Sum of admin commission settled, in major currency units",
		}),
	}

	var err error
	if m.offers, err = register(reg, m.offers); err != nil {
		return nil, err
	}
	if m.exhaustions, err = register(reg, m.exhaustions); err != nil {
		return nil, err
	}
	if m.settlements, err = register(reg, m.settlements); err != nil {
		return nil, err
	}
	if m.notifications, err = register(reg, m.notifications); err != nil {
		return nil, err
	}
	if m.commission, err = register(reg, m.commission); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *DispatchMetrics) OfferOutcome(outcome string) {
	if m == nil {
		return
	}
	m.offers.WithLabelValues(outcome).Inc()
}

func (m *DispatchMetrics) Exhausted() {
	if m == nil {
		return
	}
	m.exhaustions.Inc()
}

func (m *DispatchMetrics) Settlement(transition string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(transition).Inc()
}

func (m *DispatchMetrics) CommissionSettled(amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.commission.Add(amount)
}

func (m *DispatchMetrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind).Inc()
}
