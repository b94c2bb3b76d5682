package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the engine's operational counters. A nil *Metrics is valid
// and records nothing, so wiring Prometheus stays optional for tests and the
// demo mode.
type Metrics struct {
	escalations   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	staffingGaps  prometheus.Counter
	activeTimers  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifeline",
			Subsystem: "engine",
			Name:      "escalations_total",
			Help:      "Tier transitions by reason (timeout or manual)",
		}, []string{"reason"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifeline",
			Subsystem: "engine",
			Name:      "notifications_total",
			Help:      "Notification attempts by result",
		}, []string{"result"}),
		staffingGaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lifeline",
			Subsystem: "engine",
			Name:      "staffing_gaps_total",
			Help:      "Escalations that found no eligible on-duty recipients",
		}),
		activeTimers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lifeline",
			Subsystem: "engine",
			Name:      "active_timers",
			Help:      "Currently armed escalation timers",
		}),
	}
}

func (m *Metrics) countEscalation(reason string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(reason).Inc()
}

func (m *Metrics) countNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) countStaffingGap() {
	if m == nil {
		return
	}
	m.staffingGaps.Inc()
}

func (m *Metrics) setActiveTimers(n int) {
	if m == nil {
		return
	}
	m.activeTimers.Set(float64(n))
}
