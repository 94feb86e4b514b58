package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SignIns        *prometheus.CounterVec
	GuardDecisions *prometheus.CounterVec
	OpDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SignIns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "elan_sign_ins_total",
			Help: "Sign-in attempts by method, provider mode and outcome",
		}, []string{"method", "mode", "outcome"}),
		GuardDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "elan_route_guard_decisions_total",
			Help: "Route guard decisions by outcome",
		}, []string{"outcome"}),
		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "elan_session_op_duration_seconds",
			Help:    "Session operation duration by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// ObserveSignIn records one sign-in attempt.
func (m *Metrics) ObserveSignIn(method, mode, outcome string) {
	m.SignIns.WithLabelValues(method, mode, outcome).Inc()
}

// ObserveGuard records one route guard decision.
func (m *Metrics) ObserveGuard(outcome string) {
	m.GuardDecisions.WithLabelValues(outcome).Inc()
}

// ObserveOp records one session operation's duration.
func (m *Metrics) ObserveOp(operation string, elapsed time.Duration) {
	m.OpDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
