package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the trust module.
type Metrics struct {
	// Assessments by resulting micro-segment
	Assessments *prometheus.CounterVec

	// Policy violations by severity
	Violations *prometheus.CounterVec

	// Monitoring alerts by tag
	MonitorAlerts *prometheus.CounterVec

	// Full assessment latency including store round trips
	AssessLatency prometheus.Histogram

	// Current trust level distribution at assessment time
	TrustLevel prometheus.Histogram
}

// New creates a Metrics instance with all trust module metrics registered.
func New() *Metrics {
	return &Metrics{
		Assessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_assessments_total",
			Help: "Total trust assessments by resulting micro-segment",
		}, []string{"segment"}),

		Violations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_policy_violations_total",
			Help: "Total policy violations by severity",
		}, []string{"severity"}),

		MonitorAlerts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_monitor_alerts_total",
			Help: "Total continuous monitoring alerts by tag",
		}, []string{"alert"}),

		AssessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgate_assess_duration_seconds",
			Help:    "Duration of full trust assessments including store access",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		TrustLevel: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgate_trust_level",
			Help:    "Distribution of computed trust levels",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
	}
}

// ObserveAssessment records one completed assessment.
func (m *Metrics) ObserveAssessment(segment string, trustLevel float64, d time.Duration) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(segment).Inc()
	m.TrustLevel.Observe(trustLevel)
	m.AssessLatency.Observe(d.Seconds())
}

// IncrementViolation records a policy violation by severity.
func (m *Metrics) IncrementViolation(severity string) {
	if m != nil {
		m.Violations.WithLabelValues(severity).Inc()
	}
}

// IncrementAlert records a continuous monitoring alert.
func (m *Metrics) IncrementAlert(alert string) {
	if m != nil {
		m.MonitorAlerts.WithLabelValues(alert).Inc()
	}
}
