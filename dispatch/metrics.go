package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/treewire/metric"
)

// Metrics holds Prometheus metrics for the dispatcher. All methods are
// nil-safe so a dispatcher without a registry pays nothing.
type Metrics struct {
	framesProcessed    *prometheus.CounterVec
	framesDropped      *prometheus.CounterVec
	securityViolations *prometheus.CounterVec
}

// newMetrics creates and registers dispatcher metrics
func newMetrics(registry *metric.MetricsRegistry, componentName string) *Metrics {
	if registry == nil {
		return nil
	}

	metrics := &Metrics{
		framesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treewire",
			Subsystem: "dispatch",
			Name:      "frames_processed_total",
			Help:      "Total frames dispatched, by verb and outcome",
		}, []string{"verb", "status"}),

		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treewire",
			Subsystem: "dispatch",
			Name:      "frames_dropped_total",
			Help:      "Total frames dropped before any effect ran",
		}, []string{"reason"}),

		securityViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treewire",
			Subsystem: "dispatch",
			Name:      "security_violations_total",
			Help:      "Total frames flagged by identifier or payload validation",
		}, []string{"reason"}),
	}

	_ = registry.RegisterCounterVec(componentName, "frames_processed", metrics.framesProcessed)
	_ = registry.RegisterCounterVec(componentName, "frames_dropped", metrics.framesDropped)
	_ = registry.RegisterCounterVec(componentName, "security_violations", metrics.securityViolations)

	return metrics
}

func (m *Metrics) processed(verb, status string) {
	if m != nil {
		m.framesProcessed.WithLabelValues(verb, status).Inc()
	}
}

func (m *Metrics) dropped(reason string) {
	if m != nil {
		m.framesDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) violation(reason string) {
	if m != nil {
		m.securityViolations.WithLabelValues(reason).Inc()
	}
}
