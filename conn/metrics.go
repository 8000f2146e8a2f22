package conn

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/treewire/metric"
)

// Metrics holds Prometheus metrics for the connection manager. All methods
// are nil-safe.
type Metrics struct {
	connectionState   prometheus.Gauge
	connectionsTotal  prometheus.Counter
	reconnectAttempts prometheus.Counter
	messagesReceived  prometheus.Counter
	messagesSent      prometheus.Counter
	framesDropped     *prometheus.CounterVec
}

// newMetrics creates and registers connection manager metrics
func newMetrics(registry *metric.MetricsRegistry, componentName string) *Metrics {
	if registry == nil {
		return nil
	}

	metrics := &Metrics{
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "treewire",
			Subsystem: "conn",
			Name:      "state",
			Help:      "Connection state (0=idle 1=connecting 2=open 3=closing 4=closed)",
		}),

		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treewire",
			Subsystem: "conn",
			Name:      "connections_total",
			Help:      "Total successful connection opens",
		}),

		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treewire",
			Subsystem: "conn",
			Name:      "reconnect_attempts_total",
			Help:      "Total scheduled reconnect attempts",
		}),

		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treewire",
			Subsystem: "conn",
			Name:      "messages_received_total",
			Help:      "Total raw messages received",
		}),

		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treewire",
			Subsystem: "conn",
			Name:      "messages_sent_total",
			Help:      "Total messages written to the wire",
		}),

		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treewire",
			Subsystem: "conn",
			Name:      "frames_dropped_total",
			Help:      "Total inbound messages dropped before dispatch",
		}, []string{"reason"}),
	}

	_ = registry.RegisterGauge(componentName, "state", metrics.connectionState)
	_ = registry.RegisterCounter(componentName, "connections_total", metrics.connectionsTotal)
	_ = registry.RegisterCounter(componentName, "reconnect_attempts", metrics.reconnectAttempts)
	_ = registry.RegisterCounter(componentName, "messages_received", metrics.messagesReceived)
	_ = registry.RegisterCounter(componentName, "messages_sent", metrics.messagesSent)
	_ = registry.RegisterCounterVec(componentName, "frames_dropped", metrics.framesDropped)

	return metrics
}

func (m *Metrics) state(s State) {
	if m != nil {
		m.connectionState.Set(float64(s))
	}
}

func (m *Metrics) opened() {
	if m != nil {
		m.connectionsTotal.Inc()
	}
}

func (m *Metrics) reconnectScheduled() {
	if m != nil {
		m.reconnectAttempts.Inc()
	}
}

func (m *Metrics) received() {
	if m != nil {
		m.messagesReceived.Inc()
	}
}

func (m *Metrics) sent() {
	if m != nil {
		m.messagesSent.Inc()
	}
}

func (m *Metrics) droppedFrame(reason string) {
	if m != nil {
		m.framesDropped.WithLabelValues(reason).Inc()
	}
}
