package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the platform-level metrics every socket manager can
// report into. Domain-specific metrics belong to their own packages and are
// registered through the MetricsRegistry.
type Metrics struct {
	// Pipeline metrics
	FramesEmitted  *prometheus.CounterVec
	FramesReceived *prometheus.CounterVec
	PipelineFaults *prometheus.CounterVec

	// Queue metrics
	EmitQueueDepth *prometheus.GaugeVec
	RecvQueueDepth *prometheus.GaugeVec

	// Actor metrics
	ManagersActive prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		FramesEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opencore",
				Subsystem: "pipeline",
				Name:      "frames_emitted_total",
				Help:      "Total number of frames written to the socket by the emit pipeline",
			},
			[]string{"manager"},
		),

		FramesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opencore",
				Subsystem: "pipeline",
				Name:      "frames_received_total",
				Help:      "Total number of frames read from the socket by the receive pipeline",
			},
			[]string{"manager"},
		),

		PipelineFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opencore",
				Subsystem: "pipeline",
				Name:      "faults_total",
				Help:      "Total number of unexpected pipeline failures",
			},
			[]string{"manager", "pipeline"},
		),

		EmitQueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "opencore",
				Subsystem: "queue",
				Name:      "emit_depth",
				Help:      "Frames waiting in the emit queue",
			},
			[]string{"manager"},
		),

		RecvQueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "opencore",
				Subsystem: "queue",
				Name:      "recv_depth",
				Help:      "Frames waiting in the receive queue",
			},
			[]string{"manager"},
		),

		ManagersActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "opencore",
				Subsystem: "actor",
				Name:      "managers_active",
				Help:      "Socket managers currently owned by actors",
			},
		),
	}
}
