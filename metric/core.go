// Package metric provides the runtime's Prometheus metrics: a shared
// registry plus the core settings/results/substrate instrumentation.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core runtime metrics
type Metrics struct {
	// Settings pipeline
	SettingsApplied  *prometheus.CounterVec
	SettingsRejected *prometheus.CounterVec

	// Results channel
	ResultsPublished *prometheus.CounterVec
	EncodeFailures   *prometheus.CounterVec

	// Reconciliation loop
	ReconcileTicks    prometheus.Counter
	ReconcileDuration prometheus.Histogram

	// Substrate connection
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates the core metrics set
func NewMetrics() *Metrics {
	return &Metrics{
		SettingsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "synapse",
				Subsystem: "settings",
				Name:      "applied_total",
				Help:      "Total accepted setting writes",
			},
			[]string{"camera"},
		),

		SettingsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "synapse",
				Subsystem: "settings",
				Name:      "rejected_total",
				Help:      "Total rejected setting writes by error class",
			},
			[]string{"camera", "class"},
		),

		ResultsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "synapse",
				Subsystem: "results",
				Name:      "published_total",
				Help:      "Total published result entries by channel (primitive or final)",
			},
			[]string{"camera", "channel"},
		),

		EncodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "synapse",
				Subsystem: "results",
				Name:      "encode_failures_total",
				Help:      "Total final result encode failures",
			},
			[]string{"camera"},
		),

		ReconcileTicks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "synapse",
				Subsystem: "sync",
				Name:      "ticks_total",
				Help:      "Total reconciliation ticks",
			},
		),

		ReconcileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "synapse",
				Subsystem: "sync",
				Name:      "tick_duration_seconds",
				Help:      "Reconciliation tick duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "synapse",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "synapse",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total NATS reconnections",
			},
		),
	}
}

// collectors returns every core metric for registration
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SettingsApplied,
		m.SettingsRejected,
		m.ResultsPublished,
		m.EncodeFailures,
		m.ReconcileTicks,
		m.ReconcileDuration,
		m.NATSConnected,
		m.NATSReconnects,
	}
}
