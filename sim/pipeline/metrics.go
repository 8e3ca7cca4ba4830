package pipeline

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments of a race.
type Metrics struct {
	// Producer metrics
	Ticks          prometheus.Counter
	FramesProduced prometheus.Counter
	FramesDropped  prometheus.Counter
	PitStops       prometheus.Counter
	BufferDepth    prometheus.Gauge

	// Consumer metrics
	FramesConsumed  prometheus.Counter
	Violations      prometheus.Counter
	PenaltiesIssued prometheus.Counter

	// Strategy metrics
	StrategyRuns prometheus.Counter
}

// NewMetrics creates the race metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "racesim"
	}
	f := promauto.With(reg)

	return &Metrics{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks",
		}),
		FramesProduced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "frames_produced_total",
			Help:      "Total number of telemetry frames pushed",
		}),
		FramesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "frames_dropped_total",
			Help:      "Total number of buffered frames discarded to make room",
		}),
		PitStops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "pit_stops_total",
			Help:      "Total number of pit entries",
		}),
		BufferDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "buffer_depth",
			Help:      "Frames waiting in the buffer after the last tick",
		}),
		FramesConsumed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "frames_consumed_total",
			Help:      "Total number of telemetry frames popped",
		}),
		Violations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "violations_total",
			Help:      "Total number of track limits violations",
		}),
		PenaltiesIssued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "penalties_issued_total",
			Help:      "Total number of time penalties issued",
		}),
		StrategyRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "runs_total",
			Help:      "Total number of offline candidate races simulated",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
