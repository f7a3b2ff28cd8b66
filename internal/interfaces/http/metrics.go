package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalmesh/advisor/internal/engine"
)

// MetricsRegistry holds the Prometheus metrics for the advisor.
type MetricsRegistry struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	Recommendations *prometheus.CounterVec
	GateBlocks      *prometheus.CounterVec
	RegimeRuns      *prometheus.CounterVec
	StreamClients   prometheus.Gauge
}

// NewMetricsRegistry creates an isolated metrics registry. Isolated so
// tests can build as many as they need without duplicate registration.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_request_duration_seconds",
				Help:    "API request duration by route and status",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"method", "route", "status"},
		),
		Recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_recommendations_total",
				Help: "Recommendations produced, by direction",
			},
			[]string{"direction"},
		),
		GateBlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_gate_blocks_total",
				Help: "Runs vetoed by a gate, by failing gate step",
			},
			[]string{"gate"},
		),
		RegimeRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_regime_runs_total",
				Help: "Completed runs by detected regime",
			},
			[]string{"regime"},
		),
		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "advisor_stream_clients",
				Help: "Connected websocket subscribers",
			},
		),
	}
	m.registry.MustRegister(m.RequestDuration, m.Recommendations, m.GateBlocks, m.RegimeRuns, m.StreamClients)
	return m
}

// Handler serves the scrape endpoint.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one API request.
func (m *MetricsRegistry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserveRecommendation records the outcome of one analysis run.
func (m *MetricsRegistry) ObserveRecommendation(rec *engine.Recommendation) {
	m.Recommendations.WithLabelValues(string(rec.Direction)).Inc()
	if rec.Regime != "" {
		m.RegimeRuns.WithLabelValues(string(rec.Regime)).Inc()
	}
	if rec.Blocked() {
		for _, step := range rec.DecisionPath {
			if !step.Passed {
				m.GateBlocks.WithLabelValues(step.Step).Inc()
				break
			}
		}
	}
}
