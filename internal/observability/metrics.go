package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus instruments the triage service and HTTP
// surface record into. Everything is registered on a private registry so
// tests can construct isolated instances without collisions.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts HTTP requests by route and status code.
	RequestsTotal *prometheus.CounterVec
	// ScoringDuration observes how long one CalculatePriority call takes.
	ScoringDuration prometheus.Histogram
	// ScoredTotal counts scored issues by resulting tier.
	ScoredTotal *prometheus.CounterVec
	// InFlight gauges requests currently being served.
	InFlight prometheus.Gauge
}

// NewMetrics builds a Metrics instance backed by a fresh registry. Runtime
// collectors ride along so /metrics covers process health too.
func NewMetrics(runtimeCollectors bool) *Metrics {
	reg := prometheus.NewRegistry()
	if runtimeCollectors {
		reg.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triagecore_http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "status"}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "triagecore_scoring_duration_seconds",
			Help:    "Latency of a single priority calculation.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		ScoredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triagecore_scored_total",
			Help: "Issues scored, by resulting priority tier.",
		}, []string{"tier"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "triagecore_http_in_flight_requests",
			Help: "HTTP requests currently being served.",
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.ScoringDuration, m.ScoredTotal, m.InFlight)
	return m
}

// ObserveRequest bumps the request counter for one served call.
func (m *Metrics) ObserveRequest(route string, status int) {
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for callers that register their
// own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
