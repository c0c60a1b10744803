package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Aman-CERP/countryscope/internal/lookup"
)

// Metrics records lookup and HTTP activity. It implements lookup.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// Lookups by outcome: hit, fetched, failed, abandoned.
	Lookups *prometheus.CounterVec

	// Lookup latency by outcome, as seen by the caller.
	LookupLatency *prometheus.HistogramVec

	// HTTP requests by route and status code.
	Requests *prometheus.CounterVec

	// HTTP request latency by route.
	RequestLatency *prometheus.HistogramVec
}

// NewMetrics creates Metrics on a private registry that also carries the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "countryscope_lookups_total",
			Help: "Country lookups by outcome",
		}, []string{"outcome"}),

		LookupLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "countryscope_lookup_duration_seconds",
			Help:    "Duration of country lookups by outcome, including cache hits",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),

		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "countryscope_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "countryscope_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry exposes the registry for /metrics and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveLookup implements lookup.Observer.
func (m *Metrics) ObserveLookup(outcome lookup.Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(string(outcome)).Inc()
	m.LookupLatency.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

// TrackCache exports the fetcher's live cache size and coalesced waits.
func (m *Metrics) TrackCache(stats func() lookup.Stats) {
	if m == nil {
		return
	}
	factory := promauto.With(m.registry)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "countryscope_cache_entries",
		Help: "Entries currently held in the lookup cache",
	}, func() float64 { return float64(stats().Entries) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "countryscope_lookup_shared_total",
		Help: "Lookups that joined an upstream request already in flight",
	}, func() float64 { return float64(stats().Shared) })
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, statusLabel(code)).Inc()
	m.RequestLatency.WithLabelValues(route).Observe(d.Seconds())
}

func statusLabel(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code)
}
