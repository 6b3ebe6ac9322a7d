// Package metrics exposes Prometheus instruments for feed loads, document
// adaptation, image probes, price polling and the reader API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsdailly"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty"
	OutcomeMiss  = "miss"
	OutcomeHit   = "hit"
)

// Metrics holds all newsdailly Prometheus metrics. Each instance owns its
// registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	// Feed metrics
	PagesLoaded       *prometheus.CounterVec
	PageLoadDuration  *prometheus.HistogramVec
	DocumentsSkipped  *prometheus.CounterVec
	DuplicatesDropped prometheus.Counter

	// Image metrics
	ImageProbes *prometheus.CounterVec

	// Market metrics
	PricePolls       *prometheus.CounterVec
	PricePollLatency prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
}

// New registers every instrument on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: reg}
	initFeedMetrics(m, promauto.With(reg))
	initImageMetrics(m, promauto.With(reg))
	initMarketMetrics(m, promauto.With(reg))
	initAPIMetrics(m, promauto.With(reg))
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func initFeedMetrics(m *Metrics, f promauto.Factory) {
	m.PagesLoaded = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_pages_loaded_total",
		Help:      "Feed page loads by feed and outcome",
	}, []string{"feed", "outcome"})

	m.PageLoadDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_page_load_duration_seconds",
		Help:      "Time to fetch and adapt one feed page",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
	}, []string{"feed"})

	m.DocumentsSkipped = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_skipped_total",
		Help:      "Stored documents skipped because a field was malformed",
	}, []string{"key"})

	m.DuplicatesDropped = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_duplicates_dropped_total",
		Help:      "Documents dropped because their dedup key was already in the feed",
	})
}

func initImageMetrics(m *Metrics, f promauto.Factory) {
	m.ImageProbes = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_probes_total",
		Help:      "Object storage probes by extension and outcome",
	}, []string{"ext", "outcome"})
}

func initMarketMetrics(m *Metrics, f promauto.Factory) {
	m.PricePolls = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_polls_total",
		Help:      "Ticker polls by outcome",
	}, []string{"outcome"})

	m.PricePollLatency = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "price_poll_duration_seconds",
		Help:      "Ticker request latency",
		Buckets:   prometheus.DefBuckets,
	})
}

func initAPIMetrics(m *Metrics, f promauto.Factory) {
	m.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Reader API requests by route and status",
	}, []string{"method", "route", "status"})
}
