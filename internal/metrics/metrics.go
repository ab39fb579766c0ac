package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "transmem"

// Metrics holds the Prometheus collectors for the translation memory server.
// Each instance owns its registry so tests can build as many as they like.
// All Observe methods are safe on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	Commits       *prometheus.CounterVec
	Evictions     prometheus.Counter
	Searches      prometheus.Counter
	SearchMatches prometheus.Histogram
	SearchLatency prometheus.Histogram

	Translations       *prometheus.CounterVec
	TranslationLatency *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// New creates the collectors. entryCount, when non-nil, backs the entries gauge.
func New(entryCount func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		Registry: reg,

		Commits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Translation commits by outcome",
		}, []string{"outcome"}), // inserted | deduplicated

		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Entries evicted to stay within capacity",
		}),

		Searches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Similarity searches executed",
		}),

		SearchMatches: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_matches",
			Help:      "Matches returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		SearchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Similarity search latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),

		Translations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translations_total",
			Help:      "Translate requests by provider and outcome",
		}, []string{"provider", "outcome"}),

		TranslationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_duration_seconds",
			Help:      "Provider translation latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	if entryCount != nil {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Entries currently held in translation memory",
		}, func() float64 {
			return float64(entryCount())
		})
	}

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveCommit(deduplicated bool) {
	if m == nil {
		return
	}
	outcome := "inserted"
	if deduplicated {
		outcome = "deduplicated"
	}
	m.Commits.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Evictions.Add(float64(n))
}

func (m *Metrics) ObserveSearch(matches int, d time.Duration) {
	if m == nil {
		return
	}
	m.Searches.Inc()
	m.SearchMatches.Observe(float64(matches))
	m.SearchLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveTranslation(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Translations.WithLabelValues(provider, outcome).Inc()
	if d > 0 {
		m.TranslationLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
