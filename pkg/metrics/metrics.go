// Package metrics defines the Prometheus metric collectors used across the
// search core and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the search core.
type Metrics struct {
	SearchesTotal          *prometheus.CounterVec
	SearchLatency          *prometheus.HistogramVec
	SearchResultsCount     prometheus.Histogram
	DocsIndexedTotal       prometheus.Counter
	DocsRemovedTotal       prometheus.Counter
	IndexBuildsTotal       *prometheus.CounterVec
	IndexBuildFailures     prometheus.Counter
	SuggestRequestsTotal   *prometheus.CounterVec
	SuggestSnapshotSize    prometheus.Gauge
	SuggestRebuildsTotal   *prometheus.CounterVec
	AnalyticsEventsTotal   prometheus.Counter
	AnalyticsDroppedTotal  prometheus.Counter
	CacheHitsTotal         prometheus.Counter
	CacheMissesTotal       prometheus.Counter
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searches_total",
				Help: "Total search queries by outcome (hit, zero_result, error).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"path"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total index entries upserted.",
			},
		),
		DocsRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_removed_total",
				Help: "Total index entries removed.",
			},
		),
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_builds_total",
				Help: "Full index rebuilds by status.",
			},
			[]string{"status"},
		),
		IndexBuildFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "index_build_item_failures_total",
				Help: "Per-item failures skipped during full rebuilds.",
			},
		),
		SuggestRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suggest_requests_total",
				Help: "Autocomplete requests by outcome (hit, empty, rejected).",
			},
			[]string{"outcome"},
		),
		SuggestSnapshotSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "suggest_snapshot_terms",
				Help: "Number of terms in the active suggestion snapshot.",
			},
		),
		SuggestRebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suggest_rebuilds_total",
				Help: "Suggestion snapshot rebuilds by trigger (scheduled, save, manual, debounced).",
			},
			[]string{"trigger"},
		),
		AnalyticsEventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_events_total",
				Help: "Search analytics events accepted for persistence.",
			},
		),
		AnalyticsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_events_dropped_total",
				Help: "Search analytics events dropped due to a full buffer.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of search cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of search cache misses.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
	}

	prometheus.MustRegister(
		m.SearchesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.DocsIndexedTotal,
		m.DocsRemovedTotal,
		m.IndexBuildsTotal,
		m.IndexBuildFailures,
		m.SuggestRequestsTotal,
		m.SuggestSnapshotSize,
		m.SuggestRebuildsTotal,
		m.AnalyticsEventsTotal,
		m.AnalyticsDroppedTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
