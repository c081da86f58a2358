// Package observability provides Prometheus metrics for the intake service.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains Prometheus metrics for search and backend operations.
type Metrics struct {
	registry *prometheus.Registry

	searchRequestsTotal *prometheus.CounterVec
	searchDuration      prometheus.Histogram
	matchesReturned     prometheus.Histogram

	backendQueriesTotal *prometheus.CounterVec
	backendFallbacks    prometheus.Counter
}

// NewMetrics creates and registers the service metrics on a fresh registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.searchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noisewatch_search_requests_total",
			Help: "Total number of match search requests",
		},
		[]string{"mode", "status"}, // mode: mock, live; status: ok, validation_error, upstream_error, internal_error
	)

	m.searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "noisewatch_search_duration_seconds",
			Help: "Time taken to complete a match search",
			// 10ms to ~40s, covers cached mock searches through double backend queries
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	m.matchesReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "noisewatch_search_matches_returned",
			Help: "Number of candidate matches returned per search",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		},
	)

	m.backendQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noisewatch_backend_queries_total",
			Help: "Total number of outbound queries against the noise-monitoring backend",
		},
		[]string{"query_mode", "status"}, // query_mode: class_filtered, unfiltered; status: ok, error
	)

	m.backendFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "noisewatch_backend_fallbacks_total",
			Help: "Number of searches that fell through from the class-filtered to the unfiltered query",
		},
	)

	cs := []prometheus.Collector{
		m.searchRequestsTotal,
		m.searchDuration,
		m.matchesReturned,
		m.backendQueriesTotal,
		m.backendFallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordSearch records the outcome of one search request.
func (m *Metrics) RecordSearch(mode, status string, durationSeconds float64, matches int) {
	m.searchRequestsTotal.WithLabelValues(mode, status).Inc()
	m.searchDuration.Observe(durationSeconds)
	if status == "ok" {
		m.matchesReturned.Observe(float64(matches))
	}
}

// RecordBackendQuery records one outbound backend query.
func (m *Metrics) RecordBackendQuery(queryMode, status string) {
	m.backendQueriesTotal.WithLabelValues(queryMode, status).Inc()
}

// RecordFallback records a class-filtered to unfiltered fall-through.
func (m *Metrics) RecordFallback() {
	m.backendFallbacks.Inc()
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
