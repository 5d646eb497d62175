// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the package feed.
package observability

import "github.com/prometheus/client_golang/prometheus"

// FeedBuckets defines histogram buckets for feed request latencies, from 5ms
// to 10s. Output-cache hits land in the lowest buckets.
var FeedBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts HTTP requests by method, status class, and route pattern.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packagefeed_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "packagefeed_request_duration_seconds",
			Help:    "Request duration",
			Buckets: FeedBuckets,
		},
		[]string{"method", "route"},
	)

	// OutputCacheTotal counts output-cache lookups by result (hit, miss, error).
	OutputCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packagefeed_output_cache_total",
			Help: "Output cache lookups",
		},
		[]string{"result"},
	)

	// PagingProviderTotal counts paging provider selections (default, search).
	PagingProviderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packagefeed_paging_provider_total",
			Help: "Paging provider selections",
		},
		[]string{"provider"},
	)

	// SearchRequestsTotal counts search engine calls by outcome (ok, error, rejected).
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packagefeed_search_requests_total",
			Help: "Search engine requests",
		},
		[]string{"status"},
	)

	// SearchBreakerOpen is 1 while the search circuit breaker rejects calls.
	SearchBreakerOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "packagefeed_search_breaker_state",
			Help: "Search circuit breaker open (1) or admitting (0)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		OutputCacheTotal,
		PagingProviderTotal,
		SearchRequestsTotal,
		SearchBreakerOpen,
	)
}
