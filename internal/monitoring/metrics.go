package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_pool_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_pool_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gemini_pool_http_inflight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_pool_upstream_requests_total",
			Help: "Total number of upstream Gemini API requests",
		},
		[]string{"operation", "status_class"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_pool_upstream_request_duration_seconds",
			Help:    "Upstream Gemini API latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	PoolSelectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gemini_pool_pool_selections_total",
			Help: "Number of keys handed out by the rotation pool",
		},
	)

	UsageWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gemini_pool_usage_write_failures_total",
			Help: "Usage ledger writes that failed and were dropped",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_pool_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"backend"},
	)

	ModelsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_pool_models_cache_total",
			Help: "Models list cache lookups by result",
		},
		[]string{"result"},
	)

	StorageOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_pool_storage_op_duration_seconds",
			Help:    "Ledger operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"op", "result"},
	)
)
