package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloggingapi_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bloggingapi_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloggingapi_auth_attempts_total",
		Help: "Count of signup and login attempts by result",
	}, []string{"operation", "result"})

	blogOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloggingapi_blog_operations_total",
		Help: "Count of blog mutations by operation and result",
	}, []string{"operation", "result"})

	blogReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bloggingapi_blog_reads_total",
		Help: "Count of counted reads of published blogs",
	})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloggingapi_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"path"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuthAttempt counts a signup or login outcome
func ObserveAuthAttempt(operation, result string) {
	authAttempts.WithLabelValues(operation, result).Inc()
}

// ObserveBlogOperation counts a create, update, delete or publish outcome
func ObserveBlogOperation(operation, result string) {
	blogOperations.WithLabelValues(operation, result).Inc()
}

// ObserveRead counts one read_count increment
func ObserveRead() {
	blogReads.Inc()
}

// ObserveRateLimited counts a rejected request
func ObserveRateLimited(path string) {
	rateLimited.WithLabelValues(path).Inc()
}
