package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by command.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheRequests counts cache lookups by entity namespace and result (hit, miss, error).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_cache_requests_total",
		Help: "Cache lookups by namespace and result",
	}, []string{"namespace", "result"})

	// CacheFailures counts cache calls that failed and were bypassed.
	CacheFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_cache_failures_total",
		Help: "Cache operations that failed and fell back to the repository",
	}, []string{"operation"})

	// CacheInvalidatedKeys counts keys removed by write-path invalidation.
	CacheInvalidatedKeys = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_cache_invalidated_keys_total",
		Help: "Keys removed by write-path invalidation",
	}, []string{"entity"})

	// UpstreamFailures counts failed calls to peer services.
	UpstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_upstream_failures_total",
		Help: "Failed calls to peer services",
	}, []string{"service", "operation"})

	// GamificationDispatches counts fire-and-forget notifications by outcome.
	GamificationDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_gamification_dispatch_total",
		Help: "Gamification notifications by outcome (sent, failed, dropped)",
	}, []string{"outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engagement_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
