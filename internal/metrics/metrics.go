// Package metrics exposes Prometheus instrumentation for the API.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Domain metrics
	FavoriteTogglesTotal  prometheus.CounterVec
	FriendRequestsTotal   prometheus.CounterVec
	RecommendationQueries prometheus.Counter
	PlacesLookupsTotal    prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
	WSMessagesSentTotal prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate-limited requests",
				},
				[]string{"endpoint", "method"},
			),

			FavoriteTogglesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "favorite_toggles_total",
					Help: "Favorite save/remove operations",
				},
				[]string{"action"},
			),
			FriendRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "friend_requests_total",
					Help: "Friend request lifecycle events",
				},
				[]string{"event"},
			),
			RecommendationQueries: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "recommendation_queries_total",
					Help: "Total number of recommendation feed queries",
				},
			),
			PlacesLookupsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "places_lookups_total",
					Help: "Nearby place lookups by category",
				},
				[]string{"category"},
			),

			WSConnectionsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "websocket_connections_active",
					Help: "Number of open WebSocket connections",
				},
			),
			WSMessagesSentTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "websocket_messages_sent_total",
					Help: "Total number of WebSocket messages sent to clients",
				},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
