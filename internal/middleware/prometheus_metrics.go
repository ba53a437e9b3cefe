package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iknowaspot/backend/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for Prometheus
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		m.HTTPActiveConnections.WithLabelValues(method, path).Inc()
		defer m.HTTPActiveConnections.WithLabelValues(method, path).Dec()

		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime).Seconds()
		// Numeric status string so Grafana queries like status=~"5.." match
		statusStr := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)
	}
}

// RecordFavoriteToggle counts a favorite save or remove
func RecordFavoriteToggle(saved bool) {
	action := "removed"
	if saved {
		action = "saved"
	}
	metrics.Get().FavoriteTogglesTotal.WithLabelValues(action).Inc()
}

// RecordFriendRequestEvent counts friend request lifecycle events
func RecordFriendRequestEvent(event string) {
	metrics.Get().FriendRequestsTotal.WithLabelValues(event).Inc()
}

// RecordRecommendationQuery counts a recommendation feed query
func RecordRecommendationQuery() {
	metrics.Get().RecommendationQueries.Inc()
}

// RecordPlacesLookup counts a nearby place lookup by category
func RecordPlacesLookup(category string) {
	metrics.Get().PlacesLookupsTotal.WithLabelValues(category).Inc()
}
