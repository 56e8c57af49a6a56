package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
)

// unmatchedRoute labels requests that hit no route, which keeps the label
// cardinality bounded.
const unmatchedRoute = "unmatched"

// HTTPMetrics records request count, latency and in-flight requests by route
// pattern. A nil metrics value disables it.
func HTTPMetrics(metrics *telemetry.Metrics) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		metrics.HTTPStarted()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
