package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latency per route.  The route label is
// the registered pattern (e.g. /api/case-laws/:tid) to keep cardinality
// bounded; unmatched paths are grouped under "unmatched".
func Metrics(m *prometheus.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
