// Package middleware holds the cross-cutting HTTP concerns: request logging,
// CORS, panic recovery and per-route metrics.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
)

// skipPaths are high-frequency probe routes kept out of the request log.
var skipPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// RequestLogging logs one line per request with method, path, status and
// latency.  5xx responses log at error level, 4xx at warn.
func RequestLogging(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("duration", time.Since(start)),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("request rejected", fields...)
		default:
			logger.Info("request served", fields...)
		}
	}
}

// Recovery converts panics into 500 responses and logs the panic value.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			logging.String("path", c.Request.URL.Path),
			logging.Any("panic", recovered))
		c.AbortWithStatusJSON(500, gin.H{
			"success": false,
			"error":   gin.H{"code": "COMMON_001", "message": "internal server error"},
		})
	})
}
