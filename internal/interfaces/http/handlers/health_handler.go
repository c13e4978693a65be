package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency.  The name keys the report entry.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves the liveness and readiness endpoints.  Liveness is
// unconditional; readiness runs every registered dependency check.
type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz.  Any failing dependency yields 503 with a
// per-dependency report.
func (h *HealthHandler) Readiness(c *gin.Context) {
	report := make(map[string]string, len(h.checks))
	healthy := true

	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			report[name] = err.Error()
			healthy = false
		} else {
			report[name] = "ok"
		}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": report})
}
