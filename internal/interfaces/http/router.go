// Package http wires the gin route tree and the server lifecycle around it.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/taxdesk/caselaw-intelligence/internal/interfaces/http/handlers"
	"github.com/taxdesk/caselaw-intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure the route tree
// needs.  Nil handlers leave their routes unregistered, so partial wiring
// (e.g. a read-only deployment without the sync trigger) stays valid.
type RouterConfig struct {
	CaseLawHandler *handlers.CaseLawHandler
	SyncHandler    *handlers.SyncHandler
	HealthHandler  *handlers.HealthHandler

	AllowedOrigins []string
	Mode           string // gin mode: "debug" | "release" | "test"

	Logger  logging.Logger
	Metrics *prometheus.Metrics
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		if cfg.CaseLawHandler != nil {
			api.GET("/case-laws", cfg.CaseLawHandler.List)
			api.GET("/case-laws/:tid", cfg.CaseLawHandler.Get)
			api.GET("/case-laws/:tid/detail", cfg.CaseLawHandler.GetDetail)
			api.GET("/cases/statistics", cfg.CaseLawHandler.Statistics)
		}
		if cfg.SyncHandler != nil {
			api.POST("/sync", cfg.SyncHandler.Trigger)
		}
	}

	return r
}
