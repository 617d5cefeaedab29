package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/use-agent/oab/api/handler"
	"github.com/use-agent/oab/api/middleware"
	"github.com/use-agent/oab/config"
	"github.com/use-agent/oab/metrics"
)

// NewRouter creates the HTTP handler with all routes and middleware.
//
// Middleware chain:
//
//	Outer:   CORS (allow all)
//	Global:  RequestID → Logger → Recovery
//	Lookup:  Auth (if enabled) → RateLimit → LookupSlots
//
// Logger wraps Recovery so a recovered panic is still logged and counted
// with its 500 status.
//
// Root, health and metrics stay outside auth so probes and scrapers always work.
// ctx bounds the rate limiter's background eviction.
func NewRouter(ctx context.Context, looker handler.Looker, cfg *config.Config, m *metrics.Metrics, startTime time.Time) http.Handler {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(m))
	r.Use(middleware.Recovery())

	r.GET("/", handler.Root())
	r.GET("/health", handler.Health(startTime))
	r.GET("/metrics", gin.WrapH(m.Handler()))

	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))
	protected.Use(middleware.LookupSlots(cfg.RateLimit.MaxConcurrent))

	protected.POST("/fetch_oab", handler.Lookup(looker))

	return cors.AllowAll().Handler(r)
}
