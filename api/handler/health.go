package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oab/models"
)

// Version is reported by the root and health endpoints.
const Version = "1.0.0"

// Root returns a handler for GET / listing the available endpoints.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.RootResponse{
			Message: "OAB registry lookup API",
			Version: Version,
			Endpoints: map[string]string{
				"fetch_oab": "POST /fetch_oab - look up a lawyer by full name and UF",
				"health":    "GET /health - service health",
				"metrics":   "GET /metrics - Prometheus metrics",
			},
		})
	}
}

// Health returns a handler for GET /health.
func Health(startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "ok",
			Message: "OAB registry lookup API is running",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
		})
	}
}
