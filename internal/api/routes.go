package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sharebyte/internal/service"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// SetupRoutes wires the ops surface: liveness plus the same counters the
// /stats command reports.
func SetupRoutes(router *gin.Engine, registry service.Registry, dbCheck HealthCheck) {
	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := dbCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/stats", func(c *gin.Context) {
			stats, err := registry.Stats(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect stats"})
				return
			}
			c.JSON(http.StatusOK, stats)
		})
	}
}
