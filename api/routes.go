package api

import (
	"net/http"

	"github.com/cruzdariel/Sendy/config"
	"github.com/cruzdariel/Sendy/flights"
	"github.com/cruzdariel/Sendy/pkg/buildinfo"
	"github.com/cruzdariel/Sendy/pkg/cache"
	"github.com/cruzdariel/Sendy/pkg/health"
	"github.com/cruzdariel/Sendy/share"
	"github.com/gin-gonic/gin"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Sessions   *SessionStore
	Lookup     flights.AirportLookup
	Manager    *share.Manager
	ShareCache cache.Cache // nil when the Redis cache is disabled
	Health     *health.HealthChecker
	Config     *config.Config
}

// RegisterRoutes wires all endpoints onto the router.
func RegisterRoutes(router *gin.Engine, deps Deps) {
	// Setup middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		report := deps.Health.CheckLiveness(c.Request.Context())
		c.JSON(http.StatusOK, report)
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, buildinfo.Info())
	})

	// Public share view, the URL shape that gets sent around
	router.GET("/share/:id", GetSharedData(deps.Manager, deps.ShareCache, deps.Config))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			report := deps.Health.CheckHealth(c.Request.Context())
			status := http.StatusOK
			if report.Status == health.StatusDown {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, report)
		})

		// Upload session routes
		v1.POST("/uploads", UploadFlights(deps.Sessions, deps.Lookup))
		v1.GET("/uploads/:id/stats", GetSessionStats(deps.Sessions, deps.Lookup))
		v1.POST("/uploads/:id/shares", CreateShare(deps.Sessions, deps.Manager, deps.Lookup, deps.Config))

		// Share lifecycle routes
		v1.GET("/shares", ListShares(deps.Manager))
		v1.GET("/shares/:id", GetShareInfo(deps.Manager))
		v1.GET("/shares/:id/data", GetSharedData(deps.Manager, deps.ShareCache, deps.Config))
		v1.DELETE("/shares/:id", DeactivateShare(deps.Manager, deps.ShareCache))
	}
}
