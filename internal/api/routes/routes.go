package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/gocomet/trip-dispatch/internal/api/handlers"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// WebSocket connection
		v1.GET("/ws", h.HandleWebSocket)

		// Fare quotes
		v1.POST("/quotes", h.GetQuote)

		// Trip lifecycle
		trips := v1.Group("/trips")
		{
			trips.POST("", h.CreateTrip)
			trips.GET("/:id", h.GetTrip)
			trips.POST("/:id/cancel", h.CancelTrip)
			trips.POST("/:id/start", h.StartTrip)
			trips.POST("/:id/complete", h.CompleteTrip)
		}

		// Driver endpoints
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", h.RegisterDriver)
			drivers.GET("/:id", h.GetDriver)
			drivers.POST("/:id/docs", h.ReviewDocs)
			drivers.POST("/availability", h.SetAvailability)
			drivers.POST("/location", h.UpdateLocation)
			drivers.POST("/offers/respond", h.RespondOffer)
		}
	}
}
