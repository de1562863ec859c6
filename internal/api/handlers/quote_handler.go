package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/trip-dispatch/internal/api/dto"
	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/gocomet/trip-dispatch/internal/geo"
)

// GetQuote handles POST /v1/quotes. No trip is created; the same
// estimator prices trips at request time, so the numbers agree.
func (h *Handlers) GetQuote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	pickup := geo.Point{Latitude: req.PickupLatitude, Longitude: req.PickupLongitude}
	dropoff := geo.Point{Latitude: req.DropoffLatitude, Longitude: req.DropoffLongitude}
	if !pickup.InRange() || !dropoff.InRange() {
		badRequest(c, "Coordinates out of range")
		return
	}

	class := trip.VehicleClass(req.VehicleClass)
	surge := h.Surge.SurgeMultiplier(c.Request.Context(), req.Region)
	distance := geo.DistanceKm(pickup, dropoff)

	c.JSON(http.StatusOK, dto.QuoteResponse{
		DistanceKm:   math.Round(distance*10) / 10,
		EtaMinutes:   h.Estimator.ETAMinutes(distance),
		FareEstimate: h.Estimator.Quote(pickup, dropoff, class, surge),
		Currency:     "USD",
		SurgeApplied: surge,
		VehicleClass: req.VehicleClass,
	})
}
