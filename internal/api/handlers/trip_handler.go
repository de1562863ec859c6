package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/trip-dispatch/internal/api/dto"
	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/gocomet/trip-dispatch/internal/service/dispatch"
	"github.com/gocomet/trip-dispatch/pkg/logger"
	"github.com/google/uuid"
)

// CreateTrip handles POST /v1/trips
func (h *Handlers) CreateTrip(c *gin.Context) {
	actor, ok := identity(c)
	if !ok || actor.Role != dispatch.RoleRider {
		badRequest(c, "A rider identity is required")
		return
	}

	var req dto.CreateTripRequest
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

	surge := h.Surge.SurgeMultiplier(c.Request.Context(), req.Region)
	t, err := h.Engine.RequestTrip(c.Request.Context(), actor.ID, pickup, dropoff,
		trip.VehicleClass(req.VehicleClass), surge)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTripResponse(t))
}

// GetTrip handles GET /v1/trips/:id
func (h *Handlers) GetTrip(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid trip id")
		return
	}

	t, err := h.Engine.GetTrip(c.Request.Context(), tripID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTripResponse(t))
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *Handlers) CancelTrip(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		badRequest(c, "An identity is required")
		return
	}

	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid trip id")
		return
	}

	t, err := h.Engine.Cancel(c.Request.Context(), tripID, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Logger.Info("Trip cancelled via API",
		logger.String("trip_id", tripID.String()),
		logger.String("actor_role", actor.Role),
	)
	c.JSON(http.StatusOK, dto.NewTripResponse(t))
}

// StartTrip handles POST /v1/trips/:id/start
func (h *Handlers) StartTrip(c *gin.Context) {
	actor, ok := identity(c)
	if !ok || actor.Role != dispatch.RoleDriver {
		badRequest(c, "A driver identity is required")
		return
	}

	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid trip id")
		return
	}

	t, err := h.Engine.Start(c.Request.Context(), tripID, actor.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTripResponse(t))
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *Handlers) CompleteTrip(c *gin.Context) {
	actor, ok := identity(c)
	if !ok || actor.Role != dispatch.RoleDriver {
		badRequest(c, "A driver identity is required")
		return
	}

	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid trip id")
		return
	}

	t, err := h.Engine.Complete(c.Request.Context(), tripID, actor.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTripResponse(t))
}
