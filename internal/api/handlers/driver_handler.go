package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/trip-dispatch/internal/api/dto"
	"github.com/gocomet/trip-dispatch/internal/domain/driver"
	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/gocomet/trip-dispatch/internal/service/dispatch"
	"github.com/gocomet/trip-dispatch/pkg/logger"
	"github.com/google/uuid"
)

// RegisterDriver handles POST /v1/drivers
func (h *Handlers) RegisterDriver(c *gin.Context) {
	actor, ok := identity(c)
	if !ok || actor.Role != dispatch.RoleDriver {
		badRequest(c, "A driver identity is required")
		return
	}

	var req dto.RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	d := driver.Driver{
		ID:         actor.ID,
		DocsStatus: driver.DocsPending,
	}
	if req.Latitude != nil && req.Longitude != nil {
		loc := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
		if !loc.InRange() {
			badRequest(c, "Coordinates out of range")
			return
		}
		d.Location = &loc
	}

	if err := h.Registry.Register(d); err != nil {
		h.respondError(c, err)
		return
	}

	h.Logger.Info("Driver registered", logger.String("driver_id", actor.ID.String()))
	c.JSON(http.StatusCreated, driverResponse(d))
}

// GetDriver handles GET /v1/drivers/:id
func (h *Handlers) GetDriver(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid driver id")
		return
	}

	d, err := h.Registry.Get(driverID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, driverResponse(d))
}

// ReviewDocs handles POST /v1/drivers/:id/docs. Drivers register with
// documents pending; only an admin verdict makes them matchable.
func (h *Handlers) ReviewDocs(c *gin.Context) {
	actor, ok := identity(c)
	if !ok || actor.Role != dispatch.RoleAdmin {
		badRequest(c, "An admin identity is required")
		return
	}

	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid driver id")
		return
	}

	var req dto.DocsReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.Registry.SetDocsStatus(driverID, driver.DocsStatus(req.DocsStatus)); err != nil {
		h.respondError(c, err)
		return
	}

	h.Logger.Info("Driver docs reviewed",
		logger.String("driver_id", driverID.String()),
		logger.String("docs_status", req.DocsStatus),
	)
	c.JSON(http.StatusOK, gin.H{"docs_status": req.DocsStatus})
}

// SetAvailability handles POST /v1/drivers/availability
func (h *Handlers) SetAvailability(c *gin.Context) {
	actor, ok := identity(c)
	if !ok || actor.Role != dispatch.RoleDriver {
		badRequest(c, "A driver identity is required")
		return
	}

	var req dto.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.Registry.SetOnline(c.Request.Context(), actor.ID, *req.Online); err != nil {
		h.respondError(c, err)
		return
	}

	h.Logger.Info("Driver availability changed",
		logger.String("driver_id", actor.ID.String()),
		logger.Bool("online", *req.Online),
	)
	c.JSON(http.StatusOK, gin.H{"online": *req.Online})
}

// UpdateLocation handles POST /v1/drivers/location
func (h *Handlers) UpdateLocation(c *gin.Context) {
	actor, ok := identity(c)
	if !ok || actor.Role != dispatch.RoleDriver {
		badRequest(c, "A driver identity is required")
		return
	}

	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	loc := geo.Point{Latitude: req.Latitude, Longitude: req.Longitude}
	if !loc.InRange() {
		badRequest(c, "Coordinates out of range")
		return
	}

	if err := h.Engine.ReportLocation(c.Request.Context(), actor.ID, loc); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// RespondOffer handles POST /v1/drivers/offers/respond
func (h *Handlers) RespondOffer(c *gin.Context) {
	actor, ok := identity(c)
	if !ok || actor.Role != dispatch.RoleDriver {
		badRequest(c, "A driver identity is required")
		return
	}

	var req dto.OfferResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		badRequest(c, "Invalid trip id")
		return
	}

	if err := h.Engine.Respond(tripID, actor.ID, *req.Accept); err != nil {
		h.respondError(c, err)
		return
	}

	h.Logger.Info("Offer answered",
		logger.String("trip_id", tripID.String()),
		logger.String("driver_id", actor.ID.String()),
		logger.Bool("accepted", *req.Accept),
	)
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func driverResponse(d driver.Driver) dto.DriverResponse {
	resp := dto.DriverResponse{
		ID:           d.ID,
		Online:       d.Online,
		DocsStatus:   string(d.DocsStatus),
		RatingAvg:    d.RatingAvg,
		AssignedTrip: d.AssignedTrip,
	}
	if d.Location != nil {
		resp.Location = &dto.LocationResponse{
			Latitude:  d.Location.Latitude,
			Longitude: d.Location.Longitude,
		}
	}
	return resp
}
