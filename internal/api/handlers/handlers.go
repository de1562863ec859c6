package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/trip-dispatch/internal/api/dto"
	"github.com/gocomet/trip-dispatch/internal/domain/driver"
	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/gocomet/trip-dispatch/internal/registry"
	"github.com/gocomet/trip-dispatch/internal/service/dispatch"
	"github.com/gocomet/trip-dispatch/internal/service/pricing"
	"github.com/gocomet/trip-dispatch/pkg/errors"
	"github.com/gocomet/trip-dispatch/pkg/logger"
	"github.com/gocomet/trip-dispatch/pkg/websocket"
	"github.com/google/uuid"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Engine    *dispatch.Engine
	Registry  *registry.Registry
	Estimator *pricing.Estimator
	Surge     pricing.SurgeProvider
	Hub       *websocket.Hub
	Logger    *logger.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine *dispatch.Engine, reg *registry.Registry, estimator *pricing.Estimator,
	surge pricing.SurgeProvider, hub *websocket.Hub, log *logger.Logger) *Handlers {
	if surge == nil {
		surge = pricing.StaticSurge(pricing.DefaultSurge)
	}
	return &Handlers{
		Engine:    engine,
		Registry:  reg,
		Estimator: estimator,
		Surge:     surge,
		Hub:       hub,
		Logger:    log,
	}
}

// identity reads the caller's identity from the trusted gateway headers
func identity(c *gin.Context) (dispatch.Actor, bool) {
	id, err := uuid.Parse(c.GetHeader("X-User-ID"))
	if err != nil {
		return dispatch.Actor{}, false
	}
	role := c.GetHeader("X-User-Role")
	switch role {
	case dispatch.RoleRider, dispatch.RoleDriver, dispatch.RoleAdmin:
		return dispatch.Actor{ID: id, Role: role}, true
	}
	return dispatch.Actor{}, false
}

// respondError maps domain errors onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	var appErr *errors.AppError

	switch {
	case stderrors.As(err, &appErr):
		// already wire-shaped
	case stderrors.Is(err, trip.ErrTripNotFound):
		appErr = errors.NotFound("Trip not found", err)
	case stderrors.Is(err, driver.ErrDriverNotFound):
		appErr = errors.NotFound("Driver not found", err)
	case stderrors.Is(err, trip.ErrNotAuthorized):
		appErr = errors.NotAuthorized("Not permitted to act on this trip", err)
	case stderrors.Is(err, trip.ErrInvalidTransition):
		appErr = errors.InvalidTransition("Transition not allowed from current state", err)
	case stderrors.Is(err, trip.ErrStaleState):
		appErr = errors.StaleState("Trip state changed concurrently", err)
	case stderrors.Is(err, driver.ErrIneligible):
		appErr = errors.DriverIneligible("Driver cannot take this trip", err)
	case stderrors.Is(err, driver.ErrDriverExists):
		appErr = errors.NewAppError("DRIVER_EXISTS", "Driver already registered", http.StatusConflict, err)
	case stderrors.Is(err, driver.ErrInvalidDocsStatus):
		appErr = errors.NewAppError("BAD_REQUEST", "Unknown docs status", http.StatusBadRequest, err)
	case stderrors.Is(err, dispatch.ErrNoPendingOffer):
		appErr = errors.NotFound("No pending offer", err)
	default:
		h.Logger.Error("Unhandled error", logger.Err(err))
		appErr = errors.Internal("Internal server error", err)
	}

	c.JSON(appErr.Status, dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: "BAD_REQUEST", Message: message})
}
