package dto

import (
	"time"

	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/google/uuid"
)

// QuoteRequest asks for a fare estimate without creating a trip
type QuoteRequest struct {
	PickupLatitude   float64 `json:"pickup_latitude" binding:"required"`
	PickupLongitude  float64 `json:"pickup_longitude" binding:"required"`
	DropoffLatitude  float64 `json:"dropoff_latitude" binding:"required"`
	DropoffLongitude float64 `json:"dropoff_longitude" binding:"required"`
	VehicleClass     string  `json:"vehicle_class" binding:"required,oneof=economy xl premium"`
	Region           string  `json:"region,omitempty"`
}

// QuoteResponse carries the estimate back
type QuoteResponse struct {
	DistanceKm   float64 `json:"distance_km"`
	EtaMinutes   int     `json:"eta_minutes"`
	FareEstimate float64 `json:"fare_estimate"`
	Currency     string  `json:"currency"`
	SurgeApplied float64 `json:"surge_applied"`
	VehicleClass string  `json:"vehicle_class"`
}

// CreateTripRequest represents a rider requesting a trip
type CreateTripRequest struct {
	PickupLatitude   float64 `json:"pickup_latitude" binding:"required"`
	PickupLongitude  float64 `json:"pickup_longitude" binding:"required"`
	DropoffLatitude  float64 `json:"dropoff_latitude" binding:"required"`
	DropoffLongitude float64 `json:"dropoff_longitude" binding:"required"`
	VehicleClass     string  `json:"vehicle_class" binding:"required,oneof=economy xl premium"`
	Region           string  `json:"region,omitempty"`
}

// RegisterDriverRequest onboards a driver into the registry
type RegisterDriverRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// DocsReviewRequest records an admin's document review verdict
type DocsReviewRequest struct {
	DocsStatus string `json:"docs_status" binding:"required,oneof=approved rejected"`
}

// AvailabilityRequest toggles a driver's online flag
type AvailabilityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// UpdateLocationRequest represents a driver location report
type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// OfferResponseRequest carries a driver's answer to a pending offer
type OfferResponseRequest struct {
	TripID string `json:"trip_id" binding:"required"`
	Accept *bool  `json:"accept" binding:"required"`
}

// LocationResponse is a latitude/longitude pair
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TripResponse is the wire form of a trip
type TripResponse struct {
	ID              uuid.UUID        `json:"id"`
	RiderID         uuid.UUID        `json:"rider_id"`
	DriverID        *uuid.UUID       `json:"driver_id,omitempty"`
	Status          string           `json:"status"`
	VehicleClass    string           `json:"vehicle_class"`
	PickupLocation  LocationResponse `json:"pickup_location"`
	DropoffLocation LocationResponse `json:"dropoff_location"`
	FareEstimate    float64          `json:"fare_estimate"`
	FareFinal       *float64         `json:"fare_final,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	EndedAt         *time.Time       `json:"ended_at,omitempty"`
}

// NewTripResponse maps a trip record to its wire form
func NewTripResponse(t *trip.Trip) TripResponse {
	return TripResponse{
		ID:           t.ID,
		RiderID:      t.RiderID,
		DriverID:     t.DriverID,
		Status:       string(t.Status),
		VehicleClass: string(t.VehicleClass),
		PickupLocation: LocationResponse{
			Latitude:  t.PickupPoint.Latitude,
			Longitude: t.PickupPoint.Longitude,
		},
		DropoffLocation: LocationResponse{
			Latitude:  t.DropoffPoint.Latitude,
			Longitude: t.DropoffPoint.Longitude,
		},
		FareEstimate: t.FareEstimate,
		FareFinal:    t.FareFinal,
		CreatedAt:    t.CreatedAt,
		StartedAt:    t.StartedAt,
		EndedAt:      t.EndedAt,
	}
}

// DriverResponse is the wire form of a registry record
type DriverResponse struct {
	ID           uuid.UUID         `json:"id"`
	Online       bool              `json:"online"`
	DocsStatus   string            `json:"docs_status"`
	RatingAvg    float64           `json:"rating_avg"`
	Location     *LocationResponse `json:"location,omitempty"`
	AssignedTrip *uuid.UUID        `json:"assigned_trip,omitempty"`
}

// ErrorResponse is the wire form of an error
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
