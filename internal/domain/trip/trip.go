package trip

import (
	"context"
	"time"

	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/google/uuid"
)

// Status represents the trip lifecycle state
type Status string

const (
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusEnroute   Status = "enroute"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusUnmatched Status = "unmatched"
)

// legal transitions out of each state; terminal states have no entries
var transitions = map[Status][]Status{
	StatusRequested: {StatusAccepted, StatusCancelled, StatusUnmatched},
	StatusAccepted:  {StatusEnroute, StatusCancelled},
	StatusEnroute:   {StatusCompleted},
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusAccepted, StatusEnroute,
		StatusCompleted, StatusCancelled, StatusUnmatched:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions leave this state
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusUnmatched:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> next is a legal lifecycle edge
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// VehicleClass is the requested vehicle category
type VehicleClass string

const (
	ClassEconomy VehicleClass = "economy"
	ClassXL      VehicleClass = "xl"
	ClassPremium VehicleClass = "premium"
)

// IsValid validates the vehicle class
func (v VehicleClass) IsValid() bool {
	switch v {
	case ClassEconomy, ClassXL, ClassPremium:
		return true
	}
	return false
}

// Trip represents one ride request tracked through its lifecycle.
// DriverID is set exactly once by a successful match and is present iff
// the trip is in accepted, enroute or completed state.
type Trip struct {
	ID           uuid.UUID    `json:"id"`
	RiderID      uuid.UUID    `json:"rider_id"`
	DriverID     *uuid.UUID   `json:"driver_id,omitempty"`
	PickupPoint  geo.Point    `json:"pickup_point"`
	DropoffPoint geo.Point    `json:"dropoff_point"`
	VehicleClass VehicleClass `json:"vehicle_class"`
	FareEstimate float64      `json:"fare_estimate"`
	FareFinal    *float64     `json:"fare_final,omitempty"`
	Status       Status       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	EndedAt      *time.Time   `json:"ended_at,omitempty"`
}

// Clone returns a deep copy so store readers never share mutable state
// with callers.
func (t *Trip) Clone() *Trip {
	c := *t
	if t.DriverID != nil {
		id := *t.DriverID
		c.DriverID = &id
	}
	if t.FareFinal != nil {
		f := *t.FareFinal
		c.FareFinal = &f
	}
	if t.StartedAt != nil {
		ts := *t.StartedAt
		c.StartedAt = &ts
	}
	if t.EndedAt != nil {
		ts := *t.EndedAt
		c.EndedAt = &ts
	}
	return &c
}

// Mutator applies field changes inside a compare-and-transition. It runs
// with the trip record locked and must not touch ID, RiderID or Status.
type Mutator func(*Trip)

// Repository defines the trip store contract. CompareAndTransition is the
// only mutation path after Create: it applies the mutator and moves the
// trip from expected to next atomically. It fails with ErrStaleState when
// the current status no longer matches expected, and ErrInvalidTransition
// when expected -> next is not a legal edge; in both cases the trip is
// left unchanged.
type Repository interface {
	Create(ctx context.Context, t *Trip) error
	GetByID(ctx context.Context, id uuid.UUID) (*Trip, error)
	CompareAndTransition(ctx context.Context, id uuid.UUID, expected, next Status, mutate Mutator) (*Trip, error)
}
