package driver

import (
	"time"

	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/google/uuid"
)

// DocsStatus represents the document verification state set by admin review
type DocsStatus string

const (
	DocsPending  DocsStatus = "pending"
	DocsApproved DocsStatus = "approved"
	DocsRejected DocsStatus = "rejected"
)

// IsValid validates the docs status
func (d DocsStatus) IsValid() bool {
	switch d {
	case DocsPending, DocsApproved, DocsRejected:
		return true
	}
	return false
}

// Driver represents a driver's registry record. Online, Location and
// AssignedTrip are the mutable fields and are always read and written as
// one atomic unit by the registry.
type Driver struct {
	ID           uuid.UUID  `json:"id"`
	Online       bool       `json:"online"`
	DocsStatus   DocsStatus `json:"docs_status"`
	RatingAvg    float64    `json:"rating_avg"`
	Location     *geo.Point `json:"location,omitempty"`
	AssignedTrip *uuid.UUID `json:"assigned_trip,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Matchable reports whether the driver qualifies as a candidate: online,
// docs approved, located and not holding a trip.
func (d *Driver) Matchable() bool {
	return d.Online && d.DocsStatus == DocsApproved && d.Location != nil && d.AssignedTrip == nil
}
