package dispatch

import (
	"time"

	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/gocomet/trip-dispatch/internal/registry"
	"github.com/google/uuid"
)

// CandidateStatus tracks one candidate's fate inside an offer round
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateDeclined CandidateStatus = "declined"
	CandidateTimedOut CandidateStatus = "timed-out"
	CandidateAccepted CandidateStatus = "accepted"
)

// RoundResult is the terminal outcome of one matching attempt
type RoundResult string

const (
	RoundMatched      RoundResult = "matched"
	RoundNoCandidates RoundResult = "no-candidates"
	RoundExhausted    RoundResult = "exhausted"
	RoundAborted      RoundResult = "aborted"
)

// RoundCandidate is one ranked driver and what happened to their offer
type RoundCandidate struct {
	DriverID   uuid.UUID       `json:"driver_id"`
	DistanceKm float64         `json:"distance_km"`
	Status     CandidateStatus `json:"status"`
}

// Round is the ephemeral record of one matching attempt: the ranked
// candidate list and per-candidate outcomes. It is never persisted.
type Round struct {
	TripID     uuid.UUID        `json:"trip_id"`
	Candidates []RoundCandidate `json:"candidates"`
	Result     RoundResult      `json:"result"`
	Winner     *uuid.UUID       `json:"winner,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`

	abort chan struct{}
}

func newRound(tripID uuid.UUID, candidates []registry.Candidate) *Round {
	r := &Round{
		TripID:     tripID,
		Candidates: make([]RoundCandidate, len(candidates)),
		StartedAt:  time.Now(),
		abort:      make(chan struct{}),
	}
	for i, c := range candidates {
		r.Candidates[i] = RoundCandidate{
			DriverID:   c.Driver.ID,
			DistanceKm: c.DistanceKm,
			Status:     CandidatePending,
		}
	}
	return r
}

func (r *Round) finish(result RoundResult) *Round {
	r.Result = result
	r.FinishedAt = time.Now()
	return r
}

// Offer is the payload presented to a candidate driver
type Offer struct {
	TripID       uuid.UUID         `json:"trip_id"`
	PickupPoint  geo.Point         `json:"pickup_point"`
	DropoffPoint geo.Point         `json:"dropoff_point"`
	VehicleClass trip.VehicleClass `json:"vehicle_class"`
	FareEstimate float64           `json:"fare_estimate"`
	DistanceKm   float64           `json:"distance_km"`
	ExpiresAt    time.Time         `json:"expires_at"`
}
