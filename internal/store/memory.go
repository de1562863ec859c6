package store

import (
	"context"
	"sync"

	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/google/uuid"
)

// lockedTrip serializes transitions per trip; the outer map lock only
// guards membership, so CAS on one trip never blocks another.
type lockedTrip struct {
	mu sync.Mutex
	t  *trip.Trip
}

// MemoryStore is the in-process trip.Repository. It backs tests and
// single-node deployments; durable storage plugs in behind the same
// contract.
type MemoryStore struct {
	mu    sync.RWMutex
	trips map[uuid.UUID]*lockedTrip
}

// NewMemoryStore creates an empty trip store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trips: make(map[uuid.UUID]*lockedTrip)}
}

// Create stores a new trip record
func (m *MemoryStore) Create(_ context.Context, t *trip.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trips[t.ID]; ok {
		return trip.ErrTripExists
	}
	m.trips[t.ID] = &lockedTrip{t: t.Clone()}
	return nil
}

// GetByID returns a snapshot of a trip
func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*trip.Trip, error) {
	lt, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.t.Clone(), nil
}

// CompareAndTransition applies the mutator and moves the trip from
// expected to next under the trip's lock. On any failure the record is
// untouched.
func (m *MemoryStore) CompareAndTransition(_ context.Context, id uuid.UUID, expected, next trip.Status, mutate trip.Mutator) (*trip.Trip, error) {
	if !expected.CanTransitionTo(next) {
		return nil, trip.ErrInvalidTransition
	}

	lt, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	lt.mu.Lock()
	defer lt.mu.Unlock()

	if lt.t.Status != expected {
		return nil, trip.ErrStaleState
	}

	updated := lt.t.Clone()
	if mutate != nil {
		mutate(updated)
	}
	updated.Status = next
	lt.t = updated
	return updated.Clone(), nil
}

func (m *MemoryStore) lookup(id uuid.UUID) (*lockedTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lt, ok := m.trips[id]
	if !ok {
		return nil, trip.ErrTripNotFound
	}
	return lt, nil
}
