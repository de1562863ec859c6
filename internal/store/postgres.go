package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore implements trip.Repository on PostgreSQL. The compare-
// and-transition runs inside a transaction with the row locked, so the
// same invariants hold as for the in-memory store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed trip store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new trip record
func (s *PostgresStore) Create(ctx context.Context, t *trip.Trip) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trips (
			id, rider_id, driver_id, status, vehicle_class,
			pickup_latitude, pickup_longitude,
			dropoff_latitude, dropoff_longitude,
			fare_estimate, fare_final,
			created_at, started_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		t.ID, t.RiderID, uuidPtr(t.DriverID), string(t.Status), string(t.VehicleClass),
		t.PickupPoint.Latitude, t.PickupPoint.Longitude,
		t.DropoffPoint.Latitude, t.DropoffPoint.Longitude,
		t.FareEstimate, t.FareFinal,
		t.CreatedAt, t.StartedAt, t.EndedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return trip.ErrTripExists
		}
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

// GetByID fetches a trip by id
func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	row := s.db.QueryRowContext(ctx, selectTrip+` WHERE id = $1`, id)
	return scanTrip(row)
}

// CompareAndTransition locks the row, verifies the expected status,
// applies the mutator in-process and writes every mutable column back.
func (s *PostgresStore) CompareAndTransition(ctx context.Context, id uuid.UUID, expected, next trip.Status, mutate trip.Mutator) (*trip.Trip, error) {
	if !expected.CanTransitionTo(next) {
		return nil, trip.ErrInvalidTransition
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectTrip+` WHERE id = $1 FOR UPDATE`, id)
	current, err := scanTrip(row)
	if err != nil {
		return nil, err
	}

	if current.Status != expected {
		return nil, trip.ErrStaleState
	}

	if mutate != nil {
		mutate(current)
	}
	current.Status = next

	_, err = tx.ExecContext(ctx, `
		UPDATE trips
		SET driver_id = $1, status = $2, fare_final = $3,
		    started_at = $4, ended_at = $5
		WHERE id = $6
	`, uuidPtr(current.DriverID), string(current.Status), current.FareFinal,
		current.StartedAt, current.EndedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return current, nil
}

const selectTrip = `
	SELECT id, rider_id, driver_id, status, vehicle_class,
	       pickup_latitude, pickup_longitude,
	       dropoff_latitude, dropoff_longitude,
	       fare_estimate, fare_final,
	       created_at, started_at, ended_at
	FROM trips`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*trip.Trip, error) {
	var t trip.Trip
	var driverID sql.NullString
	var status, class string
	var fareFinal sql.NullFloat64
	var startedAt, endedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.RiderID, &driverID, &status, &class,
		&t.PickupPoint.Latitude, &t.PickupPoint.Longitude,
		&t.DropoffPoint.Latitude, &t.DropoffPoint.Longitude,
		&t.FareEstimate, &fareFinal,
		&t.CreatedAt, &startedAt, &endedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, trip.ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan trip: %w", err)
	}

	t.Status = trip.Status(status)
	t.VehicleClass = trip.VehicleClass(class)
	if driverID.Valid {
		id, err := uuid.Parse(driverID.String)
		if err != nil {
			return nil, fmt.Errorf("parse driver id: %w", err)
		}
		t.DriverID = &id
	}
	if fareFinal.Valid {
		f := fareFinal.Float64
		t.FareFinal = &f
	}
	if startedAt.Valid {
		ts := startedAt.Time
		t.StartedAt = &ts
	}
	if endedAt.Valid {
		ts := endedAt.Time
		t.EndedAt = &ts
	}
	return &t, nil
}

func uuidPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
