package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Config holds database configuration
type Config struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MaxIdle     int
	MaxLifetime time.Duration
}

// NewPostgresDB creates a PostgreSQL connection pool for the trip store
func NewPostgresDB(cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	} else {
		db.SetMaxOpenConns(25)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	} else {
		db.SetMaxIdleConns(5)
	}
	if cfg.MaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the trips table if it does not exist
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trips (
			id                UUID PRIMARY KEY,
			rider_id          UUID NOT NULL,
			driver_id         UUID,
			status            TEXT NOT NULL,
			vehicle_class     TEXT NOT NULL,
			pickup_latitude   DOUBLE PRECISION NOT NULL,
			pickup_longitude  DOUBLE PRECISION NOT NULL,
			dropoff_latitude  DOUBLE PRECISION NOT NULL,
			dropoff_longitude DOUBLE PRECISION NOT NULL,
			fare_estimate     DOUBLE PRECISION NOT NULL,
			fare_final        DOUBLE PRECISION,
			created_at        TIMESTAMPTZ NOT NULL,
			started_at        TIMESTAMPTZ,
			ended_at          TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_trips_rider ON trips (rider_id);
		CREATE INDEX IF NOT EXISTS idx_trips_status ON trips (status);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
