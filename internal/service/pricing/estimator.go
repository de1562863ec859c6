package pricing

import (
	"math"

	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/gocomet/trip-dispatch/internal/geo"
)

// DefaultSurge is applied when no dynamic pricing signal is supplied
const DefaultSurge = 1.0

// Config holds pricing configuration. BaseRatePerKm must preserve the
// economy <= xl <= premium ordering; config validation enforces it.
type Config struct {
	BaseRatePerKm   map[trip.VehicleClass]float64
	AvgUrbanSpeedKm float64
}

// DefaultConfig returns the standard rate table
func DefaultConfig() Config {
	return Config{
		BaseRatePerKm: map[trip.VehicleClass]float64{
			trip.ClassEconomy: 2.50,
			trip.ClassXL:      3.50,
			trip.ClassPremium: 5.00,
		},
		AvgUrbanSpeedKm: 30.0,
	}
}

// Estimator computes fare quotes and ETAs. All methods are pure.
type Estimator struct {
	config Config
}

// NewEstimator creates a new fare estimator
func NewEstimator(config Config) *Estimator {
	if config.AvgUrbanSpeedKm <= 0 {
		config.AvgUrbanSpeedKm = 30.0
	}
	return &Estimator{config: config}
}

// Quote returns the monetary fare for a pickup/dropoff pair:
// distance x base rate for the class x surge, rounded half-up to 2
// decimal places. Surge is an external signal; pass DefaultSurge when
// none is supplied.
func (e *Estimator) Quote(pickup, dropoff geo.Point, class trip.VehicleClass, surge float64) float64 {
	if surge <= 0 {
		surge = DefaultSurge
	}
	distance := geo.DistanceKm(pickup, dropoff)
	fare := distance * e.config.BaseRatePerKm[class] * surge
	return roundHalfUp(fare)
}

// ETAMinutes returns the travel estimate for a distance at the configured
// average urban speed, rounded up to whole minutes.
func (e *Estimator) ETAMinutes(distanceKm float64) int {
	return int(math.Ceil(distanceKm / e.config.AvgUrbanSpeedKm * 60))
}

// roundHalfUp rounds to 2 decimal places, ties away from zero
func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
