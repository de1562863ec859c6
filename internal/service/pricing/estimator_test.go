package pricing

import (
	"context"
	"testing"

	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/stretchr/testify/assert"
)

var (
	testPickup  = geo.Point{Latitude: 12.9716, Longitude: 77.5946}
	testDropoff = geo.Point{Latitude: 12.9352, Longitude: 77.6245}
)

// TestQuote_FormulaAndRounding tests the fare formula with known distances
func TestQuote_FormulaAndRounding(t *testing.T) {
	e := NewEstimator(DefaultConfig())

	distance := geo.DistanceKm(testPickup, testDropoff)

	tests := []struct {
		name  string
		class trip.VehicleClass
		surge float64
		rate  float64
	}{
		{"economy no surge", trip.ClassEconomy, 1.0, 2.50},
		{"xl no surge", trip.ClassXL, 1.0, 3.50},
		{"premium no surge", trip.ClassPremium, 1.0, 5.00},
		{"economy surge 1.8", trip.ClassEconomy, 1.8, 2.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fare := e.Quote(testPickup, testDropoff, tt.class, tt.surge)
			raw := distance * tt.rate * tt.surge
			assert.InDelta(t, raw, fare, 0.005, "Fare should equal the raw formula within rounding")
			assert.Equal(t, roundHalfUp(raw), fare, "Fare should be rounded half-up to 2 decimals")
		})
	}
}

// TestQuote_ZeroDistance tests a degenerate trip costs nothing
func TestQuote_ZeroDistance(t *testing.T) {
	e := NewEstimator(DefaultConfig())

	fare := e.Quote(testPickup, testPickup, trip.ClassPremium, 2.5)
	assert.Equal(t, 0.0, fare)
}

// TestQuote_DefaultSurge tests a non-positive surge falls back to 1.0
func TestQuote_DefaultSurge(t *testing.T) {
	e := NewEstimator(DefaultConfig())

	base := e.Quote(testPickup, testDropoff, trip.ClassEconomy, 1.0)
	assert.Equal(t, base, e.Quote(testPickup, testDropoff, trip.ClassEconomy, 0))
	assert.Equal(t, base, e.Quote(testPickup, testDropoff, trip.ClassEconomy, -2))
}

// TestQuote_MonotonicInDistance tests longer trips never cost less
func TestQuote_MonotonicInDistance(t *testing.T) {
	e := NewEstimator(DefaultConfig())

	near := geo.Point{Latitude: 12.98, Longitude: 77.60}
	far := geo.Point{Latitude: 13.10, Longitude: 77.75}

	nearFare := e.Quote(testPickup, near, trip.ClassEconomy, 1.0)
	farFare := e.Quote(testPickup, far, trip.ClassEconomy, 1.0)

	assert.LessOrEqual(t, nearFare, farFare)
}

// TestQuote_MonotonicInVehicleClass tests class ordering economy <= xl <= premium
func TestQuote_MonotonicInVehicleClass(t *testing.T) {
	e := NewEstimator(DefaultConfig())

	economy := e.Quote(testPickup, testDropoff, trip.ClassEconomy, 1.0)
	xl := e.Quote(testPickup, testDropoff, trip.ClassXL, 1.0)
	premium := e.Quote(testPickup, testDropoff, trip.ClassPremium, 1.0)

	assert.LessOrEqual(t, economy, xl, "Economy should not cost more than XL")
	assert.LessOrEqual(t, xl, premium, "XL should not cost more than Premium")
}

// TestQuote_SurgeMultiplies tests surge scales the fare
func TestQuote_SurgeMultiplies(t *testing.T) {
	e := NewEstimator(DefaultConfig())

	base := e.Quote(testPickup, testDropoff, trip.ClassEconomy, 1.0)
	surged := e.Quote(testPickup, testDropoff, trip.ClassEconomy, 2.0)

	assert.InDelta(t, base*2, surged, 0.02)
}

// TestETAMinutes tests the ceiling at the configured average speed
func TestETAMinutes(t *testing.T) {
	e := NewEstimator(DefaultConfig())

	tests := []struct {
		distanceKm float64
		expected   int
	}{
		{0, 0},
		{0.5, 1},   // 1 minute at 30 km/h
		{15, 30},   // exactly half an hour
		{15.1, 31}, // rounds up
		{30, 60},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, e.ETAMinutes(tt.distanceKm), "distance %.1f km", tt.distanceKm)
	}
}

// TestRoundHalfUp tests half-up tie behavior
func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 0.13, roundHalfUp(0.125)) // exact binary tie rounds up
	assert.Equal(t, 0.38, roundHalfUp(0.375))
	assert.Equal(t, 2.34, roundHalfUp(2.344))
	assert.Equal(t, 2.35, roundHalfUp(2.346))
	assert.Equal(t, 0.0, roundHalfUp(0))
}

// TestStaticSurge tests the fixed provider
func TestStaticSurge(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, 1.5, StaticSurge(1.5).SurgeMultiplier(ctx, "blr"))
	assert.Equal(t, DefaultSurge, StaticSurge(0).SurgeMultiplier(ctx, "blr"))
}

// BenchmarkQuote benchmarks fare calculation
func BenchmarkQuote(b *testing.B) {
	e := NewEstimator(DefaultConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Quote(testPickup, testDropoff, trip.ClassEconomy, 1.0)
	}
}
