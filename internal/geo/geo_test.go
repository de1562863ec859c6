package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDistanceKm_ZeroForSamePoint tests self-distance is zero
func TestDistanceKm_ZeroForSamePoint(t *testing.T) {
	points := []Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 12.9716, Longitude: 77.5946},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 89.9, Longitude: -179.9},
	}

	for _, p := range points {
		assert.Equal(t, 0.0, DistanceKm(p, p), "Distance from a point to itself should be zero")
	}
}

// TestDistanceKm_Symmetry tests distance is symmetric
func TestDistanceKm_Symmetry(t *testing.T) {
	a := Point{Latitude: 12.9716, Longitude: 77.5946} // Bangalore
	b := Point{Latitude: 28.6139, Longitude: 77.2090} // Delhi

	assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9, "Distance should be symmetric")
}

// TestDistanceKm_KnownPairs tests distances against known values
func TestDistanceKm_KnownPairs(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
		delta    float64
	}{
		{
			name:     "Bangalore to Delhi",
			a:        Point{Latitude: 12.9716, Longitude: 77.5946},
			b:        Point{Latitude: 28.6139, Longitude: 77.2090},
			expected: 1740.0,
			delta:    10.0,
		},
		{
			name:     "One degree of latitude at the equator",
			a:        Point{Latitude: 0, Longitude: 0},
			b:        Point{Latitude: 1, Longitude: 0},
			expected: 111.19,
			delta:    0.1,
		},
		{
			name:     "Short urban hop",
			a:        Point{Latitude: 12.9716, Longitude: 77.5946},
			b:        Point{Latitude: 12.9750, Longitude: 77.5990},
			expected: 0.61,
			delta:    0.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceKm(tt.a, tt.b), tt.delta)
		})
	}
}

// TestBearing_CardinalDirections tests bearing basics
func TestBearing_CardinalDirections(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}

	assert.InDelta(t, 0.0, Bearing(origin, Point{Latitude: 1, Longitude: 0}), 0.01, "Due north")
	assert.InDelta(t, 90.0, Bearing(origin, Point{Latitude: 0, Longitude: 1}), 0.01, "Due east")
	assert.InDelta(t, 180.0, Bearing(origin, Point{Latitude: -1, Longitude: 0}), 0.01, "Due south")
	assert.InDelta(t, 270.0, Bearing(origin, Point{Latitude: 0, Longitude: -1}), 0.01, "Due west")
}

// TestInRange tests coordinate range validation
func TestInRange(t *testing.T) {
	assert.True(t, Point{Latitude: 45, Longitude: 90}.InRange())
	assert.True(t, Point{Latitude: -90, Longitude: 180}.InRange())
	assert.False(t, Point{Latitude: 91, Longitude: 0}.InRange())
	assert.False(t, Point{Latitude: 0, Longitude: -181}.InRange())
}

// BenchmarkDistanceKm benchmarks distance calculation
func BenchmarkDistanceKm(b *testing.B) {
	p1 := Point{Latitude: 12.9716, Longitude: 77.5946}
	p2 := Point{Latitude: 28.6139, Longitude: 77.2090}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DistanceKm(p1, p2)
	}
}
