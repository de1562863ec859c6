package registry

import (
	"context"

	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const locationKey = "drivers:locations"

// RedisMirror maintains a geo-spatial copy of online driver locations in
// Redis for ops tooling and cross-instance reads. The in-process registry
// stays the matching authority; this index is advisory.
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror creates a Redis-backed location mirror
func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

// Upsert writes the driver's position into the geo index
func (m *RedisMirror) Upsert(ctx context.Context, driverID uuid.UUID, loc geo.Point) error {
	return m.client.GeoAdd(ctx, locationKey, &redis.GeoLocation{
		Name:      driverID.String(),
		Longitude: loc.Longitude,
		Latitude:  loc.Latitude,
	}).Err()
}

// Remove drops the driver from the geo index
func (m *RedisMirror) Remove(ctx context.Context, driverID uuid.UUID) error {
	return m.client.ZRem(ctx, locationKey, driverID.String()).Err()
}

// Nearby queries the mirrored index within radiusKm of a point, closest
// first. Results may lag the registry by in-flight updates.
func (m *RedisMirror) Nearby(ctx context.Context, origin geo.Point, radiusKm float64, limit int) ([]redis.GeoLocation, error) {
	return m.client.GeoRadius(ctx, locationKey, origin.Longitude, origin.Latitude, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Count:     limit,
		Sort:      "ASC",
	}).Result()
}
