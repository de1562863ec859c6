package pricing

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SurgeProvider resolves the externally supplied surge multiplier for a
// region. The core never computes surge itself.
type SurgeProvider interface {
	SurgeMultiplier(ctx context.Context, region string) float64
}

// StaticSurge always returns the same multiplier; used when dynamic
// pricing is disabled.
type StaticSurge float64

func (s StaticSurge) SurgeMultiplier(_ context.Context, _ string) float64 {
	if s <= 0 {
		return DefaultSurge
	}
	return float64(s)
}

// RedisSurge reads per-region multipliers published by the pricing
// pipeline into surge:{region} keys, clamped to [min, max]. A missing key
// or Redis failure falls back to no surge.
type RedisSurge struct {
	client *redis.Client
	min    float64
	max    float64
}

// NewRedisSurge creates a Redis-backed surge provider
func NewRedisSurge(client *redis.Client, min, max float64) *RedisSurge {
	if min <= 0 {
		min = 1.0
	}
	if max < min {
		max = min
	}
	return &RedisSurge{client: client, min: min, max: max}
}

// SurgeMultiplier returns the current multiplier for a region
func (r *RedisSurge) SurgeMultiplier(ctx context.Context, region string) float64 {
	key := fmt.Sprintf("surge:%s", region)
	val, err := r.client.Get(ctx, key).Float64()
	if err != nil {
		return DefaultSurge
	}

	if val > r.max {
		return r.max
	}
	if val < r.min {
		return r.min
	}
	return val
}

// SetSurgeMultiplier publishes a region's multiplier, clamped to bounds
func (r *RedisSurge) SetSurgeMultiplier(ctx context.Context, region string, multiplier float64) error {
	if multiplier > r.max {
		multiplier = r.max
	}
	if multiplier < r.min {
		multiplier = r.min
	}

	key := fmt.Sprintf("surge:%s", region)
	return r.client.Set(ctx, key, multiplier, 0).Err()
}
