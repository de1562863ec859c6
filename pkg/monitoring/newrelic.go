package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
}

// Monitor wraps the New Relic application. A disabled monitor is safe to
// use; every method becomes a no-op.
type Monitor struct {
	*newrelic.Application
	enabled bool
}

// New creates a monitor, disabled when no license key is configured
func New(cfg Config) (*Monitor, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return &Monitor{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &Monitor{app, true}, nil
}

// StartTransaction starts a new transaction
func (m *Monitor) StartTransaction(name string) *newrelic.Transaction {
	if !m.enabled || m.Application == nil {
		return nil
	}
	return m.Application.StartTransaction(name)
}

// RecordCustomEvent records a custom event
func (m *Monitor) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !m.enabled || m.Application == nil {
		return
	}
	m.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (m *Monitor) RecordCustomMetric(name string, value float64) {
	if !m.enabled || m.Application == nil {
		return
	}
	m.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the monitor
func (m *Monitor) Shutdown(timeout time.Duration) {
	if !m.enabled || m.Application == nil {
		return
	}
	m.Application.Shutdown(timeout)
}

// IsEnabled returns whether New Relic is enabled
func (m *Monitor) IsEnabled() bool {
	return m.enabled
}

// Dispatch metric helpers

// RecordTripRequested records a trip entering the pipeline
func (m *Monitor) RecordTripRequested(vehicleClass string) {
	m.RecordCustomEvent("TripRequested", map[string]interface{}{
		"vehicle_class": vehicleClass,
		"timestamp":     time.Now().Unix(),
	})
}

// RecordMatchLatency records how long an offer round ran and how it ended
func (m *Monitor) RecordMatchLatency(elapsed time.Duration, result string) {
	m.RecordCustomMetric(fmt.Sprintf("custom/dispatch/match_latency_ms/%s", result),
		float64(elapsed.Milliseconds()))
}

// RecordTripMatched records a successful match and which candidate took it
func (m *Monitor) RecordTripMatched(distanceKm float64, candidateRank int) {
	m.RecordCustomEvent("TripMatched", map[string]interface{}{
		"distance_km":    distanceKm,
		"candidate_rank": candidateRank,
	})
}

// RecordTripUnmatched records a trip no driver took
func (m *Monitor) RecordTripUnmatched() {
	m.RecordCustomMetric("custom/dispatch/trip_unmatched", 1)
}

// RecordTripCancelled records a cancellation and who asked for it
func (m *Monitor) RecordTripCancelled(actorRole string) {
	m.RecordCustomEvent("TripCancelled", map[string]interface{}{
		"actor_role": actorRole,
	})
}

// RecordTripCompleted records a completed trip and its final fare
func (m *Monitor) RecordTripCompleted(fare float64) {
	m.RecordCustomEvent("TripCompleted", map[string]interface{}{
		"fare": fare,
	})
}

// RecordLocationUpdate records a driver location report
func (m *Monitor) RecordLocationUpdate() {
	m.RecordCustomMetric("custom/driver/location_update", 1)
}

// RecordSurgeMultiplier records the surge multiplier applied for a region
func (m *Monitor) RecordSurgeMultiplier(region string, multiplier float64) {
	m.RecordCustomMetric(fmt.Sprintf("custom/pricing/surge_multiplier/%s", region), multiplier)
}
