package trip

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestStatus_CanTransitionTo tests the full lifecycle edge table
func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"requested to accepted", StatusRequested, StatusAccepted, true},
		{"requested to cancelled", StatusRequested, StatusCancelled, true},
		{"requested to unmatched", StatusRequested, StatusUnmatched, true},
		{"requested to enroute", StatusRequested, StatusEnroute, false},
		{"requested to completed", StatusRequested, StatusCompleted, false},
		{"accepted to enroute", StatusAccepted, StatusEnroute, true},
		{"accepted to cancelled", StatusAccepted, StatusCancelled, true},
		{"accepted to unmatched", StatusAccepted, StatusUnmatched, false},
		{"enroute to completed", StatusEnroute, StatusCompleted, true},
		{"enroute to cancelled", StatusEnroute, StatusCancelled, false},
		{"completed is terminal", StatusCompleted, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusRequested, false},
		{"unmatched is terminal", StatusUnmatched, StatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// TestStatus_IsTerminal tests terminal state detection
func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusRequested.IsTerminal())
	assert.False(t, StatusAccepted.IsTerminal())
	assert.False(t, StatusEnroute.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusUnmatched.IsTerminal())
}

// TestVehicleClass_IsValid tests the closed class set
func TestVehicleClass_IsValid(t *testing.T) {
	assert.True(t, ClassEconomy.IsValid())
	assert.True(t, ClassXL.IsValid())
	assert.True(t, ClassPremium.IsValid())
	assert.False(t, VehicleClass("luxury").IsValid())
	assert.False(t, VehicleClass("").IsValid())
}

// TestTrip_Clone tests copies do not alias pointer fields
func TestTrip_Clone(t *testing.T) {
	driverID := uuid.New()
	started := time.Now()
	fare := 42.50

	original := &Trip{
		ID:           uuid.New(),
		RiderID:      uuid.New(),
		DriverID:     &driverID,
		Status:       StatusEnroute,
		FareEstimate: 40.00,
		FareFinal:    &fare,
		StartedAt:    &started,
	}

	clone := original.Clone()
	assert.Equal(t, original, clone)

	*clone.DriverID = uuid.New()
	*clone.FareFinal = 99.99
	assert.Equal(t, driverID, *original.DriverID, "Clone must not alias DriverID")
	assert.Equal(t, 42.50, *original.FareFinal, "Clone must not alias FareFinal")
}
