package dispatch

import (
	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/google/uuid"
)

// Notifier delivers dispatch events over the transport collaborator.
// Delivery is best-effort; the engine never blocks on it.
type Notifier interface {
	// OfferTrip presents an offer to a candidate driver. The driver's
	// answer comes back asynchronously through Engine.Respond.
	OfferTrip(driverID uuid.UUID, offer Offer)

	// OfferWithdrawn tells a driver their pending offer is no longer
	// actionable (timed out or the round moved on).
	OfferWithdrawn(driverID, tripID uuid.UUID)

	// TripMatched tells both parties a driver was assigned.
	TripMatched(t *trip.Trip)

	// TripUnmatched tells the rider no driver accepted.
	TripUnmatched(t *trip.Trip)

	// TripUpdated reports any other lifecycle change to both parties.
	TripUpdated(t *trip.Trip)
}

// NopNotifier discards every event; used when no transport is wired.
type NopNotifier struct{}

func (NopNotifier) OfferTrip(uuid.UUID, Offer)          {}
func (NopNotifier) OfferWithdrawn(uuid.UUID, uuid.UUID) {}
func (NopNotifier) TripMatched(*trip.Trip)              {}
func (NopNotifier) TripUnmatched(*trip.Trip)            {}
func (NopNotifier) TripUpdated(*trip.Trip)              {}
