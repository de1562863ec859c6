package handlers

import (
	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/gocomet/trip-dispatch/internal/service/dispatch"
	"github.com/gocomet/trip-dispatch/pkg/websocket"
	"github.com/google/uuid"
)

// HubNotifier delivers dispatch events over the WebSocket hub. Offers
// go to the candidate driver; lifecycle changes go to the rider and,
// when assigned, the driver.
type HubNotifier struct {
	hub *websocket.Hub
}

// NewHubNotifier creates a hub-backed notifier
func NewHubNotifier(hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) OfferTrip(driverID uuid.UUID, offer dispatch.Offer) {
	n.hub.SendToUser(driverID.String(), websocket.Message{Type: "trip_offer", Data: offer})
}

func (n *HubNotifier) OfferWithdrawn(driverID uuid.UUID, tripID uuid.UUID) {
	n.hub.SendToUser(driverID.String(), websocket.Message{
		Type: "offer_withdrawn",
		Data: map[string]string{"trip_id": tripID.String()},
	})
}

func (n *HubNotifier) TripMatched(t *trip.Trip) {
	n.notifyParties(t, "trip_matched")
}

func (n *HubNotifier) TripUnmatched(t *trip.Trip) {
	n.notifyParties(t, "trip_unmatched")
}

func (n *HubNotifier) TripUpdated(t *trip.Trip) {
	n.notifyParties(t, "trip_updated")
}

func (n *HubNotifier) notifyParties(t *trip.Trip, event string) {
	msg := websocket.Message{Type: event, Data: t}
	n.hub.SendToUser(t.RiderID.String(), msg)
	if t.DriverID != nil {
		n.hub.SendToUser(t.DriverID.String(), msg)
	}
}
