package broadcast

import (
	"sync"
	"time"

	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/gocomet/trip-dispatch/pkg/logger"
	"github.com/google/uuid"
)

// Update is one driver position report shaped for subscribers.
// HeadingDeg is the bearing from the previous report, zero when unknown.
type Update struct {
	TripID     uuid.UUID `json:"trip_id"`
	DriverID   uuid.UUID `json:"driver_id"`
	Location   geo.Point `json:"location"`
	HeadingDeg float64   `json:"heading_deg"`
	Timestamp  time.Time `json:"timestamp"`
}

// Sink receives updates for one subscriber. Delivery errors are treated
// as best-effort losses, never retried.
type Sink interface {
	Deliver(Update) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(Update) error

func (f SinkFunc) Deliver(u Update) error { return f(u) }

// Broadcaster owns per-trip subscription bookkeeping and fans driver
// location updates out to current subscribers. Delivery is at-most-once
// per Publish: a subscriber joining afterwards never sees that update.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[string]Sink // tripID -> subscriberID -> sink
	logger *logger.Logger
}

// New creates an empty broadcaster
func New(log *logger.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[uuid.UUID]map[string]Sink),
		logger: log,
	}
}

// Subscribe adds a listener for a trip's location channel. Re-subscribing
// with the same id replaces the previous sink.
func (b *Broadcaster) Subscribe(tripID uuid.UUID, subscriberID string, sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners, ok := b.subs[tripID]
	if !ok {
		listeners = make(map[string]Sink)
		b.subs[tripID] = listeners
	}
	listeners[subscriberID] = sink
}

// Unsubscribe removes one listener from a trip's channel
func (b *Broadcaster) Unsubscribe(tripID uuid.UUID, subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if listeners, ok := b.subs[tripID]; ok {
		delete(listeners, subscriberID)
		if len(listeners) == 0 {
			delete(b.subs, tripID)
		}
	}
}

// DropSubscriber removes a listener from every trip channel; called when
// the transport reports a disconnect.
func (b *Broadcaster) DropSubscriber(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for tripID, listeners := range b.subs {
		delete(listeners, subscriberID)
		if len(listeners) == 0 {
			delete(b.subs, tripID)
		}
	}
}

// Publish fans an update out to the trip's current subscribers
func (b *Broadcaster) Publish(update Update) {
	b.mu.RLock()
	listeners := make([]Sink, 0, len(b.subs[update.TripID]))
	ids := make([]string, 0, len(b.subs[update.TripID]))
	for id, sink := range b.subs[update.TripID] {
		listeners = append(listeners, sink)
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	for i, sink := range listeners {
		if err := sink.Deliver(update); err != nil && b.logger != nil {
			b.logger.Warn("Failed to deliver location update",
				logger.String("trip_id", update.TripID.String()),
				logger.String("subscriber_id", ids[i]),
				logger.Err(err),
			)
		}
	}
}

// CloseTrip drops every subscription for a trip; called when the trip
// reaches a terminal state.
func (b *Broadcaster) CloseTrip(tripID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, tripID)
}

// SubscriberCount returns the number of listeners on a trip's channel
func (b *Broadcaster) SubscriberCount(tripID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[tripID])
}
