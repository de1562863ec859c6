package broadcast

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu      sync.Mutex
	updates []Update
}

func (c *captureSink) Deliver(u Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.updates)
}

// TestPublish_FansOutToAllSubscribers tests every current listener
// receives the update
func TestPublish_FansOutToAllSubscribers(t *testing.T) {
	b := New(nil)
	tripID := uuid.New()
	driverID := uuid.New()
	loc := geo.Point{Latitude: 12.97, Longitude: 77.59}

	rider := &captureSink{}
	observer := &captureSink{}
	b.Subscribe(tripID, "rider-1", rider)
	b.Subscribe(tripID, "ops-1", observer)

	ts := time.Now()
	b.Publish(Update{TripID: tripID, DriverID: driverID, Location: loc, Timestamp: ts})

	require.Equal(t, 1, rider.count())
	require.Equal(t, 1, observer.count())
	assert.Equal(t, Update{TripID: tripID, DriverID: driverID, Location: loc, Timestamp: ts}, rider.updates[0])
}

// TestPublish_LateSubscriberMissesEarlierUpdates tests at-most-once, no
// replay
func TestPublish_LateSubscriberMissesEarlierUpdates(t *testing.T) {
	b := New(nil)
	tripID := uuid.New()
	driverID := uuid.New()

	early := &captureSink{}
	b.Subscribe(tripID, "early", early)
	b.Publish(Update{TripID: tripID, DriverID: driverID, Timestamp: time.Now()})

	late := &captureSink{}
	b.Subscribe(tripID, "late", late)
	b.Publish(Update{TripID: tripID, DriverID: driverID, Timestamp: time.Now()})

	assert.Equal(t, 2, early.count())
	assert.Equal(t, 1, late.count(), "late subscriber must not receive earlier updates")
}

// TestPublish_OtherTripsUnaffected tests channel isolation between trips
func TestPublish_OtherTripsUnaffected(t *testing.T) {
	b := New(nil)
	tripA, tripB := uuid.New(), uuid.New()

	sinkA := &captureSink{}
	sinkB := &captureSink{}
	b.Subscribe(tripA, "a", sinkA)
	b.Subscribe(tripB, "b", sinkB)

	b.Publish(Update{TripID: tripA, DriverID: uuid.New(), Timestamp: time.Now()})

	assert.Equal(t, 1, sinkA.count())
	assert.Equal(t, 0, sinkB.count())
}

// TestPublish_DeliveryFailureIsBestEffort tests one failing sink does not
// block the others
func TestPublish_DeliveryFailureIsBestEffort(t *testing.T) {
	b := New(nil)
	tripID := uuid.New()

	failing := SinkFunc(func(Update) error { return errors.New("connection gone") })
	healthy := &captureSink{}
	b.Subscribe(tripID, "broken", failing)
	b.Subscribe(tripID, "healthy", healthy)

	b.Publish(Update{TripID: tripID, DriverID: uuid.New(), Timestamp: time.Now()})

	assert.Equal(t, 1, healthy.count())
}

// TestUnsubscribeAndCloseTrip tests bookkeeping teardown
func TestUnsubscribeAndCloseTrip(t *testing.T) {
	b := New(nil)
	tripID := uuid.New()

	sink := &captureSink{}
	b.Subscribe(tripID, "rider-1", sink)
	b.Subscribe(tripID, "ops-1", sink)
	assert.Equal(t, 2, b.SubscriberCount(tripID))

	b.Unsubscribe(tripID, "ops-1")
	assert.Equal(t, 1, b.SubscriberCount(tripID))

	b.CloseTrip(tripID)
	assert.Equal(t, 0, b.SubscriberCount(tripID))

	b.Publish(Update{TripID: tripID, DriverID: uuid.New(), Timestamp: time.Now()})
	assert.Equal(t, 0, sink.count(), "closed trip must not deliver")
}

// TestDropSubscriber tests disconnect removes a listener everywhere
func TestDropSubscriber(t *testing.T) {
	b := New(nil)
	tripA, tripB := uuid.New(), uuid.New()

	sink := &captureSink{}
	b.Subscribe(tripA, "client-1", sink)
	b.Subscribe(tripB, "client-1", sink)
	b.Subscribe(tripB, "client-2", &captureSink{})

	b.DropSubscriber("client-1")

	assert.Equal(t, 0, b.SubscriberCount(tripA))
	assert.Equal(t, 1, b.SubscriberCount(tripB))
}

// TestConcurrentPublishSubscribe exercises bookkeeping under parallel
// publishes and subscription churn; run with -race
func TestConcurrentPublishSubscribe(t *testing.T) {
	b := New(nil)
	tripID := uuid.New()
	driverID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := uuid.New().String()
			for k := 0; k < 50; k++ {
				b.Subscribe(tripID, id, &captureSink{})
				b.Unsubscribe(tripID, id)
			}
		}()
		go func() {
			defer wg.Done()
			for k := 0; k < 50; k++ {
				b.Publish(Update{TripID: tripID, DriverID: driverID, Timestamp: time.Now()})
			}
		}()
	}
	wg.Wait()
}
