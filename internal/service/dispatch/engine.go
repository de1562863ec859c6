package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gocomet/trip-dispatch/internal/broadcast"
	"github.com/gocomet/trip-dispatch/internal/domain/driver"
	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/gocomet/trip-dispatch/internal/registry"
	"github.com/gocomet/trip-dispatch/internal/service/pricing"
	"github.com/gocomet/trip-dispatch/pkg/logger"
	"github.com/gocomet/trip-dispatch/pkg/monitoring"
	"github.com/google/uuid"
)

var (
	// ErrNoPendingOffer is returned when a driver answers an offer the
	// engine is no longer waiting on (expired or withdrawn).
	ErrNoPendingOffer = errors.New("no pending offer for this trip and driver")
)

// Config holds matching configuration
type Config struct {
	RadiusKm       float64
	CandidateLimit int
	OfferTimeout   time.Duration
}

// DefaultConfig returns the standard matching parameters
func DefaultConfig() Config {
	return Config{
		RadiusKm:       5.0,
		CandidateLimit: 3,
		OfferTimeout:   15 * time.Second,
	}
}

// Actor identifies who is requesting a lifecycle transition. The identity
// collaborator authenticates it; the engine only checks rights.
type Actor struct {
	ID   uuid.UUID
	Role string // "rider", "driver" or "admin"
}

const (
	RoleRider  = "rider"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

type offerKey struct {
	tripID   uuid.UUID
	driverID uuid.UUID
}

// Engine orchestrates the trip lifecycle: it stamps new trips, runs the
// sequential timed offer protocol against ranked candidates, commits the
// winner through the trip store's compare-and-transition, and drives the
// remaining transitions requested by drivers and riders.
type Engine struct {
	store       trip.Repository
	registry    *registry.Registry
	estimator   *pricing.Estimator
	notifier    Notifier
	broadcaster *broadcast.Broadcaster
	logger      *logger.Logger
	monitor     *monitoring.Monitor
	config      Config

	mu     sync.Mutex
	offers map[offerKey]chan bool
	rounds map[uuid.UUID]chan struct{}
}

// Option configures the engine
type Option func(*Engine)

// WithMonitor attaches APM instrumentation
func WithMonitor(m *monitoring.Monitor) Option {
	return func(e *Engine) { e.monitor = m }
}

// NewEngine creates a dispatch engine
func NewEngine(store trip.Repository, reg *registry.Registry, estimator *pricing.Estimator,
	notifier Notifier, bc *broadcast.Broadcaster, log *logger.Logger, config Config, opts ...Option) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if config.RadiusKm <= 0 {
		config.RadiusKm = 5.0
	}
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = 3
	}
	if config.OfferTimeout <= 0 {
		config.OfferTimeout = 15 * time.Second
	}
	e := &Engine{
		store:       store,
		registry:    reg,
		estimator:   estimator,
		notifier:    notifier,
		broadcaster: bc,
		logger:      log,
		config:      config,
		offers:      make(map[offerKey]chan bool),
		rounds:      make(map[uuid.UUID]chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RequestTrip creates a trip in requested state with its fare estimate
// stamped, then runs matching asynchronously. The caller gets the trip
// back immediately; match outcome arrives through the notifier.
func (e *Engine) RequestTrip(ctx context.Context, riderID uuid.UUID, pickup, dropoff geo.Point,
	class trip.VehicleClass, surge float64) (*trip.Trip, error) {
	t := &trip.Trip{
		ID:           uuid.New(),
		RiderID:      riderID,
		PickupPoint:  pickup,
		DropoffPoint: dropoff,
		VehicleClass: class,
		FareEstimate: e.estimator.Quote(pickup, dropoff, class, surge),
		Status:       trip.StatusRequested,
		CreatedAt:    time.Now(),
	}
	if err := e.store.Create(ctx, t); err != nil {
		return nil, err
	}

	e.logger.Info("Trip requested",
		logger.String("trip_id", t.ID.String()),
		logger.String("rider_id", riderID.String()),
		logger.String("vehicle_class", string(class)),
		logger.Float64("fare_estimate", t.FareEstimate),
	)
	if e.monitor != nil {
		e.monitor.RecordTripRequested(string(class))
	}

	// matching outlives the request that created the trip
	go e.Match(context.Background(), t.Clone())

	return t, nil
}

// Match runs one offer round for a requested trip and returns its record.
// Exposed for synchronous use; RequestTrip calls it in the background.
func (e *Engine) Match(ctx context.Context, t *trip.Trip) *Round {
	started := time.Now()
	candidates := e.registry.NearestCandidates(t.PickupPoint, e.config.RadiusKm, e.config.CandidateLimit)
	round := newRound(t.ID, candidates)

	e.mu.Lock()
	e.rounds[t.ID] = round.abort
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.rounds, t.ID)
		e.mu.Unlock()
		if e.monitor != nil {
			e.monitor.RecordMatchLatency(time.Since(started), string(round.Result))
		}
	}()

	if len(candidates) == 0 {
		e.logger.Warn("No candidates in matching radius",
			logger.String("trip_id", t.ID.String()),
			logger.Float64("radius_km", e.config.RadiusKm),
		)
		e.failUnmatched(ctx, t.ID)
		return round.finish(RoundNoCandidates)
	}

	for i := range round.Candidates {
		// reload before each offer so an external cancellation pre-empts
		// the round within one candidate's processing time
		current, err := e.store.GetByID(ctx, t.ID)
		if err != nil || current.Status != trip.StatusRequested {
			return round.finish(RoundAborted)
		}

		cand := &round.Candidates[i]
		answer := e.offerTo(ctx, round, cand, t)

		switch answer {
		case answerAccepted:
			if err := e.registry.Assign(cand.DriverID, t.ID); err != nil {
				// went offline or got claimed since ranking
				e.logger.Info("Candidate no longer eligible",
					logger.String("trip_id", t.ID.String()),
					logger.String("driver_id", cand.DriverID.String()),
					logger.Err(err),
				)
				cand.Status = CandidateDeclined
				continue
			}

			updated, err := e.store.CompareAndTransition(ctx, t.ID, trip.StatusRequested, trip.StatusAccepted,
				func(tr *trip.Trip) {
					id := cand.DriverID
					tr.DriverID = &id
				})
			if err != nil {
				// trip was cancelled mid-round; give the driver back
				if relErr := e.registry.Release(cand.DriverID, t.ID); relErr != nil && !errors.Is(relErr, driver.ErrNotAssigned) {
					e.logger.Error("Failed to release driver after lost race",
						logger.String("driver_id", cand.DriverID.String()),
						logger.Err(relErr),
					)
				}
				e.notifier.OfferWithdrawn(cand.DriverID, t.ID)
				return round.finish(RoundAborted)
			}

			cand.Status = CandidateAccepted
			winner := cand.DriverID
			round.Winner = &winner

			e.logger.Info("Trip matched",
				logger.String("trip_id", t.ID.String()),
				logger.String("driver_id", winner.String()),
				logger.Float64("distance_km", cand.DistanceKm),
				logger.Int("candidate_rank", i),
			)
			if e.monitor != nil {
				e.monitor.RecordTripMatched(cand.DistanceKm, i)
			}
			e.notifier.TripMatched(updated)
			return round.finish(RoundMatched)

		case answerDeclined:
			cand.Status = CandidateDeclined

		case answerTimedOut:
			cand.Status = CandidateTimedOut
			e.notifier.OfferWithdrawn(cand.DriverID, t.ID)

		case answerAborted:
			e.notifier.OfferWithdrawn(cand.DriverID, t.ID)
			return round.finish(RoundAborted)
		}
	}

	e.logger.Warn("Offer round exhausted",
		logger.String("trip_id", t.ID.String()),
		logger.Int("candidates", len(round.Candidates)),
	)
	e.failUnmatched(ctx, t.ID)
	return round.finish(RoundExhausted)
}

// Respond resolves a driver's answer to a pending offer
func (e *Engine) Respond(tripID, driverID uuid.UUID, accept bool) error {
	e.mu.Lock()
	ch, ok := e.offers[offerKey{tripID, driverID}]
	e.mu.Unlock()
	if !ok {
		return ErrNoPendingOffer
	}

	select {
	case ch <- accept:
		return nil
	default:
		// already answered
		return ErrNoPendingOffer
	}
}

// Cancel moves a trip to cancelled on behalf of its rider or an admin.
// Permitted from requested or accepted state only; an open offer round is
// pre-empted before its timer expires.
func (e *Engine) Cancel(ctx context.Context, tripID uuid.UUID, actor Actor) (*trip.Trip, error) {
	current, err := e.store.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && (actor.Role != RoleRider || actor.ID != current.RiderID) {
		return nil, trip.ErrNotAuthorized
	}

	var releasedDriver *uuid.UUID
	cancelled, err := e.store.CompareAndTransition(ctx, tripID, current.Status, trip.StatusCancelled,
		func(tr *trip.Trip) {
			now := time.Now()
			tr.EndedAt = &now
			releasedDriver = tr.DriverID
			tr.DriverID = nil
		})
	if err != nil {
		return nil, err
	}

	// pre-empt any open offer round
	e.mu.Lock()
	if abort, ok := e.rounds[tripID]; ok {
		close(abort)
		delete(e.rounds, tripID)
	}
	e.mu.Unlock()

	if releasedDriver != nil {
		if relErr := e.registry.Release(*releasedDriver, tripID); relErr != nil && !errors.Is(relErr, driver.ErrNotAssigned) {
			e.logger.Error("Failed to release driver on cancellation",
				logger.String("driver_id", releasedDriver.String()),
				logger.Err(relErr),
			)
		}
	}
	if e.broadcaster != nil {
		e.broadcaster.CloseTrip(tripID)
	}

	e.logger.Info("Trip cancelled",
		logger.String("trip_id", tripID.String()),
		logger.String("actor_role", actor.Role),
	)
	if e.monitor != nil {
		e.monitor.RecordTripCancelled(actor.Role)
	}
	e.notifier.TripUpdated(cancelled)
	return cancelled, nil
}

// Start moves an accepted trip to enroute; only the assigned driver may
// do this.
func (e *Engine) Start(ctx context.Context, tripID uuid.UUID, driverID uuid.UUID) (*trip.Trip, error) {
	if err := e.verifyAssignedDriver(ctx, tripID, driverID); err != nil {
		return nil, err
	}

	started, err := e.store.CompareAndTransition(ctx, tripID, trip.StatusAccepted, trip.StatusEnroute,
		func(tr *trip.Trip) {
			now := time.Now()
			tr.StartedAt = &now
		})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Trip started",
		logger.String("trip_id", tripID.String()),
		logger.String("driver_id", driverID.String()),
	)
	e.notifier.TripUpdated(started)
	return started, nil
}

// Complete moves an enroute trip to completed, stamps the final fare and
// returns the driver to the pool.
func (e *Engine) Complete(ctx context.Context, tripID uuid.UUID, driverID uuid.UUID) (*trip.Trip, error) {
	if err := e.verifyAssignedDriver(ctx, tripID, driverID); err != nil {
		return nil, err
	}

	completed, err := e.store.CompareAndTransition(ctx, tripID, trip.StatusEnroute, trip.StatusCompleted,
		func(tr *trip.Trip) {
			now := time.Now()
			tr.EndedAt = &now
			// no metering signal in the core; the final fare is the quote
			fare := tr.FareEstimate
			tr.FareFinal = &fare
		})
	if err != nil {
		return nil, err
	}

	if relErr := e.registry.Release(driverID, tripID); relErr != nil && !errors.Is(relErr, driver.ErrNotAssigned) {
		e.logger.Error("Failed to release driver on completion",
			logger.String("driver_id", driverID.String()),
			logger.Err(relErr),
		)
	}
	if e.broadcaster != nil {
		e.broadcaster.CloseTrip(tripID)
	}

	e.logger.Info("Trip completed",
		logger.String("trip_id", tripID.String()),
		logger.String("driver_id", driverID.String()),
		logger.Float64("fare_final", *completed.FareFinal),
	)
	if e.monitor != nil {
		e.monitor.RecordTripCompleted(*completed.FareFinal)
	}
	e.notifier.TripUpdated(completed)
	return completed, nil
}

// ReportLocation records a driver's position and, when the driver holds
// an active trip, fans it out to the trip's subscribers with the
// heading derived from the previous report.
func (e *Engine) ReportLocation(ctx context.Context, driverID uuid.UUID, loc geo.Point) error {
	prev, err := e.registry.Get(driverID)
	if err != nil {
		return err
	}

	if err := e.registry.UpdateLocation(ctx, driverID, loc); err != nil {
		return err
	}

	if prev.AssignedTrip != nil && e.broadcaster != nil {
		var heading float64
		if prev.Location != nil {
			heading = geo.Bearing(*prev.Location, loc)
		}
		e.broadcaster.Publish(broadcast.Update{
			TripID:     *prev.AssignedTrip,
			DriverID:   driverID,
			Location:   loc,
			HeadingDeg: heading,
			Timestamp:  time.Now(),
		})
	}
	return nil
}

// GetTrip returns a trip snapshot
func (e *Engine) GetTrip(ctx context.Context, tripID uuid.UUID) (*trip.Trip, error) {
	return e.store.GetByID(ctx, tripID)
}

type offerAnswer int

const (
	answerAccepted offerAnswer = iota
	answerDeclined
	answerTimedOut
	answerAborted
)

// offerTo presents the trip to one candidate and waits for their answer,
// the offer window to lapse, or the round to be pre-empted. No registry
// or store lock is held while waiting.
func (e *Engine) offerTo(ctx context.Context, round *Round, cand *RoundCandidate, t *trip.Trip) offerAnswer {
	key := offerKey{t.ID, cand.DriverID}
	ch := make(chan bool, 1)

	e.mu.Lock()
	e.offers[key] = ch
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.offers, key)
		e.mu.Unlock()
	}()

	e.notifier.OfferTrip(cand.DriverID, Offer{
		TripID:       t.ID,
		PickupPoint:  t.PickupPoint,
		DropoffPoint: t.DropoffPoint,
		VehicleClass: t.VehicleClass,
		FareEstimate: t.FareEstimate,
		DistanceKm:   cand.DistanceKm,
		ExpiresAt:    time.Now().Add(e.config.OfferTimeout),
	})
	e.logger.Info("Offer sent",
		logger.String("trip_id", t.ID.String()),
		logger.String("driver_id", cand.DriverID.String()),
		logger.Float64("distance_km", cand.DistanceKm),
	)

	timer := time.NewTimer(e.config.OfferTimeout)
	defer timer.Stop()

	select {
	case accepted := <-ch:
		if accepted {
			return answerAccepted
		}
		return answerDeclined
	case <-timer.C:
		return answerTimedOut
	case <-round.abort:
		return answerAborted
	case <-ctx.Done():
		return answerAborted
	}
}

// failUnmatched moves a requested trip to the unmatched terminal state.
// A stale-state failure means cancellation won the race, which is fine.
func (e *Engine) failUnmatched(ctx context.Context, tripID uuid.UUID) {
	unmatched, err := e.store.CompareAndTransition(ctx, tripID, trip.StatusRequested, trip.StatusUnmatched,
		func(tr *trip.Trip) {
			now := time.Now()
			tr.EndedAt = &now
		})
	if err != nil {
		if !errors.Is(err, trip.ErrStaleState) {
			e.logger.Error("Failed to mark trip unmatched",
				logger.String("trip_id", tripID.String()),
				logger.Err(err),
			)
		}
		return
	}

	if e.monitor != nil {
		e.monitor.RecordTripUnmatched()
	}
	e.notifier.TripUnmatched(unmatched)
}

// verifyAssignedDriver checks the acting driver holds this trip.
// DriverID is immutable once set, so the read is race-free.
func (e *Engine) verifyAssignedDriver(ctx context.Context, tripID, driverID uuid.UUID) error {
	t, err := e.store.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if t.DriverID == nil || *t.DriverID != driverID {
		return trip.ErrNotAuthorized
	}
	return nil
}
