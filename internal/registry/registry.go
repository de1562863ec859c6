package registry

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocomet/trip-dispatch/internal/domain/driver"
	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/gocomet/trip-dispatch/pkg/logger"
	"github.com/google/uuid"
)

// Candidate is a matchable driver ranked by distance from an origin
type Candidate struct {
	Driver     driver.Driver
	DistanceKm float64
}

// Mirror receives best-effort copies of location state for secondary
// read surfaces (ops dashboards, cross-instance queries). Failures are
// logged and never affect registry correctness.
type Mirror interface {
	Upsert(ctx context.Context, driverID uuid.UUID, loc geo.Point) error
	Remove(ctx context.Context, driverID uuid.UUID) error
}

// entry wraps one driver's mutable state. Each entry has its own lock so
// updates to different drivers never block each other; the outer map lock
// only guards membership.
type entry struct {
	mu    sync.Mutex
	state driver.Driver
}

func (e *entry) snapshot() driver.Driver {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	if e.state.Location != nil {
		loc := *e.state.Location
		s.Location = &loc
	}
	if e.state.AssignedTrip != nil {
		id := *e.state.AssignedTrip
		s.AssignedTrip = &id
	}
	return s
}

// Registry is the in-process driver availability and location store. It
// is the matching authority: every trip offer reads candidate state from
// here, and the offer protocol claims drivers through Assign/Release.
type Registry struct {
	mu      sync.RWMutex
	drivers map[uuid.UUID]*entry
	mirror  Mirror
	logger  *logger.Logger
}

// Option configures the registry
type Option func(*Registry)

// WithMirror attaches a secondary location index
func WithMirror(m Mirror) Option {
	return func(r *Registry) { r.mirror = m }
}

// New creates an empty registry
func New(log *logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		drivers: make(map[uuid.UUID]*entry),
		logger:  log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a driver record. Registration happens at signup; the
// identity collaborator owns everything beyond the fields tracked here.
func (r *Registry) Register(d driver.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drivers[d.ID]; ok {
		return driver.ErrDriverExists
	}
	d.UpdatedAt = time.Now()
	r.drivers[d.ID] = &entry{state: d}
	return nil
}

// Get returns a point-in-time snapshot of one driver
func (r *Registry) Get(id uuid.UUID) (driver.Driver, error) {
	e, err := r.lookup(id)
	if err != nil {
		return driver.Driver{}, err
	}
	return e.snapshot(), nil
}

// SetOnline flips availability. Idempotent. Going offline never revokes
// an in-progress assignment; the driver just stops receiving new offers.
func (r *Registry) SetOnline(ctx context.Context, id uuid.UUID, online bool) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.state.Online = online
	e.state.UpdatedAt = time.Now()
	loc := e.state.Location
	e.mu.Unlock()

	if r.mirror != nil {
		if !online {
			r.mirrorRemove(ctx, id)
		} else if loc != nil {
			r.mirrorUpsert(ctx, id, *loc)
		}
	}
	return nil
}

// SetDocsStatus records the outcome of a document review. A rejection
// does not revoke an in-progress assignment; the driver just stops
// qualifying for new offers.
func (r *Registry) SetDocsStatus(id uuid.UUID, status driver.DocsStatus) error {
	if !status.IsValid() {
		return driver.ErrInvalidDocsStatus
	}

	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.state.DocsStatus = status
	e.state.UpdatedAt = time.Now()
	e.mu.Unlock()
	return nil
}

// UpdateLocation overwrites the last-known location. Last write wins;
// out-of-order delivery only affects match quality, not correctness.
func (r *Registry) UpdateLocation(ctx context.Context, id uuid.UUID, loc geo.Point) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	p := loc
	e.state.Location = &p
	e.state.UpdatedAt = time.Now()
	online := e.state.Online
	e.mu.Unlock()

	if r.mirror != nil && online {
		r.mirrorUpsert(ctx, id, loc)
	}
	return nil
}

// NearestCandidates returns matchable drivers within radiusKm of origin,
// ascending by distance, ties broken by driver id so results are
// deterministic. Returns an empty slice, never an error, when nothing
// qualifies.
func (r *Registry) NearestCandidates(origin geo.Point, radiusKm float64, limit int) []Candidate {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.drivers))
	for _, e := range r.drivers {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	candidates := make([]Candidate, 0, limit)
	for _, e := range entries {
		snap := e.snapshot()
		if !snap.Matchable() {
			continue
		}
		dist := geo.DistanceKm(origin, *snap.Location)
		if dist > radiusKm {
			continue
		}
		candidates = append(candidates, Candidate{Driver: snap, DistanceKm: dist})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return strings.Compare(candidates[i].Driver.ID.String(), candidates[j].Driver.ID.String()) < 0
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// Assign atomically claims a driver for a trip. A driver that went
// offline, lost approval or picked up another trip since being ranked is
// rejected with ErrIneligible before any mutation.
func (r *Registry) Assign(id, tripID uuid.UUID) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.AssignedTrip != nil && *e.state.AssignedTrip == tripID {
		return nil // idempotent re-claim for the same trip
	}
	if !e.state.Online || e.state.DocsStatus != driver.DocsApproved || e.state.AssignedTrip != nil {
		return driver.ErrIneligible
	}
	t := tripID
	e.state.AssignedTrip = &t
	e.state.UpdatedAt = time.Now()
	return nil
}

// Release returns a driver to the pool. The tripID must match the held
// assignment, so a stale release from an aborted round can never clobber
// a newer claim.
func (r *Registry) Release(id, tripID uuid.UUID) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.AssignedTrip == nil || *e.state.AssignedTrip != tripID {
		return driver.ErrNotAssigned
	}
	e.state.AssignedTrip = nil
	e.state.UpdatedAt = time.Now()
	return nil
}

// OnlineCount returns the number of currently online drivers
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.drivers))
	for _, e := range r.drivers {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	count := 0
	for _, e := range entries {
		if e.snapshot().Online {
			count++
		}
	}
	return count
}

func (r *Registry) lookup(id uuid.UUID) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.drivers[id]
	if !ok {
		return nil, driver.ErrDriverNotFound
	}
	return e, nil
}

func (r *Registry) mirrorUpsert(ctx context.Context, id uuid.UUID, loc geo.Point) {
	if err := r.mirror.Upsert(ctx, id, loc); err != nil && r.logger != nil {
		r.logger.Warn("Failed to mirror driver location",
			logger.String("driver_id", id.String()),
			logger.Err(err),
		)
	}
}

func (r *Registry) mirrorRemove(ctx context.Context, id uuid.UUID) {
	if err := r.mirror.Remove(ctx, id); err != nil && r.logger != nil {
		r.logger.Warn("Failed to remove driver from location mirror",
			logger.String("driver_id", id.String()),
			logger.Err(err),
		)
	}
}
