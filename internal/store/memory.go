package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

// MemoryStore keeps everything behind one mutex. Conditioned writes are
// evaluated under the lock, which gives the same fail-closed semantics as the
// Postgres CAS updates within a single process.
type MemoryStore struct {
	mu      sync.RWMutex
	rides   map[string]*models.Ride
	drivers map[string]*models.DriverProfile
	rules   []*models.PricingRule
	events  map[string][]models.RideEvent // append order == created order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rides:   make(map[string]*models.Ride),
		drivers: make(map[string]*models.DriverProfile),
		events:  make(map[string][]models.RideEvent),
	}
}

func (m *MemoryStore) CreateRide(ctx context.Context, r *models.Ride, ev *models.RideEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rides[r.ID] = &cp
	if ev != nil {
		m.events[r.ID] = append(m.events[r.ID], *ev)
	}
	return nil
}

func (m *MemoryStore) GetRide(ctx context.Context, id string) (*models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, errs.ErrRideNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) AssignDriver(ctx context.Context, rideID, driverID string, expect models.RideStatus, ev *models.RideEvent) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return nil, errs.ErrRideNotFound
	}
	if r.Status != expect {
		return nil, errs.ErrRideAlreadyAccepted
	}
	r.DriverID = driverID
	r.Status = models.StatusDriverAssigned
	r.UpdatedAt = time.Now().UTC()
	if ev != nil {
		m.events[rideID] = append(m.events[rideID], *ev)
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) UpdateRideStatus(ctx context.Context, rideID string, from, to models.RideStatus, ev *models.RideEvent) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return nil, errs.ErrRideNotFound
	}
	if r.Status != from {
		return nil, errs.ErrInvalidTransition
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	if ev != nil {
		m.events[rideID] = append(m.events[rideID], *ev)
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) ActiveRideForDriver(ctx context.Context, driverID string) (*models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.DriverID == driverID && r.Status.Active() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) GetDriver(ctx context.Context, id string) (*models.DriverProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, errs.ErrDriverNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) ListEligibleDrivers(ctx context.Context) ([]models.DriverProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.DriverProfile, 0, len(m.drivers))
	for _, d := range m.drivers {
		if d.Eligible() && d.HasLocation() {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[driverID]
	if !ok {
		return errs.ErrDriverNotFound
	}
	d.CurrentLat = &lat
	d.CurrentLng = &lng
	d.LastGPSAt = &at
	return nil
}

// PutDriver seeds or replaces a driver profile; used by tests and local runs.
func (m *MemoryStore) PutDriver(d models.DriverProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := d
	m.drivers[d.ID] = &cp
}

// PutPricingRule appends a rule; the first active one wins lookups.
func (m *MemoryStore) PutPricingRule(r models.PricingRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := r
	m.rules = append(m.rules, &cp)
}

func (m *MemoryStore) ActivePricingRule(ctx context.Context) (*models.PricingRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.Active {
			cp := *r
			return &cp, nil
		}
	}
	return nil, errs.ErrNoActivePricingRule
}

func (m *MemoryStore) AppendEvent(ctx context.Context, ev *models.RideEvent) error {
	if !ev.Type.Known() {
		return fmt.Errorf("%w: unknown event type %q", errs.ErrValidation, ev.Type)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ev.RideID]; !ok {
		return errs.ErrRideNotFound
	}
	m.events[ev.RideID] = append(m.events[ev.RideID], *ev)
	return nil
}

func (m *MemoryStore) RideEvents(ctx context.Context, rideID string) ([]models.RideEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	evs := m.events[rideID]
	out := make([]models.RideEvent, len(evs))
	copy(out, evs)
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
