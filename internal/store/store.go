// Package store defines the persistence boundary for the core. Two
// implementations exist: an in-memory store for tests and local runs, and a
// Postgres store for production. State-mutating ride operations take the
// expected prior status and fail closed when the row has moved on.
package store

import (
	"context"
	"time"

	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

type RideStore interface {
	// CreateRide persists the ride and its ride_requested event atomically.
	CreateRide(ctx context.Context, r *models.Ride, ev *models.RideEvent) error
	GetRide(ctx context.Context, id string) (*models.Ride, error)

	// AssignDriver sets driver_id and advances status to driver_assigned,
	// conditioned on the ride still being in the expect status at write time.
	// The status write and the driver_assigned event commit atomically. A
	// zero-row write returns errs.ErrRideAlreadyAccepted.
	AssignDriver(ctx context.Context, rideID, driverID string, expect models.RideStatus, ev *models.RideEvent) (*models.Ride, error)

	// UpdateRideStatus is a compare-and-swap from -> to, committing the event
	// in the same transaction. A zero-row write returns errs.ErrInvalidTransition.
	UpdateRideStatus(ctx context.Context, rideID string, from, to models.RideStatus, ev *models.RideEvent) (*models.Ride, error)

	// ActiveRideForDriver returns the driver's ride in an active status
	// (driver_assigned, driver_arriving, in_progress), or nil when none exists.
	ActiveRideForDriver(ctx context.Context, driverID string) (*models.Ride, error)
}

type DriverStore interface {
	GetDriver(ctx context.Context, id string) (*models.DriverProfile, error)
	// ListEligibleDrivers returns online, approved, background-clear drivers
	// with both coordinates present. Stale locations are not filtered here.
	ListEligibleDrivers(ctx context.Context) ([]models.DriverProfile, error)
	UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64, at time.Time) error
}

type PricingStore interface {
	// ActivePricingRule returns the single active rule, or
	// errs.ErrNoActivePricingRule when none is active.
	ActivePricingRule(ctx context.Context) (*models.PricingRule, error)
}

type EventStore interface {
	// AppendEvent persists one immutable event. The ride must exist.
	AppendEvent(ctx context.Context, ev *models.RideEvent) error
	// RideEvents returns the full event sequence ordered by created_at.
	RideEvents(ctx context.Context, rideID string) ([]models.RideEvent, error)
}

// Store is the full persistence surface consumed by the services.
type Store interface {
	RideStore
	DriverStore
	PricingStore
	EventStore
}
