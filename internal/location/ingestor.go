// Package location accepts driver GPS pings, updates the driver profile, and
// appends driver_location events while a ride is active. No rate limiting
// happens here; callers are expected to throttle (~one ping per 10s).
package location

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/events"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
	"github.com/LongshotAI/ride-my-wheels-home/internal/observability"
	"github.com/LongshotAI/ride-my-wheels-home/internal/store"
)

// Publisher forwards accepted pings to the driver-locations topic for the
// geo-index consumer. Best effort; ingest never fails on publish errors.
type Publisher interface {
	PublishLocation(ctx context.Context, ping models.LocationPing) error
}

type Ingestor struct {
	Drivers   store.DriverStore
	Rides     store.RideStore
	Events    *events.Log
	Publisher Publisher // optional
	Logger    *slog.Logger
}

func NewIngestor(drivers store.DriverStore, rides store.RideStore, log *events.Log, pub Publisher, logger *slog.Logger) *Ingestor {
	return &Ingestor{Drivers: drivers, Rides: rides, Events: log, Publisher: pub, Logger: logger}
}

// Update processes one GPS ping. Returns whether the driver currently has an
// active ride (and therefore whether a driver_location event was appended).
func (i *Ingestor) Update(ctx context.Context, driverID string, lat, lng float64) (bool, error) {
	if !(models.Coord{Lat: lat, Lng: lng}).Valid() {
		return false, errs.ErrInvalidCoordinates
	}
	if _, err := i.Drivers.GetDriver(ctx, driverID); err != nil {
		if errors.Is(err, errs.ErrDriverNotFound) {
			return false, errs.ErrNotADriver
		}
		return false, err
	}

	now := time.Now().UTC()
	if err := i.Drivers.UpdateDriverLocation(ctx, driverID, lat, lng, now); err != nil {
		return false, err
	}
	observability.LocationUpdatesTotal.Inc()

	if i.Publisher != nil {
		ping := models.LocationPing{DriverID: driverID, Lat: lat, Lng: lng, At: now}
		if err := i.Publisher.PublishLocation(ctx, ping); err != nil {
			i.Logger.Warn("location publish failed", "driver_id", driverID, "error", err)
		}
	}

	active, err := i.Rides.ActiveRideForDriver(ctx, driverID)
	if err != nil {
		return false, err
	}
	if active == nil {
		return false, nil
	}
	_, err = i.Events.Append(ctx, active.ID, models.DriverLocationMeta{Lat: lat, Lng: lng, Timestamp: now})
	if err != nil {
		return true, err
	}
	return true, nil
}
