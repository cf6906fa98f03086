package ride

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/events"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
	"github.com/LongshotAI/ride-my-wheels-home/internal/observability"
	"github.com/LongshotAI/ride-my-wheels-home/internal/pricing"
	"github.com/LongshotAI/ride-my-wheels-home/internal/store"
)

// Store is the persistence slice the ride service needs.
type Store interface {
	store.RideStore
	store.DriverStore
}

type Service struct {
	Store   Store
	Pricing *pricing.Engine
	Events  *events.Log
	Logger  *slog.Logger
}

func NewService(st Store, eng *pricing.Engine, log *events.Log, logger *slog.Logger) *Service {
	return &Service{Store: st, Pricing: eng, Events: log, Logger: logger}
}

// Request quotes and creates a ride for the rider. The ride row and its
// ride_requested event commit atomically.
func (s *Service) Request(ctx context.Context, riderID string, pickup, dropoff models.Place, scheduledFor *time.Time) (*models.Ride, error) {
	if riderID == "" {
		return nil, fmt.Errorf("%w: missing rider id", errs.ErrValidation)
	}
	if strings.TrimSpace(pickup.Address) == "" || strings.TrimSpace(dropoff.Address) == "" {
		return nil, fmt.Errorf("%w: missing pickup or dropoff address", errs.ErrValidation)
	}
	if !pickup.Coord().Valid() || !dropoff.Coord().Valid() {
		return nil, errs.ErrInvalidCoordinates
	}

	q, err := s.Pricing.Quote(ctx, pickup.Coord(), dropoff.Coord())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &models.Ride{
		ID:               uuid.NewString(),
		RiderID:          riderID,
		Pickup:           pickup,
		Dropoff:          dropoff,
		Status:           InitialStatus(scheduledFor != nil),
		QuotedPriceCents: q.QuotedPriceCents,
		DistanceMi:       q.DistanceMi,
		DurationMin:      q.DurationMin,
		ScheduledFor:     scheduledFor,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	ev, err := s.buildEvent(r.ID, models.RideRequestedMeta{
		Pickup:      pickup.Address,
		Dropoff:     dropoff.Address,
		QuotedPrice: q.QuotedPriceCents,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Store.CreateRide(ctx, r, ev); err != nil {
		return nil, err
	}
	s.Events.Publish(*ev)
	observability.RidesRequestedTotal.Inc()
	s.Logger.Info("ride requested", "ride_id", r.ID, "rider_id", riderID, "status", r.Status, "price_cents", q.QuotedPriceCents)
	return r, nil
}

// Accept resolves the acceptance race: it succeeds for exactly one caller per
// ride. The assignment is conditioned on the ride still holding its observed
// pre-acceptance status at write time; a concurrent winner surfaces as
// errs.ErrRideAlreadyAccepted.
func (s *Service) Accept(ctx context.Context, driverID, rideID string) (*models.Ride, error) {
	d, err := s.Store.GetDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, errs.ErrDriverNotFound) {
			return nil, errs.ErrDriverNotEligible
		}
		return nil, err
	}
	if !d.Eligible() {
		return nil, errs.ErrDriverNotEligible
	}

	r, err := s.Store.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != models.StatusRequested && r.Status != models.StatusScheduled {
		return nil, errs.ErrRideNotAvailable
	}

	ev, err := s.buildEvent(rideID, models.DriverAssignedMeta{DriverID: driverID, Timestamp: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	updated, err := s.Store.AssignDriver(ctx, rideID, driverID, r.Status, ev)
	if err != nil {
		if errors.Is(err, errs.ErrRideAlreadyAccepted) {
			observability.AcceptConflictsTotal.Inc()
		}
		return nil, err
	}
	s.Events.Publish(*ev)
	observability.AcceptWinsTotal.Inc()
	s.Logger.Info("ride accepted", "ride_id", rideID, "driver_id", driverID)
	return updated, nil
}

// Advance moves a ride through the driver-reported statuses
// (driver_arriving, in_progress, completed). Only the assigned driver may
// advance; cancellations go through Cancel.
func (s *Service) Advance(ctx context.Context, actorID, rideID string, next models.RideStatus) (*models.Ride, error) {
	switch next {
	case models.StatusDriverArriving, models.StatusInProgress, models.StatusCompleted:
	default:
		return nil, fmt.Errorf("%w: %s is not an advance target", errs.ErrInvalidTransition, next)
	}

	r, err := s.Store.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.DriverID == "" || r.DriverID != actorID {
		return nil, errs.ErrUnauthorized
	}
	if err := ValidateTransition(r.Status, next); err != nil {
		return nil, err
	}

	ev, err := s.buildEvent(rideID, models.StatusChangedMeta{
		From: r.Status, To: next, ActorID: actorID, Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	updated, err := s.Store.UpdateRideStatus(ctx, rideID, r.Status, next, ev)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(*ev)
	s.Logger.Info("ride status advanced", "ride_id", rideID, "from", r.Status, "to", next)
	return updated, nil
}

// Cancel terminates a ride on behalf of its rider or assigned driver. The
// cancelling party's role picks the terminal status.
func (s *Service) Cancel(ctx context.Context, actorID, rideID, reason string) (models.RideStatus, error) {
	r, err := s.Store.GetRide(ctx, rideID)
	if err != nil {
		return "", err
	}

	var (
		to   models.RideStatus
		role models.ActorRole
	)
	switch actorID {
	case r.RiderID:
		to, role = models.StatusCancelledByRider, models.RoleRider
	case r.DriverID:
		if r.DriverID == "" {
			return "", errs.ErrNotAParticipant
		}
		to, role = models.StatusCancelledByDriver, models.RoleDriver
	default:
		return "", errs.ErrNotAParticipant
	}
	if err := ValidateTransition(r.Status, to); err != nil {
		return "", err
	}

	ev, err := s.buildEvent(rideID, models.RideCancelledMeta{
		CancelledBy: actorID, CancelledByRole: role, Reason: reason, Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}
	if _, err := s.Store.UpdateRideStatus(ctx, rideID, r.Status, to, ev); err != nil {
		return "", err
	}
	s.Events.Publish(*ev)
	s.Logger.Info("ride cancelled", "ride_id", rideID, "by", role, "reason", reason)
	return to, nil
}

// Get returns the ride snapshot for dashboards and participants.
func (s *Service) Get(ctx context.Context, rideID string) (*models.Ride, error) {
	return s.Store.GetRide(ctx, rideID)
}

func (s *Service) buildEvent(rideID string, meta models.MetaPayload) (*models.RideEvent, error) {
	raw, err := models.EncodeMeta(meta)
	if err != nil {
		return nil, err
	}
	return &models.RideEvent{
		ID:        uuid.NewString(),
		RideID:    rideID,
		Type:      meta.EventType(),
		Meta:      raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}
