// Package sos validates and records emergency events. Downstream escalation
// (contacting authorities, notifying emergency contacts) belongs to an
// external collaborator; this core only signals by appending the event.
package sos

import (
	"context"
	"log/slog"
	"time"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/events"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
	"github.com/LongshotAI/ride-my-wheels-home/internal/observability"
	"github.com/LongshotAI/ride-my-wheels-home/internal/store"
)

type Handler struct {
	Rides  store.RideStore
	Events *events.Log
	Logger *slog.Logger
}

func NewHandler(rides store.RideStore, log *events.Log, logger *slog.Logger) *Handler {
	return &Handler{Rides: rides, Events: log, Logger: logger}
}

// Trigger records an sos event for the ride. Only the rider or the assigned
// driver may trigger; anyone else gets errs.ErrNotAParticipant.
func (h *Handler) Trigger(ctx context.Context, actorID, rideID string, lat, lng float64, message string) error {
	if !(models.Coord{Lat: lat, Lng: lng}).Valid() {
		return errs.ErrInvalidCoordinates
	}
	r, err := h.Rides.GetRide(ctx, rideID)
	if err != nil {
		return err
	}
	if actorID == "" || (actorID != r.RiderID && actorID != r.DriverID) {
		return errs.ErrNotAParticipant
	}

	_, err = h.Events.Append(ctx, rideID, models.SOSMeta{
		Lat: lat, Lng: lng, Message: message,
		TriggeredBy: actorID, Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	observability.SOSTotal.Inc()
	h.Logger.Error("SOS triggered", "ride_id", rideID, "actor_id", actorID, "lat", lat, "lng", lng)
	return nil
}
