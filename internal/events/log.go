// Package events is the append-only record of ride lifecycle facts and the
// source of truth for real-time views. History replays the full ordered
// sequence; Subscribe yields events appended from that point onward.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
	"github.com/LongshotAI/ride-my-wheels-home/internal/observability"
	"github.com/LongshotAI/ride-my-wheels-home/internal/store"
)

// Mirror receives every appended event, best effort. Used to feed the
// ride-events Kafka topic; failures never affect the append.
type Mirror interface {
	PublishEvent(ctx context.Context, ev models.RideEvent) error
}

type Log struct {
	store  store.EventStore
	broker *Broker
	mirror Mirror // optional
	logger *slog.Logger
}

func NewLog(st store.EventStore, broker *Broker, mirror Mirror, logger *slog.Logger) *Log {
	return &Log{store: st, broker: broker, mirror: mirror, logger: logger}
}

// Append persists one event built from the typed payload, then notifies
// subscribers. Fails with errs.ErrRideNotFound when the ride is absent and
// errs.ErrStorageUnavailable when the log store is down (retryable by the
// caller; no internal retry).
func (l *Log) Append(ctx context.Context, rideID string, meta models.MetaPayload) (*models.RideEvent, error) {
	raw, err := models.EncodeMeta(meta)
	if err != nil {
		return nil, err
	}
	ev := &models.RideEvent{
		ID:        uuid.NewString(),
		RideID:    rideID,
		Type:      meta.EventType(),
		Meta:      raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.store.AppendEvent(ctx, ev); err != nil {
		return nil, err
	}
	l.Publish(*ev)
	return ev, nil
}

// Publish fans an already-persisted event out to subscribers and the mirror.
// Used directly for events committed inside store transactions.
func (l *Log) Publish(ev models.RideEvent) {
	observability.EventsAppendedTotal.WithLabelValues(string(ev.Type)).Inc()
	l.broker.Publish(ev)
	if l.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.mirror.PublishEvent(ctx, ev); err != nil {
			l.logger.Warn("event mirror publish failed", "ride_id", ev.RideID, "error", err)
		}
	}
}

// History returns the full ordered event sequence for a ride, used for the
// initial sync by any viewer.
func (l *Log) History(ctx context.Context, rideID string) ([]models.RideEvent, error) {
	return l.store.RideEvents(ctx, rideID)
}

// Subscribe starts a live stream of events appended after this call.
func (l *Log) Subscribe(rideID string) *Subscription {
	return l.broker.Subscribe(rideID)
}

// LatestDriverLocation derives the authoritative current driver position:
// the most recent driver_location event. No separate location cache exists.
func (l *Log) LatestDriverLocation(ctx context.Context, rideID string) (*models.DriverLocationMeta, error) {
	evs, err := l.store.RideEvents(ctx, rideID)
	if err != nil {
		return nil, err
	}
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type != models.EventDriverLocation {
			continue
		}
		p, err := models.DecodeMeta(evs[i])
		if err != nil {
			return nil, err
		}
		return p.(*models.DriverLocationMeta), nil
	}
	return nil, nil
}
