package location

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/events"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
	"github.com/LongshotAI/ride-my-wheels-home/internal/store"
)

func newTestIngestor(t *testing.T) (*Ingestor, *store.MemoryStore, *events.Log) {
	t.Helper()
	ms := store.NewMemoryStore()
	logger := slog.Default()
	log := events.NewLog(ms, events.NewBroker(logger), nil, logger)
	return NewIngestor(ms, ms, log, nil, logger), ms, log
}

func seedDriver(ms *store.MemoryStore, id string) {
	ms.PutDriver(models.DriverProfile{
		ID: id, Status: models.DriverApproved, Online: true,
		BackgroundCheck: models.BackgroundClear,
	})
}

func seedRide(t *testing.T, ms *store.MemoryStore, id, driverID string, status models.RideStatus) {
	t.Helper()
	now := time.Now().UTC()
	err := ms.CreateRide(context.Background(), &models.Ride{
		ID: id, RiderID: "rider-1", DriverID: driverID, Status: status,
		CreatedAt: now, UpdatedAt: now,
	}, nil)
	if err != nil {
		t.Fatalf("seed ride: %v", err)
	}
}

func TestUpdateRejectsBadCoordinates(t *testing.T) {
	ing, ms, _ := newTestIngestor(t)
	seedDriver(ms, "driver-1")

	for _, c := range []models.Coord{{Lat: 91, Lng: 0}, {Lat: -91, Lng: 0}, {Lat: 0, Lng: 181}, {Lat: 0, Lng: -181}} {
		if _, err := ing.Update(context.Background(), "driver-1", c.Lat, c.Lng); !errors.Is(err, errs.ErrInvalidCoordinates) {
			t.Fatalf("coords %+v: err = %v, want ErrInvalidCoordinates", c, err)
		}
	}
}

func TestUpdateRejectsNonDriver(t *testing.T) {
	ing, _, _ := newTestIngestor(t)
	if _, err := ing.Update(context.Background(), "rider-1", 10, 10); !errors.Is(err, errs.ErrNotADriver) {
		t.Fatalf("err = %v, want ErrNotADriver", err)
	}
}

func TestUpdateWritesProfileWithoutActiveRide(t *testing.T) {
	ing, ms, _ := newTestIngestor(t)
	seedDriver(ms, "driver-1")

	active, err := ing.Update(context.Background(), "driver-1", 37.77, -122.41)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if active {
		t.Fatal("no ride exists, active must be false")
	}
	d, _ := ms.GetDriver(context.Background(), "driver-1")
	if d.CurrentLat == nil || *d.CurrentLat != 37.77 || d.LastGPSAt == nil {
		t.Fatalf("profile not updated: %+v", d)
	}
}

func TestUpdateAppendsEventDuringActiveRide(t *testing.T) {
	ing, ms, log := newTestIngestor(t)
	seedDriver(ms, "driver-1")
	seedRide(t, ms, "ride-1", "driver-1", models.StatusInProgress)

	active, err := ing.Update(context.Background(), "driver-1", 37.77, -122.41)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !active {
		t.Fatal("expected active ride")
	}
	hist, _ := log.History(context.Background(), "ride-1")
	if len(hist) != 1 || hist[0].Type != models.EventDriverLocation {
		t.Fatalf("history = %+v, want one driver_location event", hist)
	}
	meta, _ := models.DecodeMeta(hist[0])
	if m := meta.(*models.DriverLocationMeta); m.Lat != 37.77 || m.Lng != -122.41 {
		t.Fatalf("meta = %+v", m)
	}
}

func TestUpdateSkipsEventForTerminalRide(t *testing.T) {
	ing, ms, log := newTestIngestor(t)
	seedDriver(ms, "driver-1")
	seedRide(t, ms, "ride-1", "driver-1", models.StatusCompleted)

	active, err := ing.Update(context.Background(), "driver-1", 37.77, -122.41)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if active {
		t.Fatal("completed ride must not count as active")
	}
	hist, _ := log.History(context.Background(), "ride-1")
	if len(hist) != 0 {
		t.Fatalf("history = %+v, want empty", hist)
	}
}

type capturePublisher struct{ pings []models.LocationPing }

func (c *capturePublisher) PublishLocation(ctx context.Context, p models.LocationPing) error {
	c.pings = append(c.pings, p)
	return nil
}

func TestUpdatePublishesPing(t *testing.T) {
	ms := store.NewMemoryStore()
	logger := slog.Default()
	log := events.NewLog(ms, events.NewBroker(logger), nil, logger)
	pub := &capturePublisher{}
	ing := NewIngestor(ms, ms, log, pub, logger)
	seedDriver(ms, "driver-1")

	if _, err := ing.Update(context.Background(), "driver-1", 1, 2); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(pub.pings) != 1 || pub.pings[0].DriverID != "driver-1" {
		t.Fatalf("pings = %+v", pub.pings)
	}
}
