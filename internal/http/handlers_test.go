package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LongshotAI/ride-my-wheels-home/internal/events"
	"github.com/LongshotAI/ride-my-wheels-home/internal/location"
	"github.com/LongshotAI/ride-my-wheels-home/internal/matching"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
	"github.com/LongshotAI/ride-my-wheels-home/internal/pricing"
	"github.com/LongshotAI/ride-my-wheels-home/internal/ride"
	"github.com/LongshotAI/ride-my-wheels-home/internal/sos"
	"github.com/LongshotAI/ride-my-wheels-home/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	ms.PutPricingRule(models.PricingRule{
		ID: "rule-1", BaseFareCents: 500, PerMiCents: 150, PerMinCents: 20,
		SurgeMultiplier: 1.0, Active: true,
	})
	logger := slog.Default()
	log := events.NewLog(ms, events.NewBroker(logger), nil, logger)
	eng := pricing.NewEngine(ms)
	srv := NewServer(
		ride.NewService(ms, eng, log, logger),
		eng,
		matching.NewMatcher(ms, nil, logger),
		location.NewIngestor(ms, ms, log, nil, logger),
		sos.NewHandler(ms, log, logger),
		log,
		logger,
	)
	return srv, ms
}

func seedDriver(ms *store.MemoryStore, id string, lat, lng float64) {
	ms.PutDriver(models.DriverProfile{
		ID: id, Status: models.DriverApproved, Online: true,
		BackgroundCheck: models.BackgroundClear,
		CurrentLat:      &lat, CurrentLng: &lng,
	})
}

func doJSON(t *testing.T, srv *Server, method, path, actorID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
		req.Header.Set("X-Actor-Role", role)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

var testTrip = map[string]any{
	"pickup":  map[string]any{"address": "100 Main St", "lat": 37.7793, "lng": -122.4193},
	"dropoff": map[string]any{"address": "200 Market St", "lat": 37.7913, "lng": -122.4089},
}

func requestRide(t *testing.T, srv *Server, riderID string) models.Ride {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/request", riderID, "rider", testTrip)
	if rec.Code != http.StatusCreated {
		t.Fatalf("request ride: status %d body %s", rec.Code, rec.Body.String())
	}
	var r models.Ride
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode ride: %v", err)
	}
	return r
}

func TestQuoteEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/quote", "", "", testTrip)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var q models.Quote
	if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.QuotedPriceCents <= 0 || q.DistanceMi <= 0 {
		t.Fatalf("quote = %+v", q)
	}
}

func TestQuoteRejectsBadCoordinates(t *testing.T) {
	srv, _ := newTestServer(t)
	body := map[string]any{
		"pickup":  map[string]any{"address": "a", "lat": 99.0, "lng": 0.0},
		"dropoff": map[string]any{"address": "b", "lat": 0.0, "lng": 0.0},
	}
	if rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/quote", "", "", body); rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestRideRequestRequiresActor(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/request", "", "", testTrip); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestRideLifecycleOverHTTP(t *testing.T) {
	srv, ms := newTestServer(t)
	seedDriver(ms, "driver-1", 37.78, -122.42)

	r := requestRide(t, srv, "rider-1")
	if r.Status != models.StatusRequested {
		t.Fatalf("status = %s", r.Status)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+r.ID+"/accept", "driver-1", "driver", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: status %d body %s", rec.Code, rec.Body.String())
	}

	for _, next := range []models.RideStatus{models.StatusDriverArriving, models.StatusInProgress, models.StatusCompleted} {
		rec = doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+r.ID+"/status", "driver-1", "driver",
			map[string]any{"status": next})
		if rec.Code != http.StatusOK {
			t.Fatalf("advance to %s: status %d body %s", next, rec.Code, rec.Body.String())
		}
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/rides/"+r.ID+"/events", "rider-1", "rider", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("events: status %d", rec.Code)
	}
	var evs []models.RideEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &evs); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(evs) != 5 {
		t.Fatalf("got %d events, want 5", len(evs))
	}
}

func TestAcceptConflictMapsTo409(t *testing.T) {
	srv, ms := newTestServer(t)
	seedDriver(ms, "driver-1", 37.78, -122.42)
	seedDriver(ms, "driver-2", 37.78, -122.42)

	r := requestRide(t, srv, "rider-1")
	if rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+r.ID+"/accept", "driver-1", "driver", nil); rec.Code != http.StatusOK {
		t.Fatalf("first accept: status %d", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+r.ID+"/accept", "driver-2", "driver", nil); rec.Code != http.StatusConflict {
		t.Fatalf("second accept: status %d, want 409", rec.Code)
	}
}

func TestGetRideParticipantOnly(t *testing.T) {
	srv, _ := newTestServer(t)
	r := requestRide(t, srv, "rider-1")

	if rec := doJSON(t, srv, http.MethodGet, "/api/v1/rides/"+r.ID, "rider-1", "rider", nil); rec.Code != http.StatusOK {
		t.Fatalf("rider get: status %d", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/api/v1/rides/"+r.ID, "stranger", "rider", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger get: status %d, want 403", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/api/v1/rides/ghost", "rider-1", "rider", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing ride: status %d, want 404", rec.Code)
	}
}

func TestCancelOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	r := requestRide(t, srv, "rider-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+r.ID+"/cancel", "rider-1", "rider",
		map[string]any{"reason": "changed plans"})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status models.RideStatus `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != models.StatusCancelledByRider {
		t.Fatalf("status = %s", resp.Status)
	}
}

func TestSOSEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	r := requestRide(t, srv, "rider-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+r.ID+"/sos", "rider-1", "rider",
		map[string]any{"lat": 37.78, "lng": -122.41, "message": "help"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("sos: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+r.ID+"/sos", "stranger", "rider",
		map[string]any{"lat": 37.78, "lng": -122.41}); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger sos: status %d, want 403", rec.Code)
	}
}

func TestDriverLocationEndpoint(t *testing.T) {
	srv, ms := newTestServer(t)
	seedDriver(ms, "driver-1", 37.78, -122.42)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/drivers/location", "driver-1", "driver",
		map[string]any{"lat": 37.79, "lng": -122.40})
	if rec.Code != http.StatusOK {
		t.Fatalf("location: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		HasActiveRide *bool `json:"has_active_ride"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.HasActiveRide == nil || *resp.HasActiveRide {
		t.Fatalf("has_active_ride = %v, want false", resp.HasActiveRide)
	}
	if rec := doJSON(t, srv, http.MethodPost, "/api/v1/drivers/location", "rider-1", "rider",
		map[string]any{"lat": 37.79, "lng": -122.40}); rec.Code != http.StatusForbidden {
		t.Fatalf("rider ping: status %d, want 403", rec.Code)
	}
}

func TestNearbyDriversEndpoint(t *testing.T) {
	srv, ms := newTestServer(t)
	seedDriver(ms, "driver-near", 37.7790, -122.4190)
	seedDriver(ms, "driver-far", 38.5, -121.5)

	rec := doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/v1/drivers/nearby?lat=%f&lng=%f", 37.7793, -122.4193), "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("nearby: status %d body %s", rec.Code, rec.Body.String())
	}
	var cands []models.Candidate
	if err := json.Unmarshal(rec.Body.Bytes(), &cands); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cands) != 1 || cands[0].DriverID != "driver-near" {
		t.Fatalf("candidates = %+v", cands)
	}

	if rec := doJSON(t, srv, http.MethodGet, "/api/v1/drivers/nearby?lat=abc&lng=0", "", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad query: status %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}
