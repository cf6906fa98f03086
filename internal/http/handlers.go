package httpapi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

type quoteRequest struct {
	Pickup  models.Place `json:"pickup"`
	Dropoff models.Place `json:"dropoff"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !req.Pickup.Coord().Valid() || !req.Dropoff.Coord().Valid() {
		s.writeError(w, r, errs.ErrInvalidCoordinates)
		return
	}
	q, err := s.Pricing.Quote(r.Context(), req.Pickup.Coord(), req.Dropoff.Coord())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// stored values keep full precision; only the response is rounded
	q.DistanceMi = round(q.DistanceMi, 2)
	q.DurationMin = round(q.DurationMin, 1)
	s.respond(w, http.StatusOK, q)
}

type rideRequest struct {
	Pickup       models.Place `json:"pickup"`
	Dropoff      models.Place `json:"dropoff"`
	ScheduledFor *time.Time   `json:"scheduled_for,omitempty"`
}

func (s *Server) handleRideRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req rideRequest
	if !s.decode(w, r, &req) {
		return
	}
	ride, err := s.Rides.Request(r.Context(), actor.ID, req.Pickup, req.Dropoff, req.ScheduledFor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, ride)
}

func (s *Server) handleGetRide(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	ride, err := s.Rides.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !isParticipant(actor.ID, ride) {
		s.writeError(w, r, errs.ErrNotAParticipant)
		return
	}
	s.respond(w, http.StatusOK, ride)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	ride, err := s.Rides.Accept(r.Context(), actor.ID, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, ride)
}

type advanceRequest struct {
	Status models.RideStatus `json:"status"`
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req advanceRequest
	if !s.decode(w, r, &req) {
		return
	}
	ride, err := s.Rides.Advance(r.Context(), actor.ID, mux.Vars(r)["id"], req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, ride)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if !s.decode(w, r, &req) {
		return
	}
	status, err := s.Rides.Cancel(r.Context(), actor.ID, mux.Vars(r)["id"], req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"status": status})
}

type sosRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Message string  `json:"message"`
}

func (s *Server) handleSOS(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req sosRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.SOS.Trigger(r.Context(), actor.ID, mux.Vars(r)["id"], req.Lat, req.Lng, req.Message); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (s *Server) handleRideEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	rideID := mux.Vars(r)["id"]
	ride, err := s.Rides.Get(r.Context(), rideID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !isParticipant(actor.ID, ride) {
		s.writeError(w, r, errs.ErrNotAParticipant)
		return
	}
	evs, err := s.Events.History(r.Context(), rideID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, evs)
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (s *Server) handleDriverLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req locationRequest
	if !s.decode(w, r, &req) {
		return
	}
	active, err := s.Location.Update(r.Context(), actor.ID, req.Lat, req.Lng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"has_active_ride": active})
}

func (s *Server) handleNearbyDrivers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		s.writeError(w, r, errs.ErrValidation)
		return
	}
	pickup := models.Coord{Lat: lat, Lng: lng}
	if !pickup.Valid() {
		s.writeError(w, r, errs.ErrInvalidCoordinates)
		return
	}
	var maxMi float64
	if v := q.Get("max_distance_mi"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			s.writeError(w, r, errs.ErrValidation)
			return
		}
		maxMi = f
	}
	cands, err := s.Matcher.Nearby(r.Context(), pickup, maxMi)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for i := range cands {
		cands[i].DistanceMi = round(cands[i].DistanceMi, 2)
		cands[i].ETAMin = round(cands[i].ETAMin, 1)
	}
	s.respond(w, http.StatusOK, cands)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

func isParticipant(actorID string, ride *models.Ride) bool {
	if actorID == "" {
		return false
	}
	return actorID == ride.RiderID || (ride.DriverID != "" && actorID == ride.DriverID)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respond(w, http.StatusBadRequest, errorBody("invalid_request", "malformed JSON body"))
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

func errorBody(code, msg string) map[string]any {
	return map[string]any{"error": map[string]string{"code": code, "message": msg}}
}

// writeError maps domain sentinels onto HTTP statuses. Unknown errors become
// 500 without leaking detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrInvalidCoordinates):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, errs.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, errs.ErrNotAParticipant), errors.Is(err, errs.ErrNotADriver):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrRideNotFound), errors.Is(err, errs.ErrDriverNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrRideAlreadyAccepted), errors.Is(err, errs.ErrRideNotAvailable),
		errors.Is(err, errs.ErrInvalidTransition), errors.Is(err, errs.ErrDriverNotEligible):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, errs.ErrNoActivePricingRule), errors.Is(err, errs.ErrStorageUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
	default:
		status, code = http.StatusInternalServerError, "internal"
		s.logger.Error("unhandled error", "path", r.URL.Path, "error", err)
		s.respond(w, status, errorBody(code, "internal error"))
		return
	}
	s.respond(w, status, errorBody(code, err.Error()))
}
