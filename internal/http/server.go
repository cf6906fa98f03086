// Package httpapi exposes the ride-hailing core over HTTP and websockets.
// Identity arrives via X-Actor-ID / X-Actor-Role headers set by the gateway;
// this layer trusts them and enforces participant checks only.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LongshotAI/ride-my-wheels-home/internal/events"
	"github.com/LongshotAI/ride-my-wheels-home/internal/location"
	"github.com/LongshotAI/ride-my-wheels-home/internal/matching"
	"github.com/LongshotAI/ride-my-wheels-home/internal/pricing"
	"github.com/LongshotAI/ride-my-wheels-home/internal/ride"
	"github.com/LongshotAI/ride-my-wheels-home/internal/sos"
)

type Server struct {
	Rides    *ride.Service
	Pricing  *pricing.Engine
	Matcher  *matching.Matcher
	Location *location.Ingestor
	SOS      *sos.Handler
	Events   *events.Log

	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(rides *ride.Service, eng *pricing.Engine, m *matching.Matcher, ing *location.Ingestor, sosH *sos.Handler, log *events.Log, logger *slog.Logger) *Server {
	s := &Server{
		Rides:    rides,
		Pricing:  eng,
		Matcher:  m,
		Location: ing,
		SOS:      sosH,
		Events:   log,
		logger:   logger,
		mux:      mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/rides/quote", s.handleQuote).Methods(http.MethodPost)
	api.HandleFunc("/rides/request", s.handleRideRequest).Methods(http.MethodPost)
	api.HandleFunc("/rides/{id}", s.handleGetRide).Methods(http.MethodGet)
	api.HandleFunc("/rides/{id}/accept", s.handleAccept).Methods(http.MethodPost)
	api.HandleFunc("/rides/{id}/status", s.handleAdvance).Methods(http.MethodPost)
	api.HandleFunc("/rides/{id}/cancel", s.handleCancel).Methods(http.MethodPost)
	api.HandleFunc("/rides/{id}/sos", s.handleSOS).Methods(http.MethodPost)
	api.HandleFunc("/rides/{id}/events", s.handleRideEvents).Methods(http.MethodGet)

	api.HandleFunc("/drivers/location", s.handleDriverLocation).Methods(http.MethodPost)
	api.HandleFunc("/drivers/nearby", s.handleNearbyDrivers).Methods(http.MethodGet)

	s.mux.HandleFunc("/ws/rides/{ride_id}", s.handleRideStream)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }
