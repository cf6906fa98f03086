package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
)

var upgrader = websocket.Upgrader{}

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

// handleRideStream replays the ride's full event history, then forwards live
// events until the client disconnects. Slow readers that let the broker buffer
// overflow miss events and should reconnect to resync from history.
func (s *Server) handleRideStream(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	rideID := mux.Vars(r)["ride_id"]
	ride, err := s.Rides.Get(r.Context(), rideID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !isParticipant(actor.ID, ride) {
		s.writeError(w, r, errs.ErrNotAParticipant)
		return
	}

	// Subscribe before fetching history so nothing appended in between is
	// lost; duplicates across the boundary are possible and clients dedupe
	// by id.
	sub := s.Events.Subscribe(rideID)
	defer sub.Cancel()

	history, err := s.Events.History(r.Context(), rideID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "ride_id", rideID, "error", err)
		return
	}
	defer conn.Close()

	for _, ev := range history {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, open := <-sub.C:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
