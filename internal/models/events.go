package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is a closed enum. Unknown types are rejected at the boundary
// rather than stored as opaque blobs.
type EventType string

const (
	EventRideRequested  EventType = "ride_requested"
	EventDriverAssigned EventType = "driver_assigned"
	EventStatusChanged  EventType = "status_changed"
	EventDriverLocation EventType = "driver_location"
	EventRideCancelled  EventType = "ride_cancelled"
	EventSOS            EventType = "sos"
)

func (t EventType) Known() bool {
	switch t {
	case EventRideRequested, EventDriverAssigned, EventStatusChanged,
		EventDriverLocation, EventRideCancelled, EventSOS:
		return true
	}
	return false
}

// RideEvent is an immutable, timestamped fact appended to a ride's history.
// Meta holds the JSON encoding of the typed payload matching Type.
type RideEvent struct {
	ID        string          `json:"id"`
	RideID    string          `json:"ride_id"`
	Type      EventType       `json:"type"`
	Meta      json.RawMessage `json:"meta"`
	CreatedAt time.Time       `json:"created_at"`
}

// One payload schema per event type.

type RideRequestedMeta struct {
	Pickup      string `json:"pickup"`
	Dropoff     string `json:"dropoff"`
	QuotedPrice int64  `json:"quoted_price"`
}

type DriverAssignedMeta struct {
	DriverID  string    `json:"driver_id"`
	Timestamp time.Time `json:"timestamp"`
}

type StatusChangedMeta struct {
	From      RideStatus `json:"from"`
	To        RideStatus `json:"to"`
	ActorID   string     `json:"actor_id"`
	Timestamp time.Time  `json:"timestamp"`
}

type DriverLocationMeta struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

type RideCancelledMeta struct {
	CancelledBy     string    `json:"cancelled_by"`
	CancelledByRole ActorRole `json:"cancelled_by_role"`
	Reason          string    `json:"reason,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

type SOSMeta struct {
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Message     string    `json:"message,omitempty"`
	TriggeredBy string    `json:"triggered_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// MetaPayload pairs a payload struct with the event type it encodes as.
type MetaPayload interface {
	EventType() EventType
}

func (RideRequestedMeta) EventType() EventType  { return EventRideRequested }
func (DriverAssignedMeta) EventType() EventType { return EventDriverAssigned }
func (StatusChangedMeta) EventType() EventType  { return EventStatusChanged }
func (DriverLocationMeta) EventType() EventType { return EventDriverLocation }
func (RideCancelledMeta) EventType() EventType  { return EventRideCancelled }
func (SOSMeta) EventType() EventType            { return EventSOS }

// EncodeMeta marshals a typed payload for storage.
func EncodeMeta(p MetaPayload) (json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s meta: %w", p.EventType(), err)
	}
	return b, nil
}

// DecodeMeta unmarshals an event's meta into the payload struct for its type.
// The returned value is a pointer to the concrete meta struct.
func DecodeMeta(e RideEvent) (MetaPayload, error) {
	var p MetaPayload
	switch e.Type {
	case EventRideRequested:
		p = &RideRequestedMeta{}
	case EventDriverAssigned:
		p = &DriverAssignedMeta{}
	case EventStatusChanged:
		p = &StatusChangedMeta{}
	case EventDriverLocation:
		p = &DriverLocationMeta{}
	case EventRideCancelled:
		p = &RideCancelledMeta{}
	case EventSOS:
		p = &SOSMeta{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Meta, p); err != nil {
		return nil, fmt.Errorf("decode %s meta: %w", e.Type, err)
	}
	return p, nil
}
