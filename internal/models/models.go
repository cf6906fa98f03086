package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is inside the WGS84 range.
func (c Coord) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Place is a coordinate plus the human-readable address shown to riders.
type Place struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (p Place) Coord() Coord { return Coord{Lat: p.Lat, Lng: p.Lng} }

type RideStatus string

const (
	StatusRequested         RideStatus = "requested"
	StatusScheduled         RideStatus = "scheduled"
	StatusDriverAssigned    RideStatus = "driver_assigned"
	StatusDriverArriving    RideStatus = "driver_arriving"
	StatusInProgress        RideStatus = "in_progress"
	StatusCompleted         RideStatus = "completed"
	StatusCancelledByRider  RideStatus = "cancelled_by_rider"
	StatusCancelledByDriver RideStatus = "cancelled_by_driver"
)

// Terminal statuses are retained for audit and rating; nothing moves out of them.
func (s RideStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelledByRider, StatusCancelledByDriver:
		return true
	}
	return false
}

// Active statuses are the ones during which a driver streams location events.
func (s RideStatus) Active() bool {
	switch s {
	case StatusDriverAssigned, StatusDriverArriving, StatusInProgress:
		return true
	}
	return false
}

type Ride struct {
	ID               string     `json:"id"`
	RiderID          string     `json:"rider_id"`
	DriverID         string     `json:"driver_id,omitempty"` // empty until assigned
	Pickup           Place      `json:"pickup"`
	Dropoff          Place      `json:"dropoff"`
	Status           RideStatus `json:"status"`
	QuotedPriceCents int64      `json:"quoted_price_cents"`
	DistanceMi       float64    `json:"distance_mi"`
	DurationMin      float64    `json:"duration_min"`
	ScheduledFor     *time.Time `json:"scheduled_for,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type DriverStatus string

const (
	DriverPending  DriverStatus = "pending"
	DriverApproved DriverStatus = "approved"
	DriverRejected DriverStatus = "rejected"
)

type BackgroundCheck string

const (
	BackgroundClear   BackgroundCheck = "clear"
	BackgroundPending BackgroundCheck = "pending"
	BackgroundFailed  BackgroundCheck = "failed"
)

// DriverProfile is keyed by the driver's user id.
type DriverProfile struct {
	ID              string          `json:"id"`
	Status          DriverStatus    `json:"status"`
	Online          bool            `json:"online"`
	BackgroundCheck BackgroundCheck `json:"background_check_status"`
	CurrentLat      *float64        `json:"current_lat,omitempty"`
	CurrentLng      *float64        `json:"current_lng,omitempty"`
	LastGPSAt       *time.Time      `json:"last_gps_at,omitempty"`
	RatingAvg       float64         `json:"rating_avg"`
	RatingCount     int             `json:"rating_count"`
}

// Eligible reports whether matching and acceptance consider this driver
// dispatchable. Location presence is checked separately where it matters.
func (d DriverProfile) Eligible() bool {
	return d.Online && d.Status == DriverApproved && d.BackgroundCheck == BackgroundClear
}

func (d DriverProfile) HasLocation() bool {
	return d.CurrentLat != nil && d.CurrentLng != nil
}

// PricingRule is externally administered; exactly one rule is active at a time.
type PricingRule struct {
	ID              string  `json:"id"`
	BaseFareCents   int64   `json:"base_fare_cents"`
	PerMiCents      int64   `json:"per_mi_cents"`
	PerMinCents     int64   `json:"per_min_cents"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	Active          bool    `json:"active"`
}

// Quote is the priced estimate for a prospective ride.
type Quote struct {
	DistanceMi       float64 `json:"distance_mi"`
	DurationMin      float64 `json:"duration_min"`
	QuotedPriceCents int64   `json:"quoted_price_cents"`
	SurgeMultiplier  float64 `json:"surge_multiplier"`
}

// Candidate is one ranked entry from the driver matcher.
type Candidate struct {
	DriverID   string     `json:"driver_id"`
	DistanceMi float64    `json:"distance_mi"`
	ETAMin     float64    `json:"eta_min"`
	Rating     float64    `json:"rating"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
}

// LocationPing is the wire shape published to the driver-locations topic and
// consumed by the geo-index updater.
type LocationPing struct {
	DriverID string    `json:"driver_id"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	At       time.Time `json:"at"`
}

type ActorRole string

const (
	RoleRider  ActorRole = "rider"
	RoleDriver ActorRole = "driver"
)

// Actor is the authenticated caller as reported by the identity collaborator.
type Actor struct {
	ID   string
	Role ActorRole
}
