// Package matching ranks eligible online drivers by proximity to a pickup
// point. It is read-only: stale locations are surfaced with last_seen, not
// filtered; freshness policy belongs to the caller.
package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/LongshotAI/ride-my-wheels-home/internal/geo"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

const (
	// DefaultMaxDistanceMi bounds the search radius when the caller passes none.
	DefaultMaxDistanceMi = 10.0
	// BikeSpeedMph models the driver approach leg; drivers commute by bike
	// between gigs. Distinct from the 30 mph car speed used for trip quotes.
	BikeSpeedMph = 15.0
)

// DriverSource lists drivers already filtered to online, approved,
// background-clear, with coordinates present.
type DriverSource interface {
	ListEligibleDrivers(ctx context.Context) ([]models.DriverProfile, error)
}

// CandidateIndex narrows the candidate set before profile checks. The index
// is a hint kept fresh by the location consumer; eligibility is always
// re-checked against the driver source.
type CandidateIndex interface {
	Within(ctx context.Context, origin models.Coord, radiusMi float64) ([]string, error)
}

type Matcher struct {
	Drivers DriverSource
	Index   CandidateIndex // optional
	Logger  *slog.Logger

	// MaxDistanceMi overrides the default search radius for callers that pass
	// none. Zero means DefaultMaxDistanceMi.
	MaxDistanceMi float64
}

func NewMatcher(drivers DriverSource, index CandidateIndex, logger *slog.Logger) *Matcher {
	return &Matcher{Drivers: drivers, Index: index, Logger: logger}
}

// Nearby returns drivers within maxDistanceMi of pickup, sorted ascending by
// distance with ties broken by driver id for determinism.
func (m *Matcher) Nearby(ctx context.Context, pickup models.Coord, maxDistanceMi float64) ([]models.Candidate, error) {
	if maxDistanceMi <= 0 {
		maxDistanceMi = m.MaxDistanceMi
	}
	if maxDistanceMi <= 0 {
		maxDistanceMi = DefaultMaxDistanceMi
	}

	drivers, err := m.Drivers.ListEligibleDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list eligible drivers: %w", err)
	}

	if m.Index != nil && len(drivers) > 0 {
		drivers = m.prefilter(ctx, pickup, maxDistanceMi, drivers)
	}

	out := make([]models.Candidate, 0, len(drivers))
	for _, d := range drivers {
		if !d.HasLocation() {
			continue
		}
		dist := geo.DistanceMiles(pickup, models.Coord{Lat: *d.CurrentLat, Lng: *d.CurrentLng})
		if dist > maxDistanceMi {
			continue
		}
		out = append(out, models.Candidate{
			DriverID:   d.ID,
			DistanceMi: dist,
			ETAMin:     geo.ETAMinutes(dist, BikeSpeedMph),
			Rating:     d.RatingAvg,
			LastSeen:   d.LastGPSAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMi != out[j].DistanceMi {
			return out[i].DistanceMi < out[j].DistanceMi
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out, nil
}

// prefilter keeps only drivers the geo index places inside the radius. Index
// failures or an empty answer fall back to the full eligible set so a cold or
// unreachable index never hides drivers.
func (m *Matcher) prefilter(ctx context.Context, pickup models.Coord, radiusMi float64, drivers []models.DriverProfile) []models.DriverProfile {
	ids, err := m.Index.Within(ctx, pickup, radiusMi)
	if err != nil {
		m.Logger.Warn("candidate index unavailable, scanning all eligible drivers", "error", err)
		return drivers
	}
	if len(ids) == 0 {
		return drivers
	}
	in := make(map[string]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}
	kept := drivers[:0]
	for _, d := range drivers {
		if in[d.ID] {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return drivers
	}
	return kept
}
