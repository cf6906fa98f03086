// Package pricing converts a pickup/dropoff pair and the active pricing rule
// into a quoted price. Quotes are deterministic and side-effect free, so the
// engine is callable for quote-only use cases.
package pricing

import (
	"context"
	"math"

	"github.com/LongshotAI/ride-my-wheels-home/internal/geo"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
	"github.com/LongshotAI/ride-my-wheels-home/internal/observability"
)

// CityCarSpeedMph is the trip-duration assumption for the car leg. The driver
// approach leg in matching uses a different bike-speed constant; the two model
// physically different legs and must not be unified.
const CityCarSpeedMph = 30.0

// RuleSource yields the single active pricing rule.
type RuleSource interface {
	ActivePricingRule(ctx context.Context) (*models.PricingRule, error)
}

type Engine struct {
	Rules RuleSource
}

func NewEngine(rules RuleSource) *Engine { return &Engine{Rules: rules} }

// Quote prices the trip from pickup to dropoff. Coordinates must already be
// validated by the caller. Fails with errs.ErrNoActivePricingRule when no rule
// is active.
func (e *Engine) Quote(ctx context.Context, pickup, dropoff models.Coord) (models.Quote, error) {
	rule, err := e.Rules.ActivePricingRule(ctx)
	if err != nil {
		return models.Quote{}, err
	}

	distanceMi := geo.DistanceMiles(pickup, dropoff)
	durationMin := geo.ETAMinutes(distanceMi, CityCarSpeedMph)

	raw := (float64(rule.BaseFareCents) +
		float64(rule.PerMiCents)*distanceMi +
		float64(rule.PerMinCents)*durationMin) * rule.SurgeMultiplier

	observability.QuotesTotal.Inc()

	return models.Quote{
		DistanceMi:       distanceMi,
		DurationMin:      durationMin,
		QuotedPriceCents: int64(math.Round(raw)),
		SurgeMultiplier:  rule.SurgeMultiplier,
	}, nil
}
