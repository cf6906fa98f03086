package pricing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/geo"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

type fakeRules struct{ rule *models.PricingRule }

func (f *fakeRules) ActivePricingRule(ctx context.Context) (*models.PricingRule, error) {
	if f.rule == nil {
		return nil, errs.ErrNoActivePricingRule
	}
	return f.rule, nil
}

var (
	sfPickup  = models.Coord{Lat: 37.7749, Lng: -122.4194}
	sfDropoff = models.Coord{Lat: 37.7849, Lng: -122.4094}
)

func TestQuoteMatchesFormula(t *testing.T) {
	rule := &models.PricingRule{BaseFareCents: 500, PerMiCents: 150, PerMinCents: 20, SurgeMultiplier: 1.0, Active: true}
	e := NewEngine(&fakeRules{rule: rule})

	q, err := e.Quote(context.Background(), sfPickup, sfDropoff)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.DistanceMi < 0.85 || q.DistanceMi > 0.90 {
		t.Fatalf("distance = %f, want ~0.87", q.DistanceMi)
	}
	if math.Abs(q.DurationMin-q.DistanceMi/30*60) > 1e-9 {
		t.Fatalf("duration %f not distance/30*60", q.DurationMin)
	}

	d := geo.DistanceMiles(sfPickup, sfDropoff)
	want := int64(math.Round(500 + 150*d + 20*(d/30*60)))
	if q.QuotedPriceCents != want {
		t.Fatalf("price = %d, want %d", q.QuotedPriceCents, want)
	}
	if q.SurgeMultiplier != 1.0 {
		t.Fatalf("surge = %f, want 1.0", q.SurgeMultiplier)
	}
}

func TestQuoteDeterministic(t *testing.T) {
	rule := &models.PricingRule{BaseFareCents: 500, PerMiCents: 150, PerMinCents: 20, SurgeMultiplier: 1.3, Active: true}
	e := NewEngine(&fakeRules{rule: rule})

	a, err := e.Quote(context.Background(), sfPickup, sfDropoff)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	b, err := e.Quote(context.Background(), sfPickup, sfDropoff)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if a != b {
		t.Fatalf("quotes differ: %+v vs %+v", a, b)
	}
}

func TestQuoteSurgeScalesPrice(t *testing.T) {
	base := &models.PricingRule{BaseFareCents: 500, PerMiCents: 150, PerMinCents: 20, SurgeMultiplier: 1.0, Active: true}
	surged := *base
	surged.SurgeMultiplier = 2.0

	e1 := NewEngine(&fakeRules{rule: base})
	e2 := NewEngine(&fakeRules{rule: &surged})

	q1, _ := e1.Quote(context.Background(), sfPickup, sfDropoff)
	q2, _ := e2.Quote(context.Background(), sfPickup, sfDropoff)
	// rounding happens after the multiplier, so 2x surge is within a cent of 2x price
	if diff := q2.QuotedPriceCents - 2*q1.QuotedPriceCents; diff < -1 || diff > 1 {
		t.Fatalf("surge price %d not ~2x base %d", q2.QuotedPriceCents, q1.QuotedPriceCents)
	}
}

func TestQuoteNoActiveRule(t *testing.T) {
	e := NewEngine(&fakeRules{})
	_, err := e.Quote(context.Background(), sfPickup, sfDropoff)
	if !errors.Is(err, errs.ErrNoActivePricingRule) {
		t.Fatalf("err = %v, want ErrNoActivePricingRule", err)
	}
}
