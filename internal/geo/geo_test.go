package geo

import (
	"math"
	"testing"

	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

func TestDistanceMilesIdentity(t *testing.T) {
	pts := []models.Coord{
		{Lat: 0, Lng: 0},
		{Lat: 37.7749, Lng: -122.4194},
		{Lat: -33.8688, Lng: 151.2093},
	}
	for _, p := range pts {
		if d := DistanceMiles(p, p); d != 0 {
			t.Fatalf("DistanceMiles(%v, %v) = %f, want 0", p, p, d)
		}
	}
}

func TestDistanceMilesSymmetry(t *testing.T) {
	a := models.Coord{Lat: 37.7749, Lng: -122.4194}
	b := models.Coord{Lat: 37.7849, Lng: -122.4094}
	ab := DistanceMiles(a, b)
	ba := DistanceMiles(b, a)
	if math.Abs(ab-ba) > 1e-12 {
		t.Fatalf("asymmetric distance: %f vs %f", ab, ba)
	}
}

func TestDistanceMilesKnownPair(t *testing.T) {
	// downtown SF pair used by the pricing examples, ~0.87 mi apart
	a := models.Coord{Lat: 37.7749, Lng: -122.4194}
	b := models.Coord{Lat: 37.7849, Lng: -122.4094}
	d := DistanceMiles(a, b)
	if d < 0.85 || d > 0.90 {
		t.Fatalf("distance = %f, want ~0.87", d)
	}
}

func TestETAMinutes(t *testing.T) {
	if got := ETAMinutes(15, 30); got != 30 {
		t.Fatalf("ETAMinutes(15, 30) = %f, want 30", got)
	}
	if got := ETAMinutes(15, 15); got != 60 {
		t.Fatalf("ETAMinutes(15, 15) = %f, want 60", got)
	}
}

func TestBearingRange(t *testing.T) {
	a := models.Coord{Lat: 37.7749, Lng: -122.4194}
	cases := []models.Coord{
		{Lat: 38.0, Lng: -122.4194},
		{Lat: 37.7749, Lng: -122.0},
		{Lat: 37.0, Lng: -123.0},
	}
	for _, b := range cases {
		deg := Bearing(a, b)
		if deg < 0 || deg >= 360 {
			t.Fatalf("bearing %f out of [0,360)", deg)
		}
	}
	if n := Bearing(a, models.Coord{Lat: 38.0, Lng: -122.4194}); math.Abs(n) > 0.5 {
		t.Fatalf("due-north bearing = %f, want ~0", n)
	}
}
