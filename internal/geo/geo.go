// Package geo holds the pure distance/bearing/ETA math used by pricing and
// matching. Functions here are deterministic and never fail; coordinate range
// validation is a caller contract enforced before values reach this package.
package geo

import (
	"math"

	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

// EarthRadiusMi is the mean Earth radius in miles used by the haversine formula.
const EarthRadiusMi = 3959.0

// DistanceMiles returns the great-circle distance between two points.
func DistanceMiles(a, b models.Coord) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMi * c
}

// ETAMinutes converts a distance into travel minutes at the given speed.
func ETAMinutes(distanceMi, speedMph float64) float64 {
	return distanceMi / speedMph * 60
}

// Bearing returns the initial great-circle bearing from a to b in degrees
// [0, 360), used for driver-facing heading hints.
func Bearing(a, b models.Coord) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLng := toRad(b.Lng - a.Lng)
	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
