// Package geo provides geographic distance calculations for proximity
// filtering and scoring.
package geo

import (
	"math"

	"github.com/univrs/discovery/internal/content"
)

// EarthRadiusMeters is the mean radius of the Earth used for haversine
// distance.
const EarthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance between two points using
// the haversine formula. Accurate to within ~0.5% which is sufficient for
// radius filtering and proximity ranking.
func DistanceMeters(a, b content.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// WithinRadius reports whether point b lies within radiusKm of point a.
func WithinRadius(a, b content.Point, radiusKm float64) bool {
	return DistanceMeters(a, b) <= radiusKm*1000
}
