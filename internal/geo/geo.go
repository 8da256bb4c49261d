// Package geo implements the pure math of the guessing game: uniform
// sampling inside a bounding box, haversine distance and the distance
// to score mapping. All functions are total.
package geo

import (
	"fmt"
	"math"
	"math/rand"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees. Points are kept at full
// float precision; rounding happens only at display time.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Box is a rectangular lat/lng region used to constrain location sampling.
type Box struct {
	North float64
	South float64
	East  float64
	West  float64
}

// PlayArea is the process-wide bounding box locations are drawn from
// (central Leiden).
var PlayArea = Box{
	North: 52.1750,
	South: 52.1500,
	East:  4.5200,
	West:  4.4700,
}

// Validate checks the box invariant north > south, east > west.
func (b Box) Validate() error {
	if b.North <= b.South {
		return fmt.Errorf("invalid box: north %f <= south %f", b.North, b.South)
	}
	if b.East <= b.West {
		return fmt.Errorf("invalid box: east %f <= west %f", b.East, b.West)
	}
	return nil
}

// SamplePoint draws latitude and longitude independently and uniformly from
// the box. The random source is injected so rounds are reproducible in tests.
func SamplePoint(r *rand.Rand, b Box) Point {
	return Point{
		Lat: b.South + r.Float64()*(b.North-b.South),
		Lng: b.West + r.Float64()*(b.East-b.West),
	}
}

// DistanceMeters returns the haversine great-circle distance between two
// points in meters.
func DistanceMeters(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// Score maps a distance in meters to an integer score in [0, 5000].
// Exactly 5000 at distance 0, reaching 0 at 50km and beyond.
func Score(distanceMeters float64) int {
	s := int(math.Round(5000 - distanceMeters/10))
	if s < 0 {
		return 0
	}
	return s
}

// FormatDistance renders a distance for display: meters below 1km,
// kilometers with two decimals above.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0fm", meters)
	}
	return fmt.Sprintf("%.2fkm", meters/1000.0)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
