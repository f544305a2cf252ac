// Package geo provides great-circle helpers used to describe where a venue is
// relative to the user.
package geo

import (
	"math"
	"strings"
)

const earthRadiusMeters = 6371000

// Direction is one of the eight compass octants.
type Direction int

// Compass octants, clockwise from north.
const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var directionLabels = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// String returns the short compass label.
func (d Direction) String() string {
	return directionLabels[d.normalized()]
}

// Key returns the localization key for the direction, e.g. "direction_ne".
func (d Direction) Key() string {
	return "direction_" + strings.ToLower(directionLabels[d.normalized()])
}

func (d Direction) normalized() int {
	return ((int(d) % 8) + 8) % 8
}

// Distance returns the haversine distance between two points in whole meters.
func Distance(lat1, lon1, lat2, lon2 float64) int {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	deltaPhi := radians(lat2 - lat1)
	deltaLambda := radians(lon2 - lon1)

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return int(earthRadiusMeters * c)
}

// Bearing returns the initial compass bearing from point 1 to point 2 in [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	deltaLambda := radians(lon2 - lon1)

	y := math.Sin(deltaLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)

	deg := math.Mod(degrees(math.Atan2(y, x))+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// BearingToDirection buckets a bearing into its nearest octant.
func BearingToDirection(deg float64) Direction {
	idx := int(math.Round(deg/45)) % 8
	if idx < 0 {
		idx += 8
	}
	return Direction(idx)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
