// Package geo holds pure geographic math used by the prefilter and the
// geometry-projection evaluator. No network, no state.
package geo

import (
	"math"

	"github.com/example/carpool/internal/models"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometres between two
// points, haversine formula.
func DistanceKm(a, b models.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }

// PointToSegment projects p onto the segment a->b in a local
// equirectangular plane centered on a and returns the perpendicular
// distance in meters plus the projection fraction t, clamped to [0,1]
// when the foot falls off the segment. The planar approximation holds at
// the single-country scale the corridor check operates on.
func PointToSegment(p, a, b models.Coordinate) (perpMeters, t float64) {
	// meters per degree at the segment's latitude
	latScale := earthRadiusKm * 1000 * math.Pi / 180.0
	lonScale := latScale * math.Cos(toRad(a.Lat))

	px := (p.Lon - a.Lon) * lonScale
	py := (p.Lat - a.Lat) * latScale
	bx := (b.Lon - a.Lon) * lonScale
	by := (b.Lat - a.Lat) * latScale

	segLenSq := bx*bx + by*by
	if segLenSq == 0 {
		return math.Hypot(px, py), 0
	}
	t = (px*bx + py*by) / segLenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	dx := px - t*bx
	dy := py - t*by
	return math.Hypot(dx, dy), t
}

// ProjectOntoRoute scans the route's segments and returns the minimum
// perpendicular distance from p (meters) together with the cumulative
// arc length (meters) of the closest projection measured from the route
// start. The arc length is what lets callers check pickup/dropoff
// ordering along the route.
func ProjectOntoRoute(p models.Coordinate, route []models.Coordinate) (perpMeters, arcMeters float64) {
	if len(route) == 0 {
		return math.Inf(1), 0
	}
	if len(route) == 1 {
		return DistanceKm(p, route[0]) * 1000, 0
	}
	best := math.Inf(1)
	bestArc := 0.0
	walked := 0.0
	for i := 0; i < len(route)-1; i++ {
		segLen := DistanceKm(route[i], route[i+1]) * 1000
		d, t := PointToSegment(p, route[i], route[i+1])
		if d < best {
			best = d
			bestArc = walked + t*segLen
		}
		walked += segLen
	}
	return best, bestArc
}
