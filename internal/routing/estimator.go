package routing

import (
	"context"

	"github.com/example/carpool/internal/geo"
	"github.com/example/carpool/internal/models"
)

// Estimator prices routes from straight-line distance when no routing
// provider is configured. Road distance is approximated as great-circle
// distance times a fixed detour factor at a fixed average speed.
// Summaries are flagged Estimated so callers know thresholds calibrated
// for road distance are being applied to an approximation.
type Estimator struct {
	DetourFactor float64 // road / straight-line ratio, default 1.3
	SpeedMps     float64 // default 10 m/s, ~36 km/h
}

func NewEstimator() *Estimator {
	return &Estimator{DetourFactor: 1.3, SpeedMps: 10}
}

func (e *Estimator) RouteSummary(_ context.Context, waypoints []models.Coordinate) (Summary, error) {
	if len(waypoints) < 2 {
		return Summary{}, models.ErrRoutingUnavailable
	}
	factor := e.DetourFactor
	if factor <= 0 {
		factor = 1.3
	}
	speed := e.SpeedMps
	if speed <= 0 {
		speed = 10
	}
	var meters float64
	for i := 0; i < len(waypoints)-1; i++ {
		meters += geo.DistanceKm(waypoints[i], waypoints[i+1]) * 1000
	}
	meters *= factor
	return Summary{DistanceMeters: meters, DurationSeconds: meters / speed, Estimated: true}, nil
}
