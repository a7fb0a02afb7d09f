// Package routing wraps the external routing provider behind a narrow
// interface. Provider failures are reported as models.ErrRoutingUnavailable
// so callers can skip a single candidate without aborting a match query.
package routing

import (
	"context"

	"github.com/example/carpool/internal/models"
)

// Summary is the road distance and duration for an ordered waypoint list.
type Summary struct {
	DistanceMeters  float64
	DurationSeconds float64
	// Estimated is true when the numbers come from the straight-line
	// fallback rather than a road-network provider. Detour thresholds are
	// calibrated for road distance, so callers may want to re-verify
	// estimated candidates before confirming them.
	Estimated bool
}

// Client is the interface the evaluator uses to price routes.
type Client interface {
	RouteSummary(ctx context.Context, waypoints []models.Coordinate) (Summary, error)
}
