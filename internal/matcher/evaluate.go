package matcher

import (
	"context"
	"math"

	"github.com/example/carpool/internal/geo"
	"github.com/example/carpool/internal/models"
	"github.com/example/carpool/internal/routing"
)

// Evaluate decides whether inserting the request into the offer's trip is
// acceptable and computes the extra cost. Offers carrying precomputed
// route geometry are checked geometrically without a routing call;
// everything else goes through waypoint insertion against the routing
// provider. The second return is false when the pair is rejected; a
// non-nil error means the candidate could not be evaluated at all and
// should be skipped, not that the query failed.
func (s *Service) Evaluate(ctx context.Context, offer models.RouteOffer, req models.RideRequest, opts Options) (models.MatchCandidate, bool, error) {
	opts = opts.withDefaults()
	if err := offer.Validate(); err != nil {
		return models.MatchCandidate{}, false, err
	}
	if len(offer.Geometry) >= 2 {
		return s.evaluateGeometry(offer, req, opts)
	}
	return s.evaluateWaypoints(ctx, offer, req, opts)
}

func (s *Service) evaluateWaypoints(ctx context.Context, offer models.RouteOffer, req models.RideRequest, opts Options) (models.MatchCandidate, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
	defer cancel()

	baseline := routing.Summary{DistanceMeters: offer.BaselineMeters, DurationSeconds: offer.BaselineSeconds}
	if baseline.DistanceMeters <= 0 || baseline.DurationSeconds <= 0 {
		var err error
		baseline, err = s.Routing.RouteSummary(ctx, []models.Coordinate{offer.Origin, offer.Destination})
		if err != nil {
			return models.MatchCandidate{}, false, err
		}
	}
	detour, err := s.Routing.RouteSummary(ctx, []models.Coordinate{offer.Origin, req.Pickup, req.Dropoff, offer.Destination})
	if err != nil {
		return models.MatchCandidate{}, false, err
	}

	extraMeters := detour.DistanceMeters - baseline.DistanceMeters
	extraSeconds := detour.DurationSeconds - baseline.DurationSeconds
	// A detour cannot genuinely shorten the route; negative deltas are
	// provider noise. Floor at zero and note it.
	if extraMeters < 0 || extraSeconds < 0 {
		s.logger().Warn("negative detour delta from provider",
			"offer_id", offer.ID, "request_id", req.ID,
			"extra_meters", extraMeters, "extra_seconds", extraSeconds)
	}
	extraMeters = math.Max(0, extraMeters)
	extraSeconds = math.Max(0, extraSeconds)

	cand := models.MatchCandidate{
		OfferID:      offer.ID,
		RequestID:    req.ID,
		Departure:    offer.Departure,
		ExtraKm:      extraMeters / 1000,
		ExtraMin:     extraSeconds / 60,
		DeviationMin: deviationMinutes(offer, req),
		Estimated:    baseline.Estimated || detour.Estimated,
		Mode:         models.ModeWaypoint,
	}
	cand.Score = Score(cand)

	maxKm, maxMin := offerThresholds(offer.MaxExtraKm, offer.MaxExtraMin)
	if cand.ExtraKm > maxKm || cand.ExtraMin > maxMin {
		return cand, false, nil
	}
	return cand, true, nil
}

// evaluateGeometry checks geometric feasibility against the offer's
// precomputed route. It never calls the routing provider and produces a
// proxy score from perpendicular distances and scheduling skew rather
// than an exact extra-cost figure.
func (s *Service) evaluateGeometry(offer models.RouteOffer, req models.RideRequest, opts Options) (models.MatchCandidate, bool, error) {
	perpPick, arcPick := geo.ProjectOntoRoute(req.Pickup, offer.Geometry)
	perpDrop, arcDrop := geo.ProjectOntoRoute(req.Dropoff, offer.Geometry)

	cand := models.MatchCandidate{
		OfferID:      offer.ID,
		RequestID:    req.ID,
		Departure:    offer.Departure,
		ExtraKm:      (perpPick + perpDrop) / 1000,
		DeviationMin: deviationMinutes(offer, req),
		Mode:         models.ModeGeometry,
	}
	cand.Score = Score(cand)

	if perpPick > opts.CorridorMeters || perpDrop > opts.CorridorMeters {
		return cand, false, nil
	}
	// Dropoff must lie further along the route than pickup, otherwise
	// the driver would have to backtrack.
	if arcPick >= arcDrop {
		return cand, false, nil
	}
	return cand, true, nil
}

func deviationMinutes(offer models.RouteOffer, req models.RideRequest) float64 {
	if req.Desired.IsZero() || offer.Departure.IsZero() {
		return 0
	}
	return math.Abs(offer.Departure.Sub(req.Desired).Minutes())
}
