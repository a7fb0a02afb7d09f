package matcher

import (
	"math"

	"github.com/example/carpool/internal/geo"
	"github.com/example/carpool/internal/models"
)

// Prefilter cheaply drops offers that cannot possibly pass the exact
// evaluator: straight-line pickup/dropoff displacement already beyond a
// generous multiple of the offer's detour cap, or departure outside the
// request's time window. Necessary-condition checks only — an offer the
// evaluator would accept is never rejected here. Offers carrying route
// geometry skip the displacement bound entirely: the evaluator accepts
// any point inside the corridor along the whole route, so distance from
// the endpoints says nothing about feasibility (and the geometric check
// is cheap anyway).
func Prefilter(req models.RideRequest, offers []models.RouteOffer, opts Options) []models.RouteOffer {
	opts = opts.withDefaults()
	out := make([]models.RouteOffer, 0, len(offers))
	for _, o := range offers {
		if o.Status != "" && o.Status != models.OfferActive {
			continue
		}
		if o.Validate() != nil {
			continue
		}
		if len(o.Geometry) < 2 {
			maxKm, _ := offerThresholds(o.MaxExtraKm, o.MaxExtraMin)
			bound := prefilterSlack * maxKm
			if geo.DistanceKm(req.Pickup, o.Origin) > bound {
				continue
			}
			if geo.DistanceKm(req.Dropoff, o.Destination) > bound {
				continue
			}
		}
		if !req.Desired.IsZero() {
			window := opts.TimeWindowMin + req.FlexMinutes
			dev := math.Abs(o.Departure.Sub(req.Desired).Minutes())
			if dev > window {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}
