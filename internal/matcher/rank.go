package matcher

import (
	"math"
	"sort"

	"github.com/example/carpool/internal/models"
)

// Score combines extra distance, extra time and scheduling skew into a
// single ascending cost. score = extraKm*wDist + extraMin*wTime +
// max(0, deviation-grace)*wSchedule
func Score(c models.MatchCandidate) float64 {
	schedule := math.Max(0, c.DeviationMin-graceMinutes)
	return c.ExtraKm*weightDistance + c.ExtraMin*weightTime + schedule*weightSchedule
}

// Rank stable-sorts candidates ascending by score, breaking ties by
// earlier departure and then offer ID so identical inputs always produce
// identical output. The list is truncated to limit after sorting.
func Rank(cands []models.MatchCandidate, limit int) []models.MatchCandidate {
	if limit <= 0 {
		limit = 20
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score < cands[j].Score
		}
		if !cands[i].Departure.Equal(cands[j].Departure) {
			return cands[i].Departure.Before(cands[j].Departure)
		}
		return cands[i].OfferID < cands[j].OfferID
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}
