// Package matcher implements the detour-matching engine: prefilter,
// per-candidate detour evaluation and deterministic ranking.
package matcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/carpool/internal/models"
	"github.com/example/carpool/internal/observability"
	"github.com/example/carpool/internal/routing"
)

// Result reason codes. ReasonNoCoordinates tells the caller matching
// could not be attempted at all, which needs different user action than
// an empty candidate list.
const (
	ReasonOK            = "ok"
	ReasonNoCoordinates = "no_coordinates"
)

// Result is the outcome of one match query.
type Result struct {
	Candidates []models.MatchCandidate `json:"candidates"`
	Skipped    int                     `json:"skipped"`
	Reason     string                  `json:"reason"`
}

// Service evaluates ride requests against route offers.
type Service struct {
	Routing routing.Client
	Logger  *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// FindMatches runs the full pipeline for one request: structural
// validation, cheap prefilter, concurrent exact evaluation and ranking.
// Per-candidate failures are contained (skipped and counted); only a
// structurally unusable request short-circuits, and even then the caller
// gets a Result with a reason code rather than an error.
func (s *Service) FindMatches(ctx context.Context, req models.RideRequest, offers []models.RouteOffer, opts Options) Result {
	start := time.Now()
	defer func() {
		observability.MatchQueriesTotal.Inc()
		observability.MatchQueryLatency.Observe(time.Since(start).Seconds())
	}()

	opts = opts.withDefaults()
	if req.Pickup == (models.Coordinate{}) || req.Dropoff == (models.Coordinate{}) {
		return Result{Candidates: []models.MatchCandidate{}, Reason: ReasonNoCoordinates}
	}

	cands := Prefilter(req, offers, opts)

	type outcome struct {
		offerID  string
		cand     models.MatchCandidate
		accepted bool
		err      error
	}

	jobs := make(chan models.RouteOffer)
	results := make(chan outcome)
	var wg sync.WaitGroup
	workers := opts.Workers
	if workers > len(cands) {
		workers = len(cands)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for offer := range jobs {
				c, ok, err := s.Evaluate(ctx, offer, req, opts)
				results <- outcome{offerID: offer.ID, cand: c, accepted: ok, err: err}
			}
		}()
	}
	go func() {
		for _, o := range cands {
			jobs <- o
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	accepted := make([]models.MatchCandidate, 0, len(cands))
	skipped := 0
	for out := range results {
		observability.CandidatesEvaluated.Inc()
		if out.err != nil {
			skipped++
			observability.CandidatesSkipped.Inc()
			if errors.Is(out.err, models.ErrRoutingUnavailable) {
				observability.RoutingErrors.Inc()
			}
			s.logger().Warn("candidate skipped",
				"offer_id", out.offerID, "request_id", req.ID, "error", out.err)
			continue
		}
		if out.accepted {
			accepted = append(accepted, out.cand)
		}
	}

	return Result{
		Candidates: Rank(accepted, opts.MaxCandidates),
		Skipped:    skipped,
		Reason:     ReasonOK,
	}
}
