package matcher

import "time"

// Thresholds applied when an offer leaves them unset.
const (
	DefaultMaxExtraKm  = 5.0
	DefaultMaxExtraMin = 15.0
)

// Scoring weights. Deviations under the grace period incur no penalty.
const (
	weightDistance = 1.0
	weightTime     = 1.0
	weightSchedule = 0.5
	graceMinutes   = 10.0
)

// prefilterSlack is the multiple of an offer's own detour cap used as the
// straight-line rejection bound. Road detour is always at least the
// straight-line detour, so any generous multiple keeps the filter free of
// false negatives.
const prefilterSlack = 4.0

// Options tunes one match query.
type Options struct {
	TimeWindowMin  float64       // departure window around the desired time, default 45
	MaxCandidates  int           // result list cap, applied after sorting, default 20
	CorridorMeters float64       // geometry-mode corridor threshold, default 600
	Workers        int           // concurrent candidate evaluations, default 4
	CallTimeout    time.Duration // per-candidate routing budget, default 8s
}

func (o Options) withDefaults() Options {
	if o.TimeWindowMin <= 0 {
		o.TimeWindowMin = 45
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 20
	}
	if o.CorridorMeters <= 0 {
		o.CorridorMeters = 600
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 8 * time.Second
	}
	return o
}

func offerThresholds(maxKm, maxMin float64) (float64, float64) {
	if maxKm <= 0 {
		maxKm = DefaultMaxExtraKm
	}
	if maxMin <= 0 {
		maxMin = DefaultMaxExtraMin
	}
	return maxKm, maxMin
}
