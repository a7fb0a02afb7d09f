package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors shared across packages. Callers match with errors.Is.
var (
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrRoutingUnavailable = errors.New("routing unavailable")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientData   = errors.New("insufficient data")
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate validates ranges up front so distance math never has to.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return Coordinate{}, fmt.Errorf("%w: NaN", ErrInvalidCoordinate)
	}
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("%w: lat %f out of range", ErrInvalidCoordinate, lat)
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, fmt.Errorf("%w: lon %f out of range", ErrInvalidCoordinate, lon)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// Offer lifecycle statuses.
const (
	OfferActive    = "active"
	OfferMatched   = "matched"
	OfferCompleted = "completed"
	OfferCancelled = "cancelled"
)

// RouteOffer is a driver's posted trip with detour tolerances.
// Immutable after creation except for Status.
type RouteOffer struct {
	ID          string     `json:"id"`
	DriverID    string     `json:"driver_id"`
	Origin      Coordinate `json:"origin"`
	Destination Coordinate `json:"destination"`
	Departure   time.Time  `json:"departure"`
	MaxExtraKm  float64    `json:"max_extra_km"`
	MaxExtraMin float64    `json:"max_extra_min"`
	// Optional precomputed baseline; 0 means unknown.
	BaselineMeters  float64 `json:"baseline_meters,omitempty"`
	BaselineSeconds float64 `json:"baseline_seconds,omitempty"`
	// Optional precomputed route geometry from origin to destination.
	Geometry  []Coordinate `json:"geometry,omitempty"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Validate reports whether the offer carries enough data to be matched.
func (o *RouteOffer) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: offer has no id", ErrInsufficientData)
	}
	if o.Origin == (Coordinate{}) || o.Destination == (Coordinate{}) {
		return fmt.Errorf("%w: offer %s missing origin or destination", ErrInsufficientData, o.ID)
	}
	if o.Departure.IsZero() {
		return fmt.Errorf("%w: offer %s missing departure", ErrInsufficientData, o.ID)
	}
	return nil
}

// RideRequest is a passenger's desired trip. The passenger imposes no
// detour cap; the driver's thresholds govern.
type RideRequest struct {
	ID          string     `json:"id"`
	PassengerID string     `json:"passenger_id"`
	Pickup      Coordinate `json:"pickup"`
	Dropoff     Coordinate `json:"dropoff"`
	Desired     time.Time  `json:"desired"`
	FlexMinutes float64    `json:"flex_minutes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Evaluation modes recorded on candidates.
const (
	ModeWaypoint = "waypoint"
	ModeGeometry = "geometry"
)

// MatchCandidate pairs an offer with a request plus its computed cost.
// Transient; only persisted once promoted to a Match.
type MatchCandidate struct {
	OfferID      string    `json:"offer_id"`
	RequestID    string    `json:"request_id"`
	Departure    time.Time `json:"departure"`
	ExtraKm      float64   `json:"extra_km"`
	ExtraMin     float64   `json:"extra_min"`
	DeviationMin float64   `json:"deviation_min"`
	Score        float64   `json:"score"`
	// Estimated marks summaries produced by the straight-line fallback
	// rather than a real road-network provider.
	Estimated bool   `json:"estimated,omitempty"`
	Mode      string `json:"mode"`
}

// Match lifecycle statuses.
const (
	MatchRequested = "requested"
	MatchConfirmed = "confirmed"
	MatchCompleted = "completed"
	MatchCancelled = "cancelled"
)

// Match is the persisted record of an accepted candidate.
type Match struct {
	ID        string    `json:"id"`
	OfferID   string    `json:"offer_id"`
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	ExtraKm   float64   `json:"extra_km"`
	ExtraMin  float64   `json:"extra_min"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
