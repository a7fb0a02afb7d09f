package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/carpool/internal/ingest"
	"github.com/example/carpool/internal/matcher"
	"github.com/example/carpool/internal/models"
	"github.com/example/carpool/internal/observability"
)

type coordPayload struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
	// Address is geocoded when lat/lon are absent.
	Address string `json:"address,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

const reasonNoCoordinate = "no_coordinate_for_address"

// resolveCoord turns a payload into a validated coordinate, geocoding the
// address when no explicit lat/lon was given.
func (s *Server) resolveCoord(r *http.Request, p coordPayload) (models.Coordinate, error) {
	if p.Lat != nil && p.Lon != nil {
		return models.NewCoordinate(*p.Lat, *p.Lon)
	}
	if p.Address == "" {
		return models.Coordinate{}, models.ErrInsufficientData
	}
	if s.deps.Geocoder == nil {
		return models.Coordinate{}, models.ErrNotFound
	}
	return s.deps.Geocoder.Geocode(r.Context(), p.Address)
}

type createOfferRequest struct {
	DriverID    string       `json:"driver_id"`
	Origin      coordPayload `json:"origin"`
	Destination coordPayload `json:"destination"`
	Departure   time.Time    `json:"departure"`
	MaxExtraKm  float64      `json:"max_extra_km"`
	MaxExtraMin float64      `json:"max_extra_min"`
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	origin, err := s.resolveCoord(r, req.Origin)
	if err != nil {
		s.writeCoordError(w, err)
		return
	}
	dest, err := s.resolveCoord(r, req.Destination)
	if err != nil {
		s.writeCoordError(w, err)
		return
	}
	offer := models.RouteOffer{
		ID:          newID(),
		DriverID:    req.DriverID,
		Origin:      origin,
		Destination: dest,
		Departure:   req.Departure,
		MaxExtraKm:  req.MaxExtraKm,
		MaxExtraMin: req.MaxExtraMin,
		Status:      models.OfferActive,
		CreatedAt:   time.Now(),
	}
	if err := offer.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	if err := s.deps.Store.SaveOffer(r.Context(), &offer); err != nil {
		s.logger.Error("save offer failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		return
	}
	observability.OffersActive.Inc()
	if s.deps.Index != nil {
		if err := s.deps.Index.Upsert(r.Context(), offer.ID, offer.Origin); err != nil {
			s.logger.Warn("offer index update failed", "offer_id", offer.ID, "error", err)
		}
	}
	if s.deps.Kafka != nil {
		if err := s.deps.Kafka.PublishOffer(ingest.EventCreated, offer); err != nil {
			s.logger.Warn("offer event publish failed", "offer_id", offer.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, offer)
}

func (s *Server) handleOfferStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	switch body.Status {
	case models.OfferActive, models.OfferMatched, models.OfferCompleted, models.OfferCancelled:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status"})
		return
	}
	if err := s.deps.Store.UpdateOfferStatus(r.Context(), id, body.Status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "offer not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		return
	}
	offer, err := s.deps.Store.GetOffer(r.Context(), id)
	if err != nil {
		s.logger.Warn("offer reload failed", "offer_id", id, "error", err)
	}
	if body.Status == models.OfferActive {
		if s.deps.Index != nil && offer != nil {
			if err := s.deps.Index.Upsert(r.Context(), id, offer.Origin); err != nil {
				s.logger.Warn("offer index update failed", "offer_id", id, "error", err)
			}
		}
	} else {
		observability.OffersActive.Dec()
		if s.deps.Index != nil {
			_ = s.deps.Index.Remove(r.Context(), id)
		}
	}
	if s.deps.Kafka != nil && offer != nil {
		if err := s.deps.Kafka.PublishOffer(ingest.EventStatus, *offer); err != nil {
			s.logger.Warn("offer event publish failed", "offer_id", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type matchQueryRequest struct {
	RequestID   string       `json:"request_id"`
	PassengerID string       `json:"passenger_id"`
	Pickup      coordPayload `json:"pickup"`
	Dropoff     coordPayload `json:"dropoff"`
	Desired     time.Time    `json:"desired"`
	FlexMinutes float64      `json:"flex_minutes"`

	TimeWindowMin  float64 `json:"time_window_min,omitempty"`
	MaxCandidates  int     `json:"max_candidates,omitempty"`
	CorridorMeters float64 `json:"corridor_meters,omitempty"`
}

func (s *Server) handleMatchQuery(w http.ResponseWriter, r *http.Request) {
	var body matchQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	pickup, err := s.resolveCoord(r, body.Pickup)
	if err != nil {
		s.writeCoordError(w, err)
		return
	}
	dropoff, err := s.resolveCoord(r, body.Dropoff)
	if err != nil {
		s.writeCoordError(w, err)
		return
	}
	req := models.RideRequest{
		ID:          body.RequestID,
		PassengerID: body.PassengerID,
		Pickup:      pickup,
		Dropoff:     dropoff,
		Desired:     body.Desired,
		FlexMinutes: body.FlexMinutes,
	}
	if req.ID == "" {
		req.ID = newID()
	}

	offers, err := s.deps.Store.ListActiveOffers(r.Context())
	if err != nil {
		s.logger.Error("list offers failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		return
	}
	offers = s.trimByIndex(r, req, offers)

	opts := matcher.Options{
		TimeWindowMin:  body.TimeWindowMin,
		MaxCandidates:  body.MaxCandidates,
		CorridorMeters: body.CorridorMeters,
		Workers:        s.cfg.MatchWorkers,
	}
	if opts.TimeWindowMin <= 0 {
		opts.TimeWindowMin = s.cfg.MatchTimeWindowMin
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = s.cfg.MatchLimit
	}
	if opts.CorridorMeters <= 0 {
		opts.CorridorMeters = s.cfg.MatchCorridorMeters
	}

	res := s.deps.Matcher.FindMatches(r.Context(), req, offers, opts)
	writeJSON(w, http.StatusOK, res)
}

// trimByIndex narrows the offer list to those whose origin the geo index
// places near the pickup. Index failures fall back to the full list; the
// matcher's prefilter is the correctness boundary.
func (s *Server) trimByIndex(r *http.Request, req models.RideRequest, offers []models.RouteOffer) []models.RouteOffer {
	if s.deps.Index == nil || len(offers) == 0 {
		return offers
	}
	ids, err := s.deps.Index.Near(r.Context(), req.Pickup, s.cfg.IndexRadiusKm, len(offers))
	if err != nil {
		s.logger.Warn("geo index query failed", "error", err)
		return offers
	}
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out := make([]models.RouteOffer, 0, len(ids))
	for _, o := range offers {
		if keep[o.ID] {
			out = append(out, o)
		}
	}
	return out
}

type createMatchRequest struct {
	OfferID   string  `json:"offer_id"`
	RequestID string  `json:"request_id"`
	ExtraKm   float64 `json:"extra_km"`
	ExtraMin  float64 `json:"extra_min"`
	Score     float64 `json:"score"`
	DriverID  string  `json:"driver_id,omitempty"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var body createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if body.OfferID == "" || body.RequestID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "offer_id and request_id are required"})
		return
	}
	rec, err := s.deps.Store.SaveMatch(r.Context(), &models.Match{
		OfferID:   body.OfferID,
		RequestID: body.RequestID,
		ExtraKm:   body.ExtraKm,
		ExtraMin:  body.ExtraMin,
		Score:     body.Score,
	})
	if err != nil {
		s.logger.Error("save match failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		return
	}
	if s.deps.Notifier != nil && body.DriverID != "" {
		if err := s.deps.Notifier.MatchRequested(body.DriverID, *rec); err != nil {
			s.logger.Warn("driver notification failed", "driver_id", body.DriverID, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleMatchStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	switch body.Status {
	case models.MatchRequested, models.MatchConfirmed, models.MatchCompleted, models.MatchCancelled:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status"})
		return
	}
	if err := s.deps.Store.UpdateMatchStatus(r.Context(), id, body.Status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "match not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		return
	}
	// confirming a match takes the offer off the market
	if body.Status == models.MatchConfirmed {
		if rec, err := s.deps.Store.GetMatch(r.Context(), id); err == nil {
			if err := s.deps.Store.UpdateOfferStatus(r.Context(), rec.OfferID, models.OfferMatched); err != nil {
				s.logger.Warn("offer status update failed", "offer_id", rec.OfferID, "error", err)
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.deps.WSReg == nil {
		http.Error(w, "websocket not enabled", http.StatusNotImplemented)
		return
	}
	id := mux.Vars(r)["driver_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.deps.WSReg.Add(id, conn)
}

func (s *Server) writeCoordError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusUnprocessableEntity,
			errorResponse{Error: "cannot match without a location", Reason: reasonNoCoordinate})
	case errors.Is(err, models.ErrInvalidCoordinate):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
