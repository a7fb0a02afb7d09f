// Package httpapi exposes the matching engine over HTTP.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/carpool/internal/config"
	"github.com/example/carpool/internal/geocode"
	"github.com/example/carpool/internal/geoindex"
	"github.com/example/carpool/internal/matcher"
	"github.com/example/carpool/internal/models"
	"github.com/example/carpool/internal/notify"
	"github.com/example/carpool/internal/storage"
)

// OfferPublisher emits offer lifecycle events for downstream consumers.
// *ingest.KafkaProducer satisfies it.
type OfferPublisher interface {
	PublishOffer(eventType string, o models.RouteOffer) error
}

// Deps are the collaborators the server wires together. Geocoder, Index,
// Kafka and Notifier are optional; handlers degrade gracefully without them.
type Deps struct {
	Store    storage.Store
	Matcher  *matcher.Service
	Geocoder geocode.Geocoder
	Index    geoindex.Index
	Kafka    OfferPublisher
	Notifier notify.Notifier
	WSReg    *notify.WSRegistry
}

type Server struct {
	cfg    config.ServerConfig
	logger *slog.Logger
	deps   Deps
	mux    *mux.Router
}

func NewServer(cfg config.ServerConfig, logger *slog.Logger, deps Deps) *Server {
	s := &Server{cfg: cfg, logger: logger, deps: deps, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/offers", s.handleCreateOffer).Methods("POST")
	s.mux.HandleFunc("/api/v1/offers/{id}/status", s.handleOfferStatus).Methods("POST")
	s.mux.HandleFunc("/api/v1/requests/match", s.handleMatchQuery).Methods("POST")
	s.mux.HandleFunc("/api/v1/matches", s.handleCreateMatch).Methods("POST")
	s.mux.HandleFunc("/api/v1/matches/{id}/status", s.handleMatchStatus).Methods("POST")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/{driver_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
