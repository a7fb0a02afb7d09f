package storage

import (
	"context"

	"github.com/example/carpool/internal/models"
)

// OfferStore holds driver route offers.
type OfferStore interface {
	SaveOffer(ctx context.Context, o *models.RouteOffer) error
	GetOffer(ctx context.Context, id string) (*models.RouteOffer, error)
	ListActiveOffers(ctx context.Context) ([]models.RouteOffer, error)
	UpdateOfferStatus(ctx context.Context, id, status string) error
}

// MatchStore persists accepted matches. SaveMatch is idempotent: a second
// submission of the same (offer, request) pair while the first is still
// requested returns the existing record instead of duplicating it.
type MatchStore interface {
	SaveMatch(ctx context.Context, m *models.Match) (*models.Match, error)
	UpdateMatchStatus(ctx context.Context, id, status string) error
	GetMatch(ctx context.Context, id string) (*models.Match, error)
}

// Store is the full persistence surface the HTTP layer wires.
type Store interface {
	OfferStore
	MatchStore
}
