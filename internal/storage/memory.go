package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/example/carpool/internal/models"
)

// MemoryStore backs local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	offers  map[string]*models.RouteOffer
	matches map[string]*models.Match
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		offers:  make(map[string]*models.RouteOffer),
		matches: make(map[string]*models.Match),
	}
}

func (m *MemoryStore) SaveOffer(_ context.Context, o *models.RouteOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.offers[o.ID] = &cp
	return nil
}

func (m *MemoryStore) GetOffer(_ context.Context, id string) (*models.RouteOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, fmt.Errorf("%w: offer %s", models.ErrNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) ListActiveOffers(_ context.Context) ([]models.RouteOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RouteOffer, 0, len(m.offers))
	for _, o := range m.offers {
		if o.Status == models.OfferActive {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateOfferStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return fmt.Errorf("%w: offer %s", models.ErrNotFound, id)
	}
	o.Status = status
	return nil
}

func (m *MemoryStore) SaveMatch(_ context.Context, rec *models.Match) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// idempotency: same pair still requested -> return the existing row
	for _, ex := range m.matches {
		if ex.OfferID == rec.OfferID && ex.RequestID == rec.RequestID && ex.Status == models.MatchRequested {
			cp := *ex
			return &cp, nil
		}
	}
	cp := *rec
	if cp.ID == "" {
		cp.ID = newID()
	}
	if cp.Status == "" {
		cp.Status = models.MatchRequested
	}
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.matches[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemoryStore) UpdateMatchStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.matches[id]
	if !ok {
		return fmt.Errorf("%w: match %s", models.ErrNotFound, id)
	}
	rec.Status = status
	rec.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetMatch(_ context.Context, id string) (*models.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: match %s", models.ErrNotFound, id)
	}
	cp := *rec
	return &cp, nil
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
