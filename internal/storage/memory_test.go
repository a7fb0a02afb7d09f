package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/carpool/internal/models"
)

func TestSaveMatchIdempotentWhileRequested(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	first, err := m.SaveMatch(ctx, &models.Match{OfferID: "o1", RequestID: "r1", ExtraKm: 3, Score: 6.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.SaveMatch(ctx, &models.Match{OfferID: "o1", RequestID: "r1", ExtraKm: 99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("duplicate submission created a new record: %s vs %s", first.ID, second.ID)
	}
	if second.ExtraKm != 3 {
		t.Fatalf("duplicate submission must return the existing row, got %+v", second)
	}
}

func TestSaveMatchNewPairAfterStatusChange(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	first, _ := m.SaveMatch(ctx, &models.Match{OfferID: "o1", RequestID: "r1"})
	if err := m.UpdateMatchStatus(ctx, first.ID, models.MatchCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.SaveMatch(ctx, &models.Match{OfferID: "o1", RequestID: "r1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("cancelled match must not block a fresh request")
	}
}

func TestOfferLifecycle(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	o := &models.RouteOffer{
		ID: "o1", DriverID: "d1",
		Origin:      models.Coordinate{Lat: 52, Lon: 5},
		Destination: models.Coordinate{Lat: 52.4, Lon: 4.9},
		Departure:   time.Now(),
		Status:      models.OfferActive,
	}
	if err := m.SaveOffer(ctx, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active, err := m.ListActiveOffers(ctx)
	if err != nil || len(active) != 1 {
		t.Fatalf("active=%v err=%v", active, err)
	}
	if err := m.UpdateOfferStatus(ctx, "o1", models.OfferMatched); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active, _ = m.ListActiveOffers(ctx)
	if len(active) != 0 {
		t.Fatalf("matched offer still listed active: %v", active)
	}
	got, err := m.GetOffer(ctx, "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != models.OfferMatched || got.DriverID != "d1" {
		t.Fatalf("got %+v", got)
	}
	if _, err := m.GetOffer(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetMatchNotFound(t *testing.T) {
	m := NewMemoryStore()
	if _, err := m.GetMatch(context.Background(), "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
