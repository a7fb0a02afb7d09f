package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/carpool/internal/ingest"
	"github.com/example/carpool/internal/models"
)

// fakeUpdater implements IndexUpdater for tests
type fakeUpdater struct {
	failGeo     int // number of times to fail GeoAdd before succeeding
	geoCalls    int
	removeCalls int
	lastID      string
}

func (f *fakeUpdater) GeoAdd(ctx context.Context, offerID string, origin models.Coordinate) error {
	f.geoCalls++
	f.lastID = offerID
	if f.geoCalls <= f.failGeo {
		return errors.New("geo fail")
	}
	return nil
}

func (f *fakeUpdater) Remove(ctx context.Context, offerID string) error {
	f.removeCalls++
	f.lastID = offerID
	return nil
}

func createdEvent() ingest.OfferEvent {
	return ingest.OfferEvent{
		Type: ingest.EventCreated,
		Offer: models.RouteOffer{
			ID:     "o1",
			Origin: models.Coordinate{Lat: 52.0907, Lon: 5.1214},
			Status: models.OfferActive,
		},
	}
}

func TestApplyEvent_SucceedsAfterRetries(t *testing.T) {
	f := &fakeUpdater{failGeo: 1}
	start := time.Now()
	if err := applyEventWithRetry(context.Background(), f, createdEvent(), 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.geoCalls < 2 {
		t.Fatalf("expected retries, got geo=%d", f.geoCalls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestApplyEvent_FailsWhenExhausted(t *testing.T) {
	f := &fakeUpdater{failGeo: 5}
	if err := applyEventWithRetry(context.Background(), f, createdEvent(), 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestApplyEvent_CancelledOfferIsEvicted(t *testing.T) {
	f := &fakeUpdater{}
	ev := createdEvent()
	ev.Type = ingest.EventStatus
	ev.Offer.Status = models.OfferCancelled

	if err := applyEventWithRetry(context.Background(), f, ev, 3, time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.removeCalls != 1 || f.geoCalls != 0 {
		t.Fatalf("expected eviction, got geo=%d remove=%d", f.geoCalls, f.removeCalls)
	}
	if f.lastID != "o1" {
		t.Fatalf("evicted wrong offer: %s", f.lastID)
	}
}
