package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/carpool/internal/models"
)

func newTestClient(srv *httptest.Server) *ORSClient {
	c := NewORSClient("test-key", "NL")
	c.Endpoint = srv.URL
	c.Client = srv.Client()
	return c
}

func TestGeocodeReturnsLatLon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("boundary.country") != "NL" {
			t.Errorf("missing country bias: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"features":[{"geometry":{"coordinates":[5.1214,52.0907]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	coord, err := c.Geocode(context.Background(), "3512 JE Utrecht")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// features carry [lon, lat]; client must swap
	if coord.Lat != 52.0907 || coord.Lon != 5.1214 {
		t.Fatalf("got %+v", coord)
	}
}

func TestGeocodeNoFeaturesIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.Geocode(context.Background(), "nowhere")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGeocodeUsesCacheAcrossSpellings(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"features":[{"geometry":{"coordinates":[4.9041,52.3676]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.Cache = NewCache()

	for _, q := range []string{"1011 AB Amsterdam", "  1011 ab   amsterdam "} {
		if _, err := c.Geocode(context.Background(), q); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestNormalizeQuery(t *testing.T) {
	if got := NormalizeQuery("  3512  je \tutrecht "); got != "3512 JE UTRECHT" {
		t.Fatalf("got %q", got)
	}
}
