package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/carpool/internal/models"
)

var utrecht = models.Coordinate{Lat: 52.0907, Lon: 5.1214}
var amsterdam = models.Coordinate{Lat: 52.3676, Lon: 4.9041}

func TestOSRMRouteSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":45000,"duration":2400}]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL)
	sum, err := c.RouteSummary(context.Background(), []models.Coordinate{utrecht, amsterdam})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.DistanceMeters != 45000 || sum.DurationSeconds != 2400 {
		t.Fatalf("got %+v", sum)
	}
	if sum.Estimated {
		t.Fatal("real provider summary must not be flagged estimated")
	}
}

func TestOSRMNoRouteIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL)
	_, err := c.RouteSummary(context.Background(), []models.Coordinate{utrecht, amsterdam})
	if !errors.Is(err, models.ErrRoutingUnavailable) {
		t.Fatalf("want ErrRoutingUnavailable, got %v", err)
	}
}

func TestOSRMMalformedResponseNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL)
	_, err := c.RouteSummary(context.Background(), []models.Coordinate{utrecht, amsterdam})
	if !errors.Is(err, models.ErrRoutingUnavailable) {
		t.Fatalf("want ErrRoutingUnavailable, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("malformed response retried %d times", calls)
	}
}

func TestOSRMRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":1000,"duration":100}]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL)
	sum, err := c.RouteSummary(context.Background(), []models.Coordinate{utrecht, amsterdam})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if sum.DistanceMeters != 1000 {
		t.Fatalf("got %+v", sum)
	}
}

func TestOSRMGeometry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"geometry":{"coordinates":[[5.1214,52.0907],[4.9041,52.3676]]}}]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL)
	route, err := c.Geometry(context.Background(), []models.Coordinate{utrecht, amsterdam})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route) != 2 {
		t.Fatalf("want 2 points, got %d", len(route))
	}
	// GeoJSON is [lon, lat]; make sure the adapter swapped them
	if route[0].Lat != 52.0907 || route[0].Lon != 5.1214 {
		t.Fatalf("lat/lon swap wrong: %+v", route[0])
	}
}

func TestEstimatorFlagsEstimated(t *testing.T) {
	e := NewEstimator()
	sum, err := e.RouteSummary(context.Background(), []models.Coordinate{utrecht, amsterdam})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Estimated {
		t.Fatal("fallback summary must be flagged estimated")
	}
	// straight line Utrecht-Amsterdam is ~34km; with 1.3 factor expect ~44km
	if sum.DistanceMeters < 35000 || sum.DistanceMeters > 55000 {
		t.Fatalf("distance = %f, out of plausible range", sum.DistanceMeters)
	}
	if sum.DurationSeconds != sum.DistanceMeters/10 {
		t.Fatalf("duration inconsistent with fixed speed: %+v", sum)
	}
}

type countingClient struct {
	calls int
	sum   Summary
	err   error
}

func (c *countingClient) RouteSummary(ctx context.Context, w []models.Coordinate) (Summary, error) {
	c.calls++
	return c.sum, c.err
}

func TestCachedClient(t *testing.T) {
	inner := &countingClient{sum: Summary{DistanceMeters: 500, DurationSeconds: 60}}
	cc := &CachedClient{Inner: inner, Cache: NewCache(time.Minute)}
	wps := []models.Coordinate{utrecht, amsterdam}

	for i := 0; i < 3; i++ {
		sum, err := cc.RouteSummary(context.Background(), wps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sum.DistanceMeters != 500 {
			t.Fatalf("got %+v", sum)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", inner.calls)
	}
}

func TestCachedClientDoesNotCacheErrors(t *testing.T) {
	inner := &countingClient{err: models.ErrRoutingUnavailable}
	cc := &CachedClient{Inner: inner, Cache: NewCache(time.Minute)}
	wps := []models.Coordinate{utrecht, amsterdam}

	for i := 0; i < 2; i++ {
		if _, err := cc.RouteSummary(context.Background(), wps); !errors.Is(err, models.ErrRoutingUnavailable) {
			t.Fatalf("want ErrRoutingUnavailable, got %v", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("errors must not be cached, got %d calls", inner.calls)
	}
}
