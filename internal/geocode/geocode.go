// Package geocode resolves postal addresses to coordinates via the
// openrouteservice geocoding API. Lookups go through an injectable cache
// keyed on the normalized query string rather than ambient process state.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/example/carpool/internal/models"
)

// Geocoder maps a free-form address or postcode to a coordinate.
// A failed lookup yields models.ErrNotFound; the owning offer/request is
// then excluded from matching, never treated as a crash.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.Coordinate, error)
}

const (
	orsTimeout    = 5 * time.Second
	orsRetries    = 2
	orsRetryDelay = time.Second
)

// ORSClient queries the openrouteservice /geocode/search endpoint.
type ORSClient struct {
	Endpoint string // default https://api.openrouteservice.org
	APIKey   string
	Country  string // ISO country bias, e.g. "NL"
	Client   *http.Client
	Cache    *Cache // optional
}

func NewORSClient(apiKey, country string) *ORSClient {
	return &ORSClient{
		Endpoint: "https://api.openrouteservice.org",
		APIKey:   apiKey,
		Country:  country,
		Client:   &http.Client{Timeout: orsTimeout},
	}
}

func (c *ORSClient) Geocode(ctx context.Context, query string) (models.Coordinate, error) {
	key := NormalizeQuery(query)
	if key == "" {
		return models.Coordinate{}, fmt.Errorf("%w: empty query", models.ErrNotFound)
	}
	if c.Cache != nil {
		if coord, ok := c.Cache.Get(key); ok {
			return coord, nil
		}
	}

	q := url.Values{}
	q.Set("api_key", c.APIKey)
	q.Set("text", query)
	if c.Country != "" {
		q.Set("boundary.country", c.Country)
	}
	u := c.Endpoint + "/geocode/search?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt <= orsRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(orsRetryDelay):
			case <-ctx.Done():
				return models.Coordinate{}, fmt.Errorf("%w: %v", models.ErrNotFound, ctx.Err())
			}
		}
		coord, retryable, err := c.lookup(ctx, u)
		if err == nil {
			if c.Cache != nil {
				c.Cache.Set(key, coord)
			}
			return coord, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return models.Coordinate{}, fmt.Errorf("%w: geocode %q: %v", models.ErrNotFound, query, lastErr)
}

func (c *ORSClient) lookup(ctx context.Context, u string) (models.Coordinate, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Coordinate{}, false, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return models.Coordinate{}, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return models.Coordinate{}, true, fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Coordinate{}, false, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Coordinate{}, true, err
	}
	var out struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"` // [lon, lat]
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return models.Coordinate{}, false, err
	}
	if len(out.Features) == 0 || len(out.Features[0].Geometry.Coordinates) != 2 {
		return models.Coordinate{}, false, fmt.Errorf("no features")
	}
	cs := out.Features[0].Geometry.Coordinates
	coord, err := models.NewCoordinate(cs[1], cs[0])
	if err != nil {
		return models.Coordinate{}, false, err
	}
	return coord, false, nil
}

// NormalizeQuery collapses whitespace and case so "3512 JE " and
// "3512 je" share a cache slot.
func NormalizeQuery(q string) string {
	return strings.ToUpper(strings.Join(strings.Fields(q), " "))
}

// Cache is a thread-safe address -> coordinate cache. No TTL: geocoding
// results for postal codes are effectively permanent.
type Cache struct {
	mu    sync.RWMutex
	store map[string]models.Coordinate
}

func NewCache() *Cache {
	return &Cache{store: make(map[string]models.Coordinate)}
}

func (c *Cache) Get(key string) (models.Coordinate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.store[key]
	return v, ok
}

func (c *Cache) Set(key string, v models.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = v
}
