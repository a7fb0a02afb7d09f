package routing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/carpool/internal/models"
)

// Cache is a small in-memory summary cache keyed by the exact waypoint
// list. Staleness is acceptable; road networks change slowly relative to
// process lifetime.
type Cache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	v  Summary
	ts time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: make(map[string]cacheEntry), ttl: ttl}
}

func keyFor(waypoints []models.Coordinate) string {
	parts := make([]string, 0, len(waypoints))
	for _, w := range waypoints {
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", w.Lat, w.Lon))
	}
	return strings.Join(parts, "->")
}

// Get returns the cached summary and true if present and not expired.
func (c *Cache) Get(waypoints []models.Coordinate) (Summary, bool) {
	k := keyFor(waypoints)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return Summary{}, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return Summary{}, false
	}
	return e.v, true
}

func (c *Cache) Set(waypoints []models.Coordinate, v Summary) {
	k := keyFor(waypoints)
	c.mu.Lock()
	c.store[k] = cacheEntry{v: v, ts: time.Now()}
	c.mu.Unlock()
}

// CachedClient wraps a Client with a Cache.
type CachedClient struct {
	Inner Client
	Cache *Cache
}

func (c *CachedClient) RouteSummary(ctx context.Context, waypoints []models.Coordinate) (Summary, error) {
	if c.Cache != nil {
		if v, ok := c.Cache.Get(waypoints); ok {
			return v, nil
		}
	}
	v, err := c.Inner.RouteSummary(ctx, waypoints)
	if err != nil {
		return Summary{}, err
	}
	if c.Cache != nil {
		c.Cache.Set(waypoints, v)
	}
	return v, nil
}
