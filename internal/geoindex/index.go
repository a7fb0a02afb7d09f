// Package geoindex maintains a coarse spatial index of active offer
// origins. The HTTP layer uses it to trim the offer set handed to the
// matcher when thousands of offers are live; the matcher's own prefilter
// remains the correctness boundary.
package geoindex

import (
	"context"
	"sync"

	"github.com/example/carpool/internal/geo"
	"github.com/example/carpool/internal/models"
)

// Index is the minimal interface the HTTP layer needs.
type Index interface {
	Upsert(ctx context.Context, offerID string, origin models.Coordinate) error
	Remove(ctx context.Context, offerID string) error
	// Near returns IDs of offers whose origin lies within radiusKm of p,
	// closest first, at most limit of them.
	Near(ctx context.Context, p models.Coordinate, radiusKm float64, limit int) ([]string, error)
}

// MemoryIndex is the fallback when Redis is not configured.
type MemoryIndex struct {
	mu      sync.RWMutex
	origins map[string]models.Coordinate
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{origins: make(map[string]models.Coordinate)}
}

func (m *MemoryIndex) Upsert(_ context.Context, offerID string, origin models.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.origins[offerID] = origin
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, offerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.origins, offerID)
	return nil
}

// naive scan; fine for the in-process fallback
func (m *MemoryIndex) Near(_ context.Context, p models.Coordinate, radiusKm float64, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type pair struct {
		id   string
		dist float64
	}
	arr := make([]pair, 0, len(m.origins))
	for id, origin := range m.origins {
		d := geo.DistanceKm(p, origin)
		if d <= radiusKm {
			arr = append(arr, pair{id, d})
		}
	}
	// partial selection sort for top-N
	n := limit
	if n > len(arr) {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].dist < arr[minIdx].dist {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, arr[i].id)
	}
	return out, nil
}
