package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/carpool/internal/models"
)

const (
	osrmTimeout    = 8 * time.Second
	osrmRetries    = 2
	osrmRetryDelay = time.Second
)

// OSRMClient performs route lookups against an OSRM HTTP server.
// Transport errors are retried with a fixed backoff; malformed responses
// are not, since the provider will just return the same garbage again.
type OSRMClient struct {
	Endpoint string
	Client   *http.Client
}

func NewOSRMClient(endpoint string) *OSRMClient {
	return &OSRMClient{Endpoint: endpoint, Client: &http.Client{Timeout: osrmTimeout}}
}

// RouteSummary queries OSRM /route across the given waypoints and returns
// total distance and duration.
func (o *OSRMClient) RouteSummary(ctx context.Context, waypoints []models.Coordinate) (Summary, error) {
	body, err := o.get(ctx, o.routeURL(waypoints, "overview=false"))
	if err != nil {
		return Summary{}, err
	}
	var out struct {
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"routes"`
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return Summary{}, fmt.Errorf("%w: osrm decode: %v", models.ErrRoutingUnavailable, err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return Summary{}, fmt.Errorf("%w: osrm no route: %v", models.ErrRoutingUnavailable, out.Code)
	}
	return Summary{DistanceMeters: out.Routes[0].Distance, DurationSeconds: out.Routes[0].Duration}, nil
}

// Geometry returns the route polyline between the waypoints as an ordered
// coordinate sequence, for offers that want a precomputed corridor.
func (o *OSRMClient) Geometry(ctx context.Context, waypoints []models.Coordinate) ([]models.Coordinate, error) {
	body, err := o.get(ctx, o.routeURL(waypoints, "overview=full&geometries=geojson"))
	if err != nil {
		return nil, err
	}
	var out struct {
		Routes []struct {
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
			} `json:"geometry"`
		} `json:"routes"`
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: osrm decode: %v", models.ErrRoutingUnavailable, err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return nil, fmt.Errorf("%w: osrm no route: %v", models.ErrRoutingUnavailable, out.Code)
	}
	pts := out.Routes[0].Geometry.Coordinates
	route := make([]models.Coordinate, 0, len(pts))
	for _, p := range pts {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: osrm malformed geometry", models.ErrRoutingUnavailable)
		}
		route = append(route, models.Coordinate{Lat: p[1], Lon: p[0]})
	}
	return route, nil
}

func (o *OSRMClient) routeURL(waypoints []models.Coordinate, query string) string {
	parts := make([]string, 0, len(waypoints))
	for _, w := range waypoints {
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", w.Lon, w.Lat))
	}
	return fmt.Sprintf("%s/route/v1/driving/%s?%s", o.Endpoint, strings.Join(parts, ";"), query)
}

// get fetches a URL with retries on transport errors and 5xx responses.
func (o *OSRMClient) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= osrmRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(osrmRetryDelay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", models.ErrRoutingUnavailable, ctx.Err())
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrRoutingUnavailable, err)
		}
		resp, err := o.Client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: %v", models.ErrRoutingUnavailable, lastErr)
}
