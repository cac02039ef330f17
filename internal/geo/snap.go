package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/dispatch-agent/internal/models"
)

// Snapper maps a raw GPS fix onto the nearest road-network point.
type Snapper interface {
	Snap(ctx context.Context, c models.Coord) (models.Coord, error)
}

// IdentitySnapper passes fixes through unchanged, for deployments
// without a road-snap service.
type IdentitySnapper struct{}

func (IdentitySnapper) Snap(_ context.Context, c models.Coord) (models.Coord, error) {
	return c, nil
}

// OSRMSnapper performs nearest-road lookups against an OSRM HTTP server.
type OSRMSnapper struct {
	Endpoint string
	Client   *http.Client
	Cache    *SnapCache // optional
}

func NewOSRMSnapper(endpoint string, cache *SnapCache) *OSRMSnapper {
	return &OSRMSnapper{Endpoint: endpoint, Client: &http.Client{Timeout: 2 * time.Second}, Cache: cache}
}

// Snap queries OSRM /nearest and returns the road-aligned coordinate.
// Results are served from the cache when one is configured.
func (o *OSRMSnapper) Snap(ctx context.Context, c models.Coord) (models.Coord, error) {
	if o.Cache != nil {
		if snapped, ok := o.Cache.Get(ctx, c); ok {
			return snapped, nil
		}
	}
	// OSRM nearest query: /nearest/v1/driving/{lon},{lat}?number=1
	url := fmt.Sprintf("%s/nearest/v1/driving/%.6f,%.6f?number=1", o.Endpoint, c.Lng, c.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Coord{}, err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return models.Coord{}, err
	}
	defer resp.Body.Close()
	var out struct {
		Waypoints []struct {
			Location [2]float64 `json:"location"` // lon, lat
		} `json:"waypoints"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Coord{}, err
	}
	if out.Code != "Ok" || len(out.Waypoints) == 0 {
		return models.Coord{}, fmt.Errorf("osrm no waypoint: %v", out.Code)
	}
	snapped := models.Coord{Lat: out.Waypoints[0].Location[1], Lng: out.Waypoints[0].Location[0]}
	if o.Cache != nil {
		o.Cache.Set(ctx, c, snapped)
	}
	return snapped, nil
}
