package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/dispatch-agent/internal/models"
)

// HTTPProvider acquires fixes from a local positioning daemon over
// HTTP. Each call requests a fresh high-accuracy fix; cached fixes are
// rejected, matching a max-age of zero.
type HTTPProvider struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPProvider(endpoint string) *HTTPProvider {
	return &HTTPProvider{Endpoint: endpoint, Client: &http.Client{}}
}

func (p *HTTPProvider) Current(ctx context.Context) (models.Coord, error) {
	start := time.Now()
	url := p.Endpoint + "?enableHighAccuracy=true&maximumAge=0"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Coord{}, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return models.Coord{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Coord{}, fmt.Errorf("position provider returned status %d", resp.StatusCode)
	}
	var out struct {
		Latitude  float64   `json:"latitude"`
		Longitude float64   `json:"longitude"`
		Timestamp time.Time `json:"ts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Coord{}, err
	}
	if !out.Timestamp.IsZero() && out.Timestamp.Before(start) {
		return models.Coord{}, fmt.Errorf("stale fix from %s rejected", out.Timestamp)
	}
	return models.Coord{Lat: out.Latitude, Lng: out.Longitude}, nil
}
