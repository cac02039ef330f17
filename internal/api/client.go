// Package api implements the REST client for the remote dispatch
// authority. The authority owns all matching and conflict decisions;
// this client only reports outcomes back to callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/example/dispatch-agent/internal/models"
)

// ErrConflict is returned by Accept when the authority reports the
// request already claimed by another agent (HTTP 409). Losing that race
// is an expected outcome, not a failure.
var ErrConflict = errors.New("request already claimed by another agent")

type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, Client: &http.Client{Timeout: 10 * time.Second}}
}

// FetchAccepted returns the authoritative snapshot of this agent's
// accepted requests.
func (c *Client) FetchAccepted(ctx context.Context, userID int64) ([]models.AssignedPayload, error) {
	url := c.BaseURL + "/geolocation/accepted-requests?id_usuario=" + strconv.FormatInt(userID, 10)
	var out []models.AssignedPayload
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchPending returns the authoritative snapshot of unclaimed requests.
func (c *Client) FetchPending(ctx context.Context) ([]models.PendingRow, error) {
	var out []models.PendingRow
	if err := c.getJSON(ctx, c.BaseURL+"/geolocation/pending-reservations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PushLocation reports a road-snapped position sample upstream.
func (c *Client) PushLocation(ctx context.Context, userID int64, loc models.Coord) error {
	payload := map[string]any{"id_usuario": userID, "latitude": loc.Lat, "longitude": loc.Lng}
	return c.postJSON(ctx, c.BaseURL+"/geolocation/update-location", payload)
}

// Accept claims a pending request for this agent. A 409 maps to
// ErrConflict; any other non-2xx status is an ordinary error.
func (c *Client) Accept(ctx context.Context, tripID, userID int64, kind models.RequestKind) error {
	payload := map[string]any{"id_viaje": tripID, "id_taxista": userID, "tipo": kind}
	err := c.postJSON(ctx, c.BaseURL+"/geolocation/accept-taxi-request", payload)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusConflict {
		return ErrConflict
	}
	return err
}

// UpdateStatus advances a claimed request to a new authority-side estado.
func (c *Client) UpdateStatus(ctx context.Context, tripID int64, estado string) error {
	payload := map[string]any{"id_viaje": tripID, "estado": estado}
	return c.postJSON(ctx, c.BaseURL+"/geolocation/update-status", payload)
}

// StatusError reports a non-2xx response from the authority.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("authority returned status %d", e.Code) }

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
