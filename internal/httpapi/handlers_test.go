package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/dispatch-agent/internal/geo"
	"github.com/example/dispatch-agent/internal/lifecycle"
	"github.com/example/dispatch-agent/internal/location"
	"github.com/example/dispatch-agent/internal/models"
)

type stubAuthority struct {
	acceptErr error
}

func (a *stubAuthority) FetchAccepted(context.Context, int64) ([]models.AssignedPayload, error) {
	return nil, nil
}
func (a *stubAuthority) FetchPending(context.Context) ([]models.PendingRow, error) {
	return nil, nil
}
func (a *stubAuthority) Accept(context.Context, int64, int64, models.RequestKind) error {
	return a.acceptErr
}
func (a *stubAuthority) UpdateStatus(context.Context, int64, string) error { return nil }

type stubProvider struct{ at models.Coord }

func (p stubProvider) Current(context.Context) (models.Coord, error) { return p.at, nil }

type stubPusher struct{}

func (stubPusher) PushLocation(context.Context, int64, models.Coord) error { return nil }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestServer(t *testing.T, auth *stubAuthority) (*Server, *lifecycle.Store) {
	t.Helper()
	store := lifecycle.NewStore(lifecycle.StoreConfig{UserID: 42, FlagTTL: time.Minute}, auth, nil, nil, nil, discard())
	t.Cleanup(store.Close)
	interp := location.NewInterpolator(time.Second)
	sampler := location.NewSampler(location.SamplerConfig{UserID: 42}, stubProvider{}, geo.IdentitySnapper{}, stubPusher{}, nil, interp, discard())
	return NewServer(store, interp, sampler, discard()), store
}

func TestPendingEndpoint(t *testing.T) {
	srv, store := newTestServer(t, &stubAuthority{})
	store.AddPending(models.ServiceRequest{ID: 5, Kind: models.KindTaxi, Remaining: 10})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/requests/pending", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []models.ServiceRequest
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != 5 {
		t.Fatalf("pending = %+v", got)
	}
}

func TestAcceptEndpointUnknownID(t *testing.T) {
	srv, _ := newTestServer(t, &stubAuthority{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/requests/99/accept", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAcceptEndpointSuccessReportsFlags(t *testing.T) {
	srv, store := newTestServer(t, &stubAuthority{})
	store.AddPending(models.ServiceRequest{ID: 5, Kind: models.KindTaxi, Remaining: 10})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/requests/5/accept", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var flags map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&flags); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !flags["assigned"] || flags["conflict"] {
		t.Fatalf("flags = %v", flags)
	}
	if len(store.Pending()) != 0 {
		t.Fatal("accepted request still pending")
	}
}

func TestStatusEndpointInvalidTransition(t *testing.T) {
	srv, store := newTestServer(t, &stubAuthority{})
	store.AddAccepted(models.ServiceRequest{ID: 7, Kind: models.KindTaxi, Status: models.StatusInProgress})

	body := strings.NewReader(`{"estado": "esperando"}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/requests/7/status", body))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestStatusEndpointFinishRemoves(t *testing.T) {
	srv, store := newTestServer(t, &stubAuthority{})
	store.AddAccepted(models.ServiceRequest{ID: 7, Kind: models.KindTaxi, Status: models.StatusInProgress})

	body := strings.NewReader(`{"estado": "finalizado"}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/requests/7/status", body))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(store.Accepted()) != 0 {
		t.Fatal("finished request still in accepted set")
	}
}

func TestAccessLogSkipsScrapeEndpoints(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	store := lifecycle.NewStore(lifecycle.StoreConfig{UserID: 42, FlagTTL: time.Minute}, &stubAuthority{}, nil, nil, nil, logger)
	t.Cleanup(store.Close)
	interp := location.NewInterpolator(time.Second)
	sampler := location.NewSampler(location.SamplerConfig{UserID: 42}, stubProvider{}, geo.IdentitySnapper{}, stubPusher{}, nil, interp, logger)
	srv := NewServer(store, interp, sampler, logger)

	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))
	if strings.Contains(buf.String(), "consumer request") {
		t.Fatal("health endpoint produced an access log line")
	}

	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/flags", nil))
	if !strings.Contains(buf.String(), "consumer request") {
		t.Fatal("api request missing from access log")
	}
}

func TestFlagsEndpointDefaults(t *testing.T) {
	srv, _ := newTestServer(t, &stubAuthority{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/flags", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var flags map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&flags); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if flags["assigned"] || flags["conflict"] {
		t.Fatalf("flags = %v", flags)
	}
}
