package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/dispatch-agent/internal/models"
)

func TestAcceptMapsConflictStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geolocation/accept-taxi-request" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if body["tipo"] != "taxi" {
			t.Errorf("tipo = %v", body["tipo"])
		}
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Accept(context.Background(), 7, 42, models.KindTaxi)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAcceptSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.Accept(context.Background(), 7, 42, models.KindDelivery); err != nil {
		t.Fatalf("Accept: %v", err)
	}
}

func TestAcceptOtherStatusIsPlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Accept(context.Background(), 7, 42, models.KindTaxi)
	if err == nil || errors.Is(err, ErrConflict) {
		t.Fatalf("expected non-conflict error, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", err)
	}
}

func TestFetchAcceptedParsesWireFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id_usuario"); got != "42" {
			t.Errorf("id_usuario = %q", got)
		}
		// origin longitude really is "longitudes" upstream
		w.Write([]byte(`[{"id_viaje": 9, "tipo": "reserva", "estado": "esperando",
			"latitud": 4.6, "longitudes": -74.08, "latitud_fin": 4.7, "longitud_fin": -74.1}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	rows, err := c.FetchAccepted(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchAccepted: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.TripID != 9 || row.Kind != models.KindReservation || !row.Complete() {
		t.Fatalf("row not parsed: %+v", row)
	}
	if *row.OriginLng != -74.08 {
		t.Fatalf("longitudes not mapped: %v", *row.OriginLng)
	}
}

func TestPushLocationPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geolocation/update-location" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.PushLocation(context.Background(), 42, models.Coord{Lat: 4.6, Lng: -74.08}); err != nil {
		t.Fatalf("PushLocation: %v", err)
	}
	if got["id_usuario"] != float64(42) || got["latitude"] != 4.6 || got["longitude"] != -74.08 {
		t.Fatalf("payload = %v", got)
	}
}

func TestUpdateStatusPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geolocation/update-status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.UpdateStatus(context.Background(), 9, models.StatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got["estado"] != "en viaje" {
		t.Fatalf("estado = %v", got["estado"])
	}
}
