package geo

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/dispatch-agent/internal/models"
)

func TestDistanceZero(t *testing.T) {
	c := models.Coord{Lat: 4.60971, Lng: -74.08175}
	if d := Distance(c, c); d != 0 {
		t.Fatalf("distance to self = %v", d)
	}
}

func TestDistanceKnownPair(t *testing.T) {
	// Bogota to Medellin, roughly 246 km great-circle.
	bog := models.Coord{Lat: 4.60971, Lng: -74.08175}
	med := models.Coord{Lat: 6.24420, Lng: -75.57366}
	d := Distance(bog, med)
	if math.Abs(d-246000) > 5000 {
		t.Fatalf("distance = %v m, want ~246000", d)
	}
}

func TestDistanceSmallDisplacement(t *testing.T) {
	// One ten-thousandth of a degree of latitude is about 11 m.
	a := models.Coord{Lat: 4.6, Lng: -74.08}
	b := models.Coord{Lat: 4.6001, Lng: -74.08}
	d := Distance(a, b)
	if d < 10 || d > 12 {
		t.Fatalf("distance = %v m, want ~11", d)
	}
}

func TestIdentitySnapper(t *testing.T) {
	c := models.Coord{Lat: 4.6, Lng: -74.08}
	got, err := IdentitySnapper{}.Snap(context.Background(), c)
	if err != nil {
		t.Fatalf("Snap: %v", err)
	}
	if got != c {
		t.Fatalf("identity snap changed coordinate: %v", got)
	}
}

func TestOSRMSnapper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/nearest/v1/driving/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// OSRM orders coordinates lon,lat.
		w.Write([]byte(`{"code": "Ok", "waypoints": [{"location": [-74.081, 4.609]}]}`))
	}))
	defer srv.Close()

	s := NewOSRMSnapper(srv.URL, nil)
	got, err := s.Snap(context.Background(), models.Coord{Lat: 4.6, Lng: -74.08})
	if err != nil {
		t.Fatalf("Snap: %v", err)
	}
	if got.Lat != 4.609 || got.Lng != -74.081 {
		t.Fatalf("snapped = %+v", got)
	}
}

func TestOSRMSnapperNoWaypoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "NoSegment", "waypoints": []}`))
	}))
	defer srv.Close()

	s := NewOSRMSnapper(srv.URL, nil)
	if _, err := s.Snap(context.Background(), models.Coord{Lat: 0, Lng: 0}); err == nil {
		t.Fatal("expected error for NoSegment response")
	}
}
