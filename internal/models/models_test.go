package models

import (
	"testing"
	"time"
)

func TestReservationWindowTwoHoursOneMinuteOut(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	at := now.Add(2*time.Hour + time.Minute)
	remaining, err := ReservationWindow(at.Format("2006-01-02"), at.Format("15:04:05"), now)
	if err != nil {
		t.Fatalf("ReservationWindow: %v", err)
	}
	if remaining != 60 {
		t.Fatalf("expected 60s remaining, got %f", remaining)
	}
}

func TestReservationWindowAlreadyInsideLead(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	at := now.Add(time.Hour)
	remaining, err := ReservationWindow(at.Format("2006-01-02"), at.Format("15:04:05"), now)
	if err != nil {
		t.Fatalf("ReservationWindow: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining, got %f", remaining)
	}
}

func TestReservationAtToleratesWireDecorations(t *testing.T) {
	// fecha with a full timestamp, hora with a zone suffix
	at, err := ReservationAt("2024-05-01T00:00:00.000Z", "14:30:00-05:00")
	if err != nil {
		t.Fatalf("ReservationAt: %v", err)
	}
	want := time.Date(2024, 5, 1, 14, 30, 0, 0, time.Local)
	if !at.Equal(want) {
		t.Fatalf("expected %v, got %v", want, at)
	}
}

func TestReservationAtRejectsGarbage(t *testing.T) {
	if _, err := ReservationAt("soon", "later"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAssignedPayloadComplete(t *testing.T) {
	lat, lng := 4.6097, -74.0817
	p := AssignedPayload{TripID: 7, OriginLat: &lat, OriginLng: &lng, DestinationLat: &lat}
	if p.Complete() {
		t.Fatal("payload missing destination longitude reported complete")
	}
	p.DestinationLng = &lng
	if !p.Complete() {
		t.Fatal("complete payload reported incomplete")
	}
	req := p.Request()
	if req.Origin.Lat != lat || req.Destination.Lng != lng {
		t.Fatalf("coordinates not mapped: %+v", req)
	}
}
