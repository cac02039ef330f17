package location

import (
	"testing"
	"time"

	"github.com/example/dispatch-agent/internal/models"
)

func TestFirstSampleShowsImmediately(t *testing.T) {
	i := NewInterpolator(time.Second)
	i.Publish(models.Coord{Lat: 1, Lng: 2})
	if got := i.Displayed(); got.Lat != 1 || got.Lng != 2 {
		t.Fatalf("first sample not shown immediately: %+v", got)
	}
}

func TestAnimatesOverWindow(t *testing.T) {
	now := time.Unix(0, 0)
	i := NewInterpolator(time.Second)
	i.now = func() time.Time { return now }

	i.Publish(models.Coord{Lat: 0, Lng: 0})
	i.Publish(models.Coord{Lat: 10, Lng: 20})

	now = now.Add(500 * time.Millisecond)
	mid := i.Displayed()
	if mid.Lat != 5 || mid.Lng != 10 {
		t.Fatalf("midpoint expected, got %+v", mid)
	}

	now = now.Add(time.Second)
	end := i.Displayed()
	if end.Lat != 10 || end.Lng != 20 {
		t.Fatalf("animation must settle on the target, got %+v", end)
	}
}

func TestRetargetMidAnimationHasNoDiscontinuity(t *testing.T) {
	now := time.Unix(0, 0)
	i := NewInterpolator(time.Second)
	i.now = func() time.Time { return now }

	i.Publish(models.Coord{Lat: 0, Lng: 0})
	i.Publish(models.Coord{Lat: 10, Lng: 0})

	// retarget halfway through: the new animation starts from the
	// current interpolated point, not the old target
	now = now.Add(500 * time.Millisecond)
	before := i.Displayed()
	i.Publish(models.Coord{Lat: 0, Lng: 10})
	after := i.Displayed()
	if before != after {
		t.Fatalf("retarget jumped from %+v to %+v", before, after)
	}
	if after.Lat != 5 {
		t.Fatalf("expected retarget origin at lat 5, got %+v", after)
	}

	now = now.Add(time.Second)
	end := i.Displayed()
	if end.Lat != 0 || end.Lng != 10 {
		t.Fatalf("retargeted animation must settle on the new target, got %+v", end)
	}
}
