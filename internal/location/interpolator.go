package location

import (
	"sync"
	"time"

	"github.com/example/dispatch-agent/internal/models"
)

// Interpolator animates the displayed position between successive
// authoritative samples over a fixed window instead of snapping. The
// animation is evaluated lazily: Displayed computes the in-flight
// position at read time, so no ticker goroutine is needed and a sample
// arriving mid-animation retargets from the current interpolated point
// with no discontinuity.
type Interpolator struct {
	mu        sync.Mutex
	from      models.Coord
	to        models.Coord
	startedAt time.Time
	started   bool
	window    time.Duration
	now       func() time.Time
}

func NewInterpolator(window time.Duration) *Interpolator {
	if window <= 0 {
		window = time.Second
	}
	return &Interpolator{window: window, now: time.Now}
}

// Publish retargets the animation toward a new sample. The first sample
// ever published is shown immediately.
func (i *Interpolator) Publish(target models.Coord) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.started {
		i.from = target
		i.to = target
		i.started = true
		i.startedAt = i.now()
		return
	}
	i.from = i.displayedLocked()
	i.to = target
	i.startedAt = i.now()
}

// Displayed returns the current interpolated position.
func (i *Interpolator) Displayed() models.Coord {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.displayedLocked()
}

func (i *Interpolator) displayedLocked() models.Coord {
	if !i.started {
		return models.Coord{}
	}
	elapsed := i.now().Sub(i.startedAt)
	if elapsed >= i.window {
		return i.to
	}
	t := float64(elapsed) / float64(i.window)
	return models.Coord{
		Lat: i.from.Lat + (i.to.Lat-i.from.Lat)*t,
		Lng: i.from.Lng + (i.to.Lng-i.from.Lng)*t,
	}
}
