package lifecycle

import (
	"context"
	"time"
)

// TimerEngine drives the per-request countdowns: one store Tick per
// second for the engine's lifetime. Expiry is entirely independent of
// the server-driven accept/reject flow.
type TimerEngine struct {
	store    *Store
	interval time.Duration
}

func NewTimerEngine(store *Store) *TimerEngine {
	return &TimerEngine{store: store, interval: time.Second}
}

// Run ticks until ctx is cancelled.
func (e *TimerEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.store.Tick()
		}
	}
}
