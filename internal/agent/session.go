// Package agent owns the running session: every periodic activity
// (GPS sampling, countdown ticks, the push-channel subscription) is
// started here and torn down by Close, so no timer outlives the session
// it belongs to.
package agent

import (
	"context"
	"sync"

	"github.com/example/dispatch-agent/internal/bridge"
	"github.com/example/dispatch-agent/internal/lifecycle"
	"github.com/example/dispatch-agent/internal/location"
)

type Session struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	store  *lifecycle.Store
}

// Start launches the sampler, countdown engine and event bridge. The
// returned session stops all of them, and the store's flag timers, on
// Close.
func Start(parent context.Context, store *lifecycle.Store, sampler *location.Sampler, timers *lifecycle.TimerEngine, br *bridge.Bridge) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{cancel: cancel, store: store}

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		sampler.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		timers.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		br.Run(ctx)
	}()
	return s
}

// Close cancels every owned goroutine and waits for them to exit.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
	s.store.Close()
}
