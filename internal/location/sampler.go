// Package location tracks the agent's own position: periodic fix
// acquisition, road snapping, displacement gating and the interpolated
// display position consumers read.
package location

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/dispatch-agent/internal/geo"
	"github.com/example/dispatch-agent/internal/models"
	"github.com/example/dispatch-agent/internal/observability"
)

// Provider acquires one high-accuracy position fix. Implementations must
// honour ctx cancellation; the sampler bounds each acquisition with its
// configured timeout and never accepts cached fixes.
type Provider interface {
	Current(ctx context.Context) (models.Coord, error)
}

// Pusher reports a propagated sample to the remote authority.
type Pusher interface {
	PushLocation(ctx context.Context, userID int64, loc models.Coord) error
}

// Journal receives a copy of every propagated sample, best-effort.
type Journal interface {
	PublishSample(ctx context.Context, userID int64, loc models.Coord) error
}

type Sampler struct {
	provider Provider
	snapper  geo.Snapper
	pusher   Pusher
	journal  Journal // optional
	interp   *Interpolator
	logger   *slog.Logger

	userID         int64
	gateMeters     float64
	acquireTimeout time.Duration
	interval       time.Duration

	mu        sync.Mutex
	lastKnown models.Coord
}

type SamplerConfig struct {
	UserID         int64
	GateMeters     float64       // displacement gate, default 20
	AcquireTimeout time.Duration // default 5s
	Interval       time.Duration // default 5s
}

func NewSampler(cfg SamplerConfig, provider Provider, snapper geo.Snapper, pusher Pusher, journal Journal, interp *Interpolator, logger *slog.Logger) *Sampler {
	if cfg.GateMeters <= 0 {
		cfg.GateMeters = 20
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 5 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Sampler{
		provider:       provider,
		snapper:        snapper,
		pusher:         pusher,
		journal:        journal,
		interp:         interp,
		logger:         logger,
		userID:         cfg.UserID,
		gateMeters:     cfg.GateMeters,
		acquireTimeout: cfg.AcquireTimeout,
		interval:       cfg.Interval,
	}
}

// Run samples eagerly once (forced), then on every interval tick until
// ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	s.Update(ctx, true)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Update(ctx, false)
		}
	}
}

// Update acquires, snaps and conditionally propagates one fix. Failures
// are logged and absorbed; the next tick retries naturally. force skips
// the displacement gate (startup, push-channel reconnect).
func (s *Sampler) Update(ctx context.Context, force bool) {
	acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	fix, err := s.provider.Current(acquireCtx)
	cancel()
	if err != nil {
		observability.LocationFailures.Inc()
		s.logger.Warn("position fix failed", "error", err)
		return
	}
	snapped, err := s.snapper.Snap(ctx, fix)
	if err != nil {
		observability.LocationFailures.Inc()
		s.logger.Warn("road snap failed", "error", err)
		return
	}

	s.mu.Lock()
	distance := geo.Distance(s.lastKnown, snapped)
	if !force && distance <= s.gateMeters {
		s.mu.Unlock()
		observability.LocationSkipped.Inc()
		return
	}
	s.lastKnown = snapped
	s.mu.Unlock()

	if err := s.pusher.PushLocation(ctx, s.userID, snapped); err != nil {
		s.logger.Warn("location push failed", "error", err)
	} else {
		observability.LocationPushes.Inc()
	}
	if s.interp != nil {
		s.interp.Publish(snapped)
	}
	if s.journal != nil {
		if err := s.journal.PublishSample(ctx, s.userID, snapped); err != nil {
			s.logger.Warn("location journal publish failed", "error", err)
		}
	}
}

// LastKnown returns the last sample that passed the displacement gate.
func (s *Sampler) LastKnown() models.Coord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKnown
}
