package storage

import (
	"context"
	"sync"
	"time"

	"github.com/example/dispatch-agent/internal/models"
)

// Outcome is one audit row: what happened to a request on this agent.
type Outcome struct {
	TripID     int64
	Kind       models.RequestKind
	Outcome    string // accepted, conflict, cancelado, finalizado
	Requester  string
	RecordedAt time.Time
}

// TripJournal persists request outcomes for local audit.
type TripJournal interface {
	RecordOutcome(ctx context.Context, req models.ServiceRequest, outcome string) error
}

// MemoryJournal keeps outcomes in memory; the default when no DSN is
// configured.
type MemoryJournal struct {
	mu       sync.RWMutex
	outcomes []Outcome
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (m *MemoryJournal) RecordOutcome(ctx context.Context, req models.ServiceRequest, outcome string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, Outcome{
		TripID:     req.ID,
		Kind:       req.Kind,
		Outcome:    outcome,
		Requester:  req.RequesterName,
		RecordedAt: time.Now(),
	})
	return nil
}

// Outcomes returns a copy of everything recorded so far.
func (m *MemoryJournal) Outcomes() []Outcome {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Outcome, len(m.outcomes))
	copy(out, m.outcomes)
	return out
}
