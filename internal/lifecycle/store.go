// Package lifecycle holds the authoritative in-memory state of this
// agent's pending and accepted service requests: the countdown engine,
// the command operations, and reconciliation against periodic snapshot
// refetches from the remote authority.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/dispatch-agent/internal/api"
	"github.com/example/dispatch-agent/internal/models"
	"github.com/example/dispatch-agent/internal/observability"
)

// DefaultWindow is the countdown given to immediate (taxi, delivery)
// requests: claimed within it or offered elsewhere.
const DefaultWindow = 10

// Authority is the subset of the remote dispatch API the store drives.
type Authority interface {
	FetchAccepted(ctx context.Context, userID int64) ([]models.AssignedPayload, error)
	FetchPending(ctx context.Context) ([]models.PendingRow, error)
	Accept(ctx context.Context, tripID, userID int64, kind models.RequestKind) error
	UpdateStatus(ctx context.Context, tripID int64, estado string) error
}

// Journal records request outcomes for local audit, best-effort.
type Journal interface {
	RecordOutcome(ctx context.Context, req models.ServiceRequest, outcome string) error
}

// FareHolds finalises or releases a payment hold attached to a request.
type FareHolds interface {
	Capture(ctx context.Context, paymentIntentID string) error
	Cancel(ctx context.Context, paymentIntentID string) error
}

// Alerter is the audio-cue / native-notification boundary. All methods
// are fire-and-forget.
type Alerter interface {
	RequestReceived(req models.ServiceRequest)
	AcceptConfirmed(req models.ServiceRequest)
	AcceptConflicted(req models.ServiceRequest)
}

// ErrUnknownRequest is returned by commands naming a request the store
// is not tracking.
var ErrUnknownRequest = errors.New("unknown request id")

// ErrInvalidTransition is returned by AdvanceStatus for an estado the
// request cannot legally move to. No command is sent upstream.
var ErrInvalidTransition = errors.New("invalid status transition")

type Store struct {
	authority Authority
	journal   Journal   // optional
	fares     FareHolds // optional
	alerter   Alerter   // optional
	logger    *slog.Logger
	userID    int64
	flagTTL   time.Duration
	now       func() time.Time

	mu            sync.Mutex
	pending       []models.ServiceRequest
	accepted      []models.ServiceRequest
	successFlag   bool
	conflictFlag  bool
	successTimer  *time.Timer
	conflictTimer *time.Timer
}

type StoreConfig struct {
	UserID  int64
	FlagTTL time.Duration // transient success/conflict indication, default 2s
}

func NewStore(cfg StoreConfig, authority Authority, journal Journal, fares FareHolds, alerter Alerter, logger *slog.Logger) *Store {
	if cfg.FlagTTL <= 0 {
		cfg.FlagTTL = 2 * time.Second
	}
	return &Store{
		authority: authority,
		journal:   journal,
		fares:     fares,
		alerter:   alerter,
		logger:    logger,
		userID:    cfg.UserID,
		flagTTL:   cfg.FlagTTL,
		now:       time.Now,
	}
}

// Close stops the transient-flag timers. Periodic work (countdown ticks,
// bridge folds) is owned by the session, not the store.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.successTimer != nil {
		s.successTimer.Stop()
	}
	if s.conflictTimer != nil {
		s.conflictTimer.Stop()
	}
}

// AddPending prepends a freshly pushed request to the pending set and
// fires the new-request alert. A request already tracked in either set
// is ignored, keeping every id in at most one place.
func (s *Store) AddPending(req models.ServiceRequest) {
	s.mu.Lock()
	if s.findPending(req.ID) >= 0 || s.findAccepted(req.ID) >= 0 {
		s.mu.Unlock()
		return
	}
	req.Status = models.StatusPending
	s.pending = append([]models.ServiceRequest{req}, s.pending...)
	// a fresh offer supersedes any stale "assigned" banner
	s.successFlag = false
	if s.successTimer != nil {
		s.successTimer.Stop()
	}
	s.mu.Unlock()

	observability.PendingRequests.Inc()
	if s.alerter != nil {
		s.alerter.RequestReceived(req)
	}
}

// RemovePending drops a pending request, typically because another
// agent claimed it. Unknown ids are a no-op.
func (s *Store) RemovePending(tripID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removePendingLocked(tripID)
}

// AddAccepted appends an assignment pushed by the authority. The id is
// removed from pending first if present.
func (s *Store) AddAccepted(req models.ServiceRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// an arriving assignment supersedes the transient banner
	s.successFlag = false
	if s.successTimer != nil {
		s.successTimer.Stop()
	}
	s.removePendingLocked(req.ID)
	if s.findAccepted(req.ID) >= 0 {
		return
	}
	if req.Status == "" || req.Status == models.StatusPending {
		req.Status = models.StatusAccepted
	}
	s.accepted = append(s.accepted, req)
	observability.AcceptedRequests.Set(float64(len(s.accepted)))
}

// FetchAccepted replaces the accepted set with the authority's snapshot,
// dropping terminal entries the server may still be holding.
func (s *Store) FetchAccepted(ctx context.Context) error {
	rows, err := s.authority.FetchAccepted(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("fetch accepted: %w", err)
	}
	next := make([]models.ServiceRequest, 0, len(rows))
	for _, row := range rows {
		switch row.Status {
		case models.StatusRejected, models.StatusCancelled, models.StatusFinished:
			continue
		}
		req := row.Request()
		if req.Status == "" || req.Status == models.StatusPending {
			req.Status = models.StatusAccepted
		}
		next = append(next, req)
	}
	s.mu.Lock()
	s.accepted = next
	s.mu.Unlock()
	observability.AcceptedRequests.Set(float64(len(next)))
	return nil
}

// FetchPending replaces the pending set with the authority's snapshot.
// Reservation countdowns are re-derived from the reservation time rather
// than trusted as given, so timers stay correct across restarts.
func (s *Store) FetchPending(ctx context.Context) error {
	rows, err := s.authority.FetchPending(ctx)
	if err != nil {
		return fmt.Errorf("fetch pending: %w", err)
	}
	now := s.now()
	next := make([]models.ServiceRequest, 0, len(rows))
	for _, row := range rows {
		req := models.ServiceRequest{
			ID:                 row.TripID,
			Kind:               row.Kind,
			Status:             models.StatusPending,
			RequesterName:      row.RequesterName,
			OriginAddress:      row.OriginAddress,
			DestinationAddress: row.DestinationAddress,
			Description:        row.Description,
			ReservationDate:    row.ReservationDate,
			ReservationTime:    row.ReservationTime,
			Remaining:          DefaultWindow,
		}
		if row.Kind == models.KindReservation {
			remaining, err := models.ReservationWindow(row.ReservationDate, row.ReservationTime, now)
			if err != nil {
				s.logger.Warn("pending snapshot row has unparsable reservation time", "trip_id", row.TripID, "error", err)
				continue
			}
			req.Remaining = remaining
		}
		next = append(next, req)
	}
	s.mu.Lock()
	s.pending = next
	s.mu.Unlock()
	observability.PendingRequests.Set(float64(len(next)))
	return nil
}

// Accept claims a pending request with the authority. A confirmed claim
// removes the request from pending, raises the transient success flag
// and refreshes the accepted snapshot. A conflict (another agent won the
// race) removes it from pending with the conflict flag and is not an
// error. Anything else leaves the pending entry untouched for retry.
func (s *Store) Accept(ctx context.Context, tripID int64) error {
	s.mu.Lock()
	idx := s.findPending(tripID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownRequest
	}
	req := s.pending[idx]
	s.mu.Unlock()

	err := s.authority.Accept(ctx, tripID, s.userID, req.Kind)
	switch {
	case err == nil:
		s.RemovePending(tripID)
		s.raiseSuccess()
		observability.AcceptsWon.Inc()
		if s.alerter != nil {
			s.alerter.AcceptConfirmed(req)
		}
		s.record(ctx, req, "accepted")
		if err := s.FetchAccepted(ctx); err != nil {
			s.logger.Warn("accepted snapshot refresh after accept failed", "error", err)
		}
		return nil
	case errors.Is(err, api.ErrConflict):
		s.RemovePending(tripID)
		s.raiseConflict()
		observability.AcceptConflicts.Inc()
		if s.alerter != nil {
			s.alerter.AcceptConflicted(req)
		}
		s.record(ctx, req, "conflict")
		s.logger.Info("request already claimed by another agent", "trip_id", tripID)
		return nil
	default:
		s.logger.Error("accept failed", "trip_id", tripID, "error", err)
		return err
	}
}

// AdvanceStatus issues a status-update command and mutates local state
// only on a confirmed response. esperando and "en viaje" update the
// entry in place; cancelado and finalizado remove it (terminal states
// are not retained) and settle any attached fare hold.
func (s *Store) AdvanceStatus(ctx context.Context, tripID int64, estado string) error {
	switch estado {
	case models.StatusArrived, models.StatusInProgress, models.StatusCancelled, models.StatusFinished:
	default:
		return fmt.Errorf("%w: unsupported estado %q", ErrInvalidTransition, estado)
	}

	s.mu.Lock()
	idx := s.findAccepted(tripID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownRequest
	}
	req := s.accepted[idx]
	s.mu.Unlock()

	if !CanTransition(req.Status, estado) {
		return fmt.Errorf("%w: trip %d cannot move from %q to %q", ErrInvalidTransition, tripID, req.Status, estado)
	}

	if err := s.authority.UpdateStatus(ctx, tripID, estado); err != nil {
		s.logger.Error("status update failed", "trip_id", tripID, "estado", estado, "error", err)
		return err
	}

	switch estado {
	case models.StatusArrived, models.StatusInProgress:
		s.mu.Lock()
		if i := s.findAccepted(tripID); i >= 0 {
			s.accepted[i].Status = estado
		}
		s.mu.Unlock()
	case models.StatusCancelled, models.StatusFinished:
		s.mu.Lock()
		if i := s.findAccepted(tripID); i >= 0 {
			s.accepted = append(s.accepted[:i], s.accepted[i+1:]...)
		}
		size := len(s.accepted)
		s.mu.Unlock()
		observability.AcceptedRequests.Set(float64(size))
		s.record(ctx, req, estado)
		s.settleFare(ctx, req, estado)
	}
	return nil
}

// Tick decrements every pending countdown by exactly one second and
// prunes entries that reached zero. This is the sole expiry mechanism.
func (s *Store) Tick() {
	s.mu.Lock()
	kept := s.pending[:0]
	expired := 0
	for _, req := range s.pending {
		req.Remaining--
		if req.Remaining <= 0 {
			expired++
			continue
		}
		kept = append(kept, req)
	}
	s.pending = kept
	size := len(s.pending)
	s.mu.Unlock()

	if expired > 0 {
		observability.RequestsExpired.Add(float64(expired))
	}
	observability.PendingRequests.Set(float64(size))
}

// Pending returns a copy of the pending set, newest first.
func (s *Store) Pending() []models.ServiceRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ServiceRequest, len(s.pending))
	copy(out, s.pending)
	return out
}

// Accepted returns a copy of the accepted set.
func (s *Store) Accepted() []models.ServiceRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ServiceRequest, len(s.accepted))
	copy(out, s.accepted)
	return out
}

// Flags returns the transient success and conflict indications.
func (s *Store) Flags() (success, conflict bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successFlag, s.conflictFlag
}

func (s *Store) raiseSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successFlag = true
	if s.successTimer != nil {
		s.successTimer.Stop()
	}
	s.successTimer = time.AfterFunc(s.flagTTL, func() {
		s.mu.Lock()
		s.successFlag = false
		s.mu.Unlock()
	})
}

func (s *Store) raiseConflict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflictFlag = true
	if s.conflictTimer != nil {
		s.conflictTimer.Stop()
	}
	s.conflictTimer = time.AfterFunc(s.flagTTL, func() {
		s.mu.Lock()
		s.conflictFlag = false
		s.mu.Unlock()
	})
}

func (s *Store) record(ctx context.Context, req models.ServiceRequest, outcome string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordOutcome(ctx, req, outcome); err != nil {
		s.logger.Warn("journal write failed", "trip_id", req.ID, "outcome", outcome, "error", err)
	}
}

func (s *Store) settleFare(ctx context.Context, req models.ServiceRequest, estado string) {
	if s.fares == nil || req.PaymentIntentID == "" {
		return
	}
	var err error
	switch estado {
	case models.StatusFinished:
		err = s.fares.Capture(ctx, req.PaymentIntentID)
	case models.StatusCancelled:
		err = s.fares.Cancel(ctx, req.PaymentIntentID)
	}
	if err != nil {
		s.logger.Error("fare hold settlement failed", "trip_id", req.ID, "estado", estado, "error", err)
	}
}

func (s *Store) findPending(tripID int64) int {
	for i, req := range s.pending {
		if req.ID == tripID {
			return i
		}
	}
	return -1
}

func (s *Store) findAccepted(tripID int64) int {
	for i, req := range s.accepted {
		if req.ID == tripID {
			return i
		}
	}
	return -1
}

func (s *Store) removePendingLocked(tripID int64) {
	if i := s.findPending(tripID); i >= 0 {
		s.pending = append(s.pending[:i], s.pending[i+1:]...)
		observability.PendingRequests.Set(float64(len(s.pending)))
	}
}
