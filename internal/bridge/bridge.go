// Package bridge maintains the persistent push-channel connection to
// the dispatch authority and folds inbound events into the lifecycle
// store. All classification lives in Handle so the fold can be tested
// with synthetic events, no live connection needed.
package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/dispatch-agent/internal/lifecycle"
	"github.com/example/dispatch-agent/internal/location"
	"github.com/example/dispatch-agent/internal/models"
	"github.com/example/dispatch-agent/internal/observability"
)

// Envelope is the push-channel frame: an event name plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Bridge struct {
	url     string
	store   *lifecycle.Store
	sampler *location.Sampler
	logger  *slog.Logger
	now     func() time.Time
}

func New(url string, store *lifecycle.Store, sampler *location.Sampler, logger *slog.Logger) *Bridge {
	return &Bridge{url: url, store: store, sampler: sampler, logger: logger, now: time.Now}
}

// Run dials the push channel and reads events until ctx is cancelled,
// reconnecting with capped exponential backoff. Every (re)connect forces
// a location push and refetches both snapshots so nothing missed while
// disconnected is lost.
//
// The backoff also covers connections that drop right after the
// handshake, and only resets once a connection has stayed up for a
// while. A server that accepts and immediately closes therefore cannot
// drive a hot dial loop or hammer the authority with onConnect
// refetches.
func (b *Bridge) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second
	const stableAfter = time.Minute

	for {
		if ctx.Err() != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, nil)
		if err != nil {
			b.logger.Warn("push channel connect failed", "error", err, "retry_in", backoff)
		} else {
			observability.Reconnects.Inc()
			b.logger.Info("push channel connected", "url", b.url)
			connectedAt := time.Now()
			b.onConnect(ctx)
			b.readLoop(ctx, conn)
			if ctx.Err() != nil {
				return
			}
			if time.Since(connectedAt) >= stableAfter {
				backoff = time.Second
			}
			b.logger.Warn("push channel dropped", "retry_in", backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// onConnect recovers state possibly missed while disconnected.
func (b *Bridge) onConnect(ctx context.Context) {
	if b.sampler != nil {
		b.sampler.Update(ctx, true)
	}
	if err := b.store.FetchPending(ctx); err != nil {
		b.logger.Warn("pending snapshot refresh on connect failed", "error", err)
	}
	if err := b.store.FetchAccepted(ctx); err != nil {
		b.logger.Warn("accepted snapshot refresh on connect failed", "error", err)
	}
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	// the watcher unblocks ReadMessage on cancellation and must itself
	// exit when the read loop does, not at session teardown
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				b.logger.Warn("push channel read failed", "error", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			observability.EventsDropped.Inc()
			b.logger.Warn("push channel frame is not an event envelope", "error", err)
			continue
		}
		b.Handle(ctx, env.Event, env.Data)
	}
}

// Handle classifies one inbound event and folds it into the store.
func (b *Bridge) Handle(ctx context.Context, event string, data []byte) {
	observability.EventsConsumed.WithLabelValues(event).Inc()
	switch event {
	case "taxiRequest":
		b.handleNewRequest(event, models.KindTaxi, data)
	case "deliveryRequest":
		b.handleNewRequest(event, models.KindDelivery, data)
	case "reservationRequest":
		b.handleNewRequest(event, models.KindReservation, data)
	case "taxiRequestAccepted", "deliveryRequestAccepted", "reservationRequestAccepted":
		b.handleClaimed(event, data)
	case "assignedTaxi":
		b.handleAssigned(event, models.KindTaxi, data)
	case "assignedDelivery":
		b.handleAssigned(event, models.KindDelivery, data)
	case "assignedReservation":
		b.handleAssigned(event, models.KindReservation, data)
	default:
		b.logger.Debug("ignoring unknown push event", "event", event)
	}
}

func (b *Bridge) handleNewRequest(event string, kind models.RequestKind, data []byte) {
	var payload models.RequestEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		observability.EventsDropped.Inc()
		b.logger.Warn("malformed request event dropped", "event", event, "error", err)
		return
	}
	req := models.ServiceRequest{
		ID:                 payload.TripID,
		Kind:               kind,
		RequesterName:      payload.RequesterName,
		OriginAddress:      payload.Origin(),
		DestinationAddress: payload.Destination(),
		Description:        payload.Description,
		ReservationDate:    payload.ReservationDate,
		ReservationTime:    payload.ReservationTime,
		Remaining:          lifecycle.DefaultWindow,
	}
	if kind == models.KindReservation {
		remaining, err := models.ReservationWindow(payload.ReservationDate, payload.ReservationTime, b.now())
		if err != nil {
			observability.EventsDropped.Inc()
			b.logger.Warn("reservation event with unparsable time dropped", "event", event, "trip_id", payload.TripID, "error", err)
			return
		}
		req.Remaining = remaining
	}
	b.store.AddPending(req)
}

func (b *Bridge) handleClaimed(event string, data []byte) {
	var payload models.ClaimedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		observability.EventsDropped.Inc()
		b.logger.Warn("malformed claim event dropped", "event", event, "error", err)
		return
	}
	b.store.RemovePending(payload.TripID)
}

func (b *Bridge) handleAssigned(event string, kind models.RequestKind, data []byte) {
	var payload models.AssignedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		observability.EventsDropped.Inc()
		b.logger.Warn("malformed assignment dropped", "event", event, "error", err)
		return
	}
	// incomplete upstream data must not corrupt local state
	if !payload.Complete() {
		observability.EventsDropped.Inc()
		b.logger.Warn("assignment missing coordinates dropped", "event", event, "trip_id", payload.TripID)
		return
	}
	if payload.Kind == "" {
		payload.Kind = kind
	}
	b.store.AddAccepted(payload.Request())
}
