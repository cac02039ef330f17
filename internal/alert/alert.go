// Package alert is the audio-cue / native-notification boundary. The
// agent core only ever talks to the lifecycle.Alerter interface; this
// default implementation logs the cue that a real frontend would play.
package alert

import (
	"log/slog"

	"github.com/example/dispatch-agent/internal/models"
)

type LogAlerter struct {
	logger *slog.Logger
}

func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

func (a *LogAlerter) RequestReceived(req models.ServiceRequest) {
	a.logger.Info("alert: new service request", "cue", "new_request", "trip_id", req.ID, "kind", req.Kind, "requester", req.RequesterName)
	if req.Kind == models.KindReservation {
		// reservations additionally raise a native notification upstream
		a.logger.Info("alert: reservation notification", "trip_id", req.ID, "requester", req.RequesterName)
	}
}

func (a *LogAlerter) AcceptConfirmed(req models.ServiceRequest) {
	a.logger.Info("alert: request claimed", "cue", "success", "trip_id", req.ID)
}

func (a *LogAlerter) AcceptConflicted(req models.ServiceRequest) {
	a.logger.Info("alert: request lost to another agent", "cue", "error", "trip_id", req.ID)
}
