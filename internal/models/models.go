package models

import (
	"fmt"
	"strings"
	"time"
)

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RequestKind is the service type carried in the authority's "tipo" field.
type RequestKind string

const (
	KindTaxi     RequestKind = "taxi"
	KindDelivery RequestKind = "delivery"
	// The authority spells reservations "reserva" on the wire.
	KindReservation RequestKind = "reserva"
)

// Status values mirror the authority's "estado" field verbatim.
const (
	StatusPending    = "pendiente"
	StatusAccepted   = "aceptado"
	StatusArrived    = "esperando"
	StatusInProgress = "en viaje"
	StatusCancelled  = "cancelado"
	StatusRejected   = "rechazado"
	StatusFinished   = "finalizado"
)

// ServiceRequest is one incoming service request as tracked by this agent.
// Remaining only has meaning while the request is pending.
type ServiceRequest struct {
	ID                 int64       `json:"id_viaje"`
	Kind               RequestKind `json:"tipo"`
	RequesterName      string      `json:"nombre"`
	OriginAddress      string      `json:"direccion"`
	DestinationAddress string      `json:"direccion_fin"`
	Description        string      `json:"descripcion,omitempty"`
	ReservationDate    string      `json:"fecha_reserva,omitempty"`
	ReservationTime    string      `json:"hora_reserva,omitempty"`
	Status             string      `json:"estado"`
	Remaining          float64     `json:"remaining_seconds"`
	Origin             Coord       `json:"origin"`
	Destination        Coord       `json:"destination"`
	PaymentIntentID    string      `json:"payment_intent_id,omitempty"`
}

// ReservationLead is how far ahead of the reserved time a reservation
// stays offered to agents.
const ReservationLead = 2 * time.Hour

// ReservationAt parses the authority's fecha_reserva/hora_reserva pair.
// fecha_reserva may carry a full timestamp ("2024-05-01T00:00:00.000Z");
// only its date part matters. hora_reserva may carry a zone suffix after
// a dash ("14:30:00-05:00") which is discarded.
func ReservationAt(fecha, hora string) (time.Time, error) {
	datePart := fecha
	if i := strings.IndexByte(datePart, 'T'); i >= 0 {
		datePart = datePart[:i]
	}
	timePart := hora
	if i := strings.IndexByte(timePart, '-'); i >= 0 {
		timePart = timePart[:i]
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", datePart+" "+timePart, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reservation %q %q: %w", fecha, hora, err)
	}
	return t, nil
}

// ReservationWindow derives the pending countdown for a reservation:
// seconds until two hours before the reserved time, floored at zero.
func ReservationWindow(fecha, hora string, now time.Time) (float64, error) {
	at, err := ReservationAt(fecha, hora)
	if err != nil {
		return 0, err
	}
	remaining := at.Add(-ReservationLead).Sub(now).Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
