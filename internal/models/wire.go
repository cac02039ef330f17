package models

// Wire shapes mirror the remote authority's JSON field names, Spanish
// spellings included. The assigned payload's origin longitude really is
// "longitudes" upstream; do not "fix" it here.

// RequestEvent is the payload of taxiRequest / deliveryRequest /
// reservationRequest push events. Taxi and delivery events carry their
// addresses as address/endAddress; reservation events carry
// direccion/direccion_fin instead, so both key pairs are decoded.
type RequestEvent struct {
	TripID             int64  `json:"viajeId"`
	RequesterName      string `json:"nombre"`
	OriginAddress      string `json:"address"`
	DestinationAddress string `json:"endAddress"`
	Direccion          string `json:"direccion"`
	DireccionFin       string `json:"direccion_fin"`
	Description        string `json:"descripcion"`
	ReservationDate    string `json:"fecha_reserva"`
	ReservationTime    string `json:"hora_reserva"`
}

// Origin returns the origin address regardless of which key pair the
// event arrived with.
func (e RequestEvent) Origin() string {
	if e.OriginAddress != "" {
		return e.OriginAddress
	}
	return e.Direccion
}

// Destination returns the destination address regardless of which key
// pair the event arrived with.
func (e RequestEvent) Destination() string {
	if e.DestinationAddress != "" {
		return e.DestinationAddress
	}
	return e.DireccionFin
}

// ClaimedEvent is the payload of *RequestAccepted push events, emitted
// when any agent (possibly another one) claims a pending request.
type ClaimedEvent struct {
	TripID int64 `json:"id_viaje"`
}

// AssignedPayload is both the assigned* push event payload and one row
// of GET /geolocation/accepted-requests.
type AssignedPayload struct {
	TripID             int64       `json:"id_viaje"`
	Kind               RequestKind `json:"tipo"`
	Status             string      `json:"estado"`
	RequesterName      string      `json:"nombre"`
	OriginAddress      string      `json:"direccion"`
	DestinationAddress string      `json:"direccion_fin"`
	Description        string      `json:"descripcion"`
	ReservationDate    string      `json:"fecha_reserva"`
	ReservationTime    string      `json:"hora_reserva"`
	OriginLat          *float64    `json:"latitud"`
	OriginLng          *float64    `json:"longitudes"`
	DestinationLat     *float64    `json:"latitud_fin"`
	DestinationLng     *float64    `json:"longitud_fin"`
	PaymentIntentID    string      `json:"payment_intent_id"`
}

// Complete reports whether both endpoint coordinates are present.
// Assignments missing either end are malformed and must be dropped.
func (p AssignedPayload) Complete() bool {
	return p.OriginLat != nil && p.OriginLng != nil && p.DestinationLat != nil && p.DestinationLng != nil
}

// Request converts a complete assigned payload into a ServiceRequest.
func (p AssignedPayload) Request() ServiceRequest {
	r := ServiceRequest{
		ID:                 p.TripID,
		Kind:               p.Kind,
		Status:             p.Status,
		RequesterName:      p.RequesterName,
		OriginAddress:      p.OriginAddress,
		DestinationAddress: p.DestinationAddress,
		Description:        p.Description,
		ReservationDate:    p.ReservationDate,
		ReservationTime:    p.ReservationTime,
		PaymentIntentID:    p.PaymentIntentID,
	}
	if p.OriginLat != nil && p.OriginLng != nil {
		r.Origin = Coord{Lat: *p.OriginLat, Lng: *p.OriginLng}
	}
	if p.DestinationLat != nil && p.DestinationLng != nil {
		r.Destination = Coord{Lat: *p.DestinationLat, Lng: *p.DestinationLng}
	}
	return r
}

// PendingRow is one row of GET /geolocation/pending-reservations.
type PendingRow struct {
	TripID             int64       `json:"id_viaje"`
	Kind               RequestKind `json:"tipo"`
	RequesterName      string      `json:"nombre"`
	OriginAddress      string      `json:"direccion"`
	DestinationAddress string      `json:"direccion_fin"`
	Description        string      `json:"descripcion"`
	ReservationDate    string      `json:"fecha_reserva"`
	ReservationTime    string      `json:"hora_reserva"`
}
