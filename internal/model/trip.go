package model

import (
	"fmt"
	"time"
)

// TransportType is the kind of vehicle that operates a trip.
type TransportType string

const (
	TransportBus   TransportType = "BUS"
	TransportTrain TransportType = "TRAIN"
)

// Route is the pair of locations a trip connects.
type Route struct {
	Start string `json:"start"` // routes.start_location
	End   string `json:"end"`   // routes.end_location
}

// Label renders the route the way it is printed on tickets and emails,
// e.g. "Yangon -> Mandalay".
func (r Route) Label() string {
	return fmt.Sprintf("%s -> %s", r.Start, r.End)
}

// Trip is a scheduled departure of one vehicle on one route.  The seat set
// of a trip is generated once from its Layout when the trip is created and
// never changes afterwards; only the seat statuses move.
//
// Fields:
//  ID            – primary key identifier (UUID or fixture slug).
//  Operator      – company running the vehicle.
//  Transport     – BUS or TRAIN.
//  Layout        – seat layout template used to generate the seats.
//  Route         – start and end locations.
//  DepartureTime – scheduled departure (UTC).
//  ArrivalTime   – scheduled arrival (UTC).
//  Price         – price of a single seat in kyats.
type Trip struct {
	ID            string        `json:"id"`             // trips.id
	Operator      string        `json:"operator"`       // trips.operator
	Transport     TransportType `json:"transport_type"` // trips.transport_type
	Layout        SeatLayout    `json:"seat_layout"`    // trips.seat_layout
	Route         Route         `json:"route"`          // trips.start_location / trips.end_location
	DepartureTime time.Time     `json:"departure_time"` // trips.departure_time
	ArrivalTime   time.Time     `json:"arrival_time"`   // trips.arrival_time
	Price         int64         `json:"price"`          // trips.price
}

// Summary is the one-line description used in booking emails.
func (t Trip) Summary() string {
	return fmt.Sprintf("%s at %s", t.Route.Label(), t.DepartureTime.UTC().Format("Jan 2, 15:04"))
}

// Duration is the scheduled travel time.  It is zero when the arrival time
// is unknown.
func (t Trip) Duration() time.Duration {
	if t.ArrivalTime.IsZero() || t.ArrivalTime.Before(t.DepartureTime) {
		return 0
	}
	return t.ArrivalTime.Sub(t.DepartureTime)
}
