package model

import "time"

// SeatStatus is the availability state of a single seat on a trip.
type SeatStatus string

const (
	SeatAvailable   SeatStatus = "AVAILABLE"
	SeatReserved    SeatStatus = "RESERVED"
	SeatBooked      SeatStatus = "BOOKED"
	SeatUnavailable SeatStatus = "UNAVAILABLE"
)

// Valid reports whether s is one of the known statuses.
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatAvailable, SeatReserved, SeatBooked, SeatUnavailable:
		return true
	}
	return false
}

// Seat describes one seat of a trip.  Seats are uniquely identified by
// their trip and seat number; the seat number is the row letter followed by
// the column number (A1, A2, ... B1).
//
// Fields:
//  ID         – primary key identifier.
//  TripID     – trip to which this seat belongs.
//  SeatNumber – human readable label.
//  Status     – AVAILABLE, RESERVED, BOOKED or UNAVAILABLE.
//  UpdatedAt  – last status change.
type Seat struct {
	ID         string     `json:"id"`          // seats.id
	TripID     string     `json:"trip_id"`     // seats.trip_id
	SeatNumber string     `json:"seat_number"` // seats.seat_number
	Status     SeatStatus `json:"status"`      // seats.status
	UpdatedAt  time.Time  `json:"-"`           // seats.updated_at
}
