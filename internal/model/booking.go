package model

import "time"

// BookingStatus is the payment lifecycle state of a booking.
type BookingStatus string

const (
	BookingReserved  BookingStatus = "RESERVED"
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// bookingTransitions lists the legal moves of the booking state machine.
// CONFIRMED is not terminal: a paid booking may still be cancelled.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingReserved:  {BookingPending, BookingConfirmed, BookingCancelled},
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled},
	BookingCancelled: nil,
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Re-entering the same status is not a transition and returns false.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether a booking in this status still holds its seat.
func (s BookingStatus) Active() bool {
	return s != BookingCancelled
}

// Booking records that a user owns one seat of a trip.  A booking is only
// created after its seat was claimed, and it keeps the seat until it is
// cancelled.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who booked.
//  SeatID    – the claimed seat.
//  Reference – human facing code (BK-########), also printed on the ticket.
//  Status    – PENDING, CONFIRMED or CANCELLED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last status change.
type Booking struct {
	ID        string        `json:"id"`         // bookings.id
	UserID    string        `json:"user_id"`    // bookings.user_id
	SeatID    string        `json:"seat_id"`    // bookings.seat_id
	Reference string        `json:"reference"`  // bookings.reference
	Status    BookingStatus `json:"status"`     // bookings.status
	CreatedAt time.Time     `json:"created_at"` // bookings.created_at
	UpdatedAt time.Time     `json:"updated_at"` // bookings.updated_at
}

// BookingDetail is a booking joined with the trip, seat and ticket data a
// traveller sees in their booking history.
type BookingDetail struct {
	Booking
	TripID        string        `json:"trip_id"`
	SeatNumber    string        `json:"seat_number"`
	Route         Route         `json:"route"`
	Transport     TransportType `json:"transport_type"`
	DepartureTime time.Time     `json:"departure_time"`
	Amount        int64         `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	TicketStatus  BookingStatus `json:"ticket_status,omitempty"`
}
