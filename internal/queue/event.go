// Package queue defines the messages exchanged over RabbitMQ and the
// publisher and consumer used by the API server and the notifier worker.
package queue

import "time"

// Queue names.  Both queues are durable.
const (
	EmailQueue         = "transit.email"
	BookingEventsQueue = "booking.events"
)

// Email kinds.
const (
	EmailBooking      = "booking"
	EmailVerification = "verification"
)

// EmailMessage is a rendered email waiting to be delivered by the notifier.
type EmailMessage struct {
	Kind      string    `json:"kind"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	HTML      string    `json:"html,omitempty"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Booking lifecycle event types.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking transaction commits.  It
// carries enough information for downstream consumers to log or run
// analytics without querying the primary database.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	Reference  string    `json:"reference"`
	UserID     string    `json:"user_id"`
	TripID     string    `json:"trip_id,omitempty"`
	SeatID     string    `json:"seat_id"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
