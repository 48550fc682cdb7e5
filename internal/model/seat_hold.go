package model

import "time"

// SeatHold represents a temporary hold on a seat while the traveller is
// choosing a payment method.  The held seat is RESERVED; once ExpiresAt has
// passed the hold no longer protects it and the sweeper releases it.
//
// Fields:
//  SeatID    – seat being held (unique: one hold per seat).
//  TripID    – trip of the seat.
//  UserID    – user who holds the seat.
//  HoldToken – opaque token returned to the client.
//  ExpiresAt – when the hold expires (UTC).
//  CreatedAt – when the hold was created.
type SeatHold struct {
	SeatID    string    `json:"seat_id"`    // seat_holds.seat_id
	TripID    string    `json:"trip_id"`    // seat_holds.trip_id
	UserID    string    `json:"user_id"`    // seat_holds.user_id
	HoldToken string    `json:"hold_token"` // seat_holds.hold_token
	ExpiresAt time.Time `json:"expires_at"` // seat_holds.expires_at
	CreatedAt time.Time `json:"created_at"` // seat_holds.created_at
}

// Expired reports whether the hold has lapsed at now.
func (h SeatHold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
