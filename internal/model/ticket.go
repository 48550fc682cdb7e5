package model

import (
	"strings"
	"time"
)

// PaymentMethod is how the traveller intends to pay.  The method is only
// recorded; no payment is processed.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "CARD"
	PaymentKPay PaymentMethod = "KPAY"
	PaymentWave PaymentMethod = "WAVE"
)

// DefaultPaymentMethod is used when the client does not pick one.
const DefaultPaymentMethod = PaymentCard

// ParsePaymentMethod normalises user input.  An empty string yields the
// default method; anything unknown is rejected.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return DefaultPaymentMethod, true
	case PaymentCard:
		return PaymentCard, true
	case PaymentKPay:
		return PaymentKPay, true
	case PaymentWave:
		return PaymentWave, true
	}
	return "", false
}

// Ticket is the issued document for a booking.  It mirrors the booking's
// status on a best-effort basis and is never consulted to decide a seat or
// booking transition.
//
// Fields:
//  BookingID     – owning booking (unique).
//  UserID        – traveller.
//  Reference     – printed reference code (unique).
//  PaymentMethod – CARD, KPAY or WAVE.
//  Amount        – price in kyats.
//  Status        – mirrors the booking status.
//  IssuedAt      – first issue time.
//  UpdatedAt     – last refresh.
type Ticket struct {
	BookingID     string        `json:"booking_id"`     // tickets.booking_id
	UserID        string        `json:"user_id"`        // tickets.user_id
	Reference     string        `json:"reference"`      // tickets.reference
	PaymentMethod PaymentMethod `json:"payment_method"` // tickets.payment_method
	Amount        int64         `json:"amount"`         // tickets.amount
	Status        BookingStatus `json:"status"`         // tickets.status
	IssuedAt      time.Time     `json:"issued_at"`      // tickets.issued_at
	UpdatedAt     time.Time     `json:"updated_at"`     // tickets.updated_at
}
