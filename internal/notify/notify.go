// Package notify is the Notification Gateway: it renders the booking and
// verification emails and hands them to a delivery channel.  Sending never
// returns an error; the outcome is reported as a Result so that callers can
// log it and carry on.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/transit-booking/internal/queue"
)

// Result is the outcome of a send.  Error is empty on success.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() Result { return Result{Success: true} }

func failed(msg string) Result { return Result{Error: msg} }

// BookingEmail is the input of the booking confirmation email.
type BookingEmail struct {
	To          string
	SeatLabel   string
	TripSummary string
	Reference   string
}

// VerificationEmail is the input of the address verification email.
type VerificationEmail struct {
	To        string
	VerifyURL string
}

// Gateway sends the transactional emails.
type Gateway interface {
	SendBookingEmail(ctx context.Context, in BookingEmail) Result
	SendVerificationEmail(ctx context.Context, in VerificationEmail) Result
}

// Mailer delivers a rendered message.
type Mailer interface {
	Deliver(ctx context.Context, msg queue.EmailMessage) error
}

// BookingMessage renders the booking confirmation email.
func BookingMessage(in BookingEmail) queue.EmailMessage {
	return queue.EmailMessage{
		Kind:    queue.EmailBooking,
		To:      in.To,
		Subject: "Booking confirmation " + in.Reference,
		Text: fmt.Sprintf("Your seat %s is confirmed for %s. Reference: %s.",
			in.SeatLabel, in.TripSummary, in.Reference),
		Reference: in.Reference,
		CreatedAt: time.Now().UTC(),
	}
}

// VerificationMessage renders the address verification email.
func VerificationMessage(in VerificationEmail) queue.EmailMessage {
	return queue.EmailMessage{
		Kind:      queue.EmailVerification,
		To:        in.To,
		Subject:   "Verify your email for Myanmar Transit",
		Text:      "Welcome! Please verify your email by opening this link: " + in.VerifyURL,
		CreatedAt: time.Now().UTC(),
	}
}
