package booking

import "errors"

// Errors returned by the Engine.  Handlers match them with errors.Is;
// ErrConfirmationFailed and ErrCancelFailed wrap the underlying cause.
var (
	ErrTripNotFound         = errors.New("trip not found")
	ErrSeatNotFound         = errors.New("seat not found")
	ErrSeatUnavailable      = errors.New("seat is no longer available")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrConfirmationFailed   = errors.New("unable to confirm booking")
	ErrCancelFailed         = errors.New("unable to cancel booking")
	ErrInvalidTransition    = errors.New("invalid booking status transition")
	ErrForbidden            = errors.New("booking belongs to another user")
	ErrHoldNotFound         = errors.New("seat hold not found")
	ErrInvalidPaymentMethod = errors.New("payment method must be CARD, KPAY or WAVE")
	ErrTripDeparted         = errors.New("trip already departed")
)
