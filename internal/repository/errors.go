// Package repository defines the Trip/Booking repository and its two
// implementations: MySQLStore, backed by the durable database, and
// FixtureStore, backed by a static in-memory dataset.  The sentinel errors
// below are the only errors callers are expected to match on; everything
// else is an infrastructure failure.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrSeatNotFound    = errors.New("seat not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrHoldNotFound    = errors.New("seat hold not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrSeatNotAvailable is returned by a conditional seat update that
	// matched no row: the seat exists but was not in the expected status.
	ErrSeatNotAvailable = errors.New("seat not in expected status")

	// ErrDuplicate is returned when an insert violates a unique key, such
	// as a second active booking for the same seat.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrDuplicateReference is returned when a booking reference collides
	// with an existing one.  The caller may retry with a new reference.
	ErrDuplicateReference = errors.New("duplicate booking reference")

	// ErrTxAborted is returned by Savepoint when the failed statement took
	// the whole transaction down with it (deadlock, lock wait timeout) and
	// the savepoint is gone.  Nothing written so far in the transaction
	// survives, so the caller must abort.
	ErrTxAborted = errors.New("transaction aborted by the server")

	ErrEmailExists  = errors.New("email already exists")
	ErrTokenInvalid = errors.New("verification token invalid or expired")
)

// mysqlDuplicateKey is the server error number for a unique key violation.
const mysqlDuplicateKey = 1062

// duplicateKey reports whether err is a unique key violation and returns the
// server message so the caller can tell which key was hit.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateKey {
		return me.Message, true
	}
	return "", false
}

// mapBookingInsertErr translates unique key violations on the bookings
// table.
func mapBookingInsertErr(err error) error {
	msg, ok := duplicateKey(err)
	if !ok {
		return err
	}
	if strings.Contains(msg, "reference") {
		return ErrDuplicateReference
	}
	return ErrDuplicate
}
