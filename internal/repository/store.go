package repository

import (
	"context"
	"time"

	"github.com/iliyamo/transit-booking/internal/model"
)

// TripQuery filters the trip search.  From and To match case-insensitively
// anywhere in the location name; a zero Date matches every day.
type TripQuery struct {
	From string
	To   string
	Date time.Time
}

// TripReader is the read-only trip lookup.
type TripReader interface {
	GetTrip(ctx context.Context, id string) (model.Trip, error)
	SearchTrips(ctx context.Context, q TripQuery) ([]model.Trip, error)
	ListSeats(ctx context.Context, tripID string) ([]model.Seat, error)
}

// Store is the Trip/Booking repository.  All writes go through WithTx so
// that a seat transition and the matching booking change commit together.
type Store interface {
	TripReader

	// WithTx runs fn inside one transaction.  The transaction commits when
	// fn returns nil and rolls back otherwise; fn's error is returned
	// unchanged.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetBooking(ctx context.Context, id string) (model.Booking, error)
	GetSeat(ctx context.Context, id string) (model.Seat, error)
	GetTicket(ctx context.Context, bookingID string) (model.Ticket, error)
	ListBookingDetails(ctx context.Context, userID string) ([]model.BookingDetail, error)
	ListTripBookings(ctx context.Context, tripID string) ([]model.BookingDetail, error)
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]model.SeatHold, error)
}

// Tx is the transactional view of the Seat Store, the Booking Ledger, the
// ticket table and the seat holds.
type Tx interface {
	GetTrip(ctx context.Context, id string) (model.Trip, error)
	GetSeat(ctx context.Context, id string) (model.Seat, error)

	// ClaimSeat moves a seat of tripID from AVAILABLE to BOOKED with a
	// single conditional update.  It fails with ErrSeatNotFound when no such
	// seat exists on the trip and ErrSeatNotAvailable when the update
	// matched no row.
	ClaimSeat(ctx context.Context, tripID, seatID string) (model.Seat, error)
	// SwapSeatStatus is the general form of ClaimSeat: it moves the seat
	// from one status to another only if it is currently in from.
	SwapSeatStatus(ctx context.Context, tripID, seatID string, from, to model.SeatStatus) (model.Seat, error)
	// ReleaseSeat sets the seat AVAILABLE whatever its current status.
	ReleaseSeat(ctx context.Context, seatID string) (model.Seat, error)
	// MarkBooked sets the seat BOOKED whatever its current status.
	MarkBooked(ctx context.Context, seatID string) (model.Seat, error)

	// CreateBooking inserts a PENDING booking.
	CreateBooking(ctx context.Context, userID, seatID, reference string) (model.Booking, error)
	// GetBooking loads a booking and locks it for the rest of the
	// transaction.
	GetBooking(ctx context.Context, id string) (model.Booking, error)
	SetBookingStatus(ctx context.Context, id string, status model.BookingStatus) (model.Booking, error)

	GetTicket(ctx context.Context, bookingID string) (model.Ticket, error)
	// UpsertTicket creates the ticket of t.BookingID or overwrites it.
	UpsertTicket(ctx context.Context, t model.Ticket) error
	CancelTickets(ctx context.Context, bookingID string) error

	GetHold(ctx context.Context, seatID string) (model.SeatHold, error)
	CreateHold(ctx context.Context, h model.SeatHold) error
	DeleteHold(ctx context.Context, seatID string) error

	// Savepoint runs fn so that, if it fails, only the writes fn made are
	// undone and the transaction stays usable.  fn's error is returned,
	// wrapped in ErrTxAborted when the savepoint could not be rolled back.
	Savepoint(ctx context.Context, name string, fn func() error) error
}

// Users persists accounts.
type Users interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	MarkEmailVerified(ctx context.Context, email string, at time.Time) error
}

// VerificationTokens persists hashed email verification tokens.
type VerificationTokens interface {
	StoreVerificationToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	// ConsumeVerificationToken deletes a matching, unexpired token.  It
	// fails with ErrTokenInvalid otherwise.
	ConsumeVerificationToken(ctx context.Context, email, tokenHash string, now time.Time) error
}

var (
	_ Store              = (*MySQLStore)(nil)
	_ Store              = (*FixtureStore)(nil)
	_ Users              = (*UserRepo)(nil)
	_ Users              = (*FixtureStore)(nil)
	_ VerificationTokens = (*TokenRepo)(nil)
	_ VerificationTokens = (*FixtureStore)(nil)
)
