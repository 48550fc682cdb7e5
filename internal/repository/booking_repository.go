package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/transit-booking/internal/model"
)

const bookingColumns = `id, user_id, seat_id, reference, status, created_at, updated_at`

func scanBooking(row rowScanner) (model.Booking, error) {
	var (
		b      model.Booking
		status string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.SeatID, &b.Reference, &status, &b.CreatedAt, &b.UpdatedAt)
	b.Status = model.BookingStatus(status)
	return b, err
}

// GetBooking returns the booking or ErrBookingNotFound.
func (s *MySQLStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return model.Booking{}, notFound(err, ErrBookingNotFound)
	}
	return b, nil
}

// GetBooking locks the row so that a concurrent confirm and cancel of the
// same booking serialise.
func (t *mysqlTx) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(t.tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		return model.Booking{}, notFound(err, ErrBookingNotFound)
	}
	return b, nil
}

// CreateBooking inserts a PENDING booking.  The unique index on the active
// seat turns a second live booking for the same seat into ErrDuplicate.
func (t *mysqlTx) CreateBooking(ctx context.Context, userID, seatID, reference string) (model.Booking, error) {
	now := time.Now().UTC().Truncate(time.Second)
	b := model.Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		SeatID:    seatID,
		Reference: reference,
		Status:    model.BookingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, seat_id, reference, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.SeatID, b.Reference, string(b.Status), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return model.Booking{}, mapBookingInsertErr(err)
	}
	return b, nil
}

// SetBookingStatus overwrites the status.  The ledger does not check the
// transition; the caller does.
func (t *mysqlTx) SetBookingStatus(ctx context.Context, id string, status model.BookingStatus) (model.Booking, error) {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, string(status), id); err != nil {
		return model.Booking{}, mapBookingInsertErr(fmt.Errorf("set booking status: %w", err))
	}
	return t.GetBooking(ctx, id)
}

// ListBookingDetails returns a user's bookings, newest first, joined with
// trip, seat and ticket data.
func (s *MySQLStore) ListBookingDetails(ctx context.Context, userID string) ([]model.BookingDetail, error) {
	return s.listBookingDetails(ctx, "b.user_id = ?", userID)
}

// ListTripBookings returns every booking on a trip, newest first.
func (s *MySQLStore) ListTripBookings(ctx context.Context, tripID string) ([]model.BookingDetail, error) {
	return s.listBookingDetails(ctx, "s.trip_id = ?", tripID)
}

func (s *MySQLStore) listBookingDetails(ctx context.Context, where string, arg any) ([]model.BookingDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.seat_id, b.reference, b.status, b.created_at, b.updated_at,
		       s.trip_id, s.seat_number,
		       t.start_location, t.end_location, t.transport_type, t.departure_time,
		       COALESCE(tk.amount, t.price), COALESCE(tk.payment_method, ''), COALESCE(tk.status, '')
		FROM bookings b
		JOIN seats s ON s.id = b.seat_id
		JOIN trips t ON t.id = s.trip_id
		LEFT JOIN tickets tk ON tk.booking_id = b.id
		WHERE `+where+`
		ORDER BY b.created_at DESC, b.id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BookingDetail{}
	for rows.Next() {
		var (
			d                                   model.BookingDetail
			status, transport, method, tkStatus string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.SeatID, &d.Reference, &status, &d.CreatedAt, &d.UpdatedAt,
			&d.TripID, &d.SeatNumber, &d.Route.Start, &d.Route.End, &transport, &d.DepartureTime,
			&d.Amount, &method, &tkStatus); err != nil {
			return nil, err
		}
		d.Status = model.BookingStatus(status)
		d.Transport = model.TransportType(transport)
		d.PaymentMethod = model.PaymentMethod(method)
		d.TicketStatus = model.BookingStatus(tkStatus)
		out = append(out, d)
	}
	return out, rows.Err()
}
