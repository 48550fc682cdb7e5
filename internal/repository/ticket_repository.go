package repository

import (
	"context"
	"time"

	"github.com/iliyamo/transit-booking/internal/model"
)

const ticketColumns = `booking_id, user_id, reference, payment_method, amount, status, issued_at, updated_at`

func scanTicket(row rowScanner) (model.Ticket, error) {
	var (
		t              model.Ticket
		method, status string
	)
	err := row.Scan(&t.BookingID, &t.UserID, &t.Reference, &method, &t.Amount, &status, &t.IssuedAt, &t.UpdatedAt)
	t.PaymentMethod = model.PaymentMethod(method)
	t.Status = model.BookingStatus(status)
	return t, err
}

func getTicket(ctx context.Context, q queryer, bookingID string) (model.Ticket, error) {
	t, err := scanTicket(q.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE booking_id = ?`, bookingID))
	if err != nil {
		return model.Ticket{}, notFound(err, ErrTicketNotFound)
	}
	return t, nil
}

// GetTicket returns the ticket of a booking or ErrTicketNotFound.
func (s *MySQLStore) GetTicket(ctx context.Context, bookingID string) (model.Ticket, error) {
	return getTicket(ctx, s.db, bookingID)
}

func (t *mysqlTx) GetTicket(ctx context.Context, bookingID string) (model.Ticket, error) {
	return getTicket(ctx, t.tx, bookingID)
}

// UpsertTicket is last-write-wins on booking_id.  issued_at keeps the
// first issue time.
func (t *mysqlTx) UpsertTicket(ctx context.Context, tk model.Ticket) error {
	issued := tk.IssuedAt
	if issued.IsZero() {
		issued = time.Now().UTC()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO tickets (booking_id, user_id, reference, payment_method, amount, status, issued_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE user_id = VALUES(user_id), reference = VALUES(reference),
		   payment_method = VALUES(payment_method), amount = VALUES(amount), status = VALUES(status)`,
		tk.BookingID, tk.UserID, tk.Reference, string(tk.PaymentMethod), tk.Amount, string(tk.Status),
		issued.Truncate(time.Second))
	return err
}

// CancelTickets marks the booking's ticket CANCELLED.  No ticket is fine.
func (t *mysqlTx) CancelTickets(ctx context.Context, bookingID string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE tickets SET status = ? WHERE booking_id = ?`, string(model.BookingCancelled), bookingID)
	return err
}
