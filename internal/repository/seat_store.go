package repository

import (
	"context"
	"fmt"

	"github.com/iliyamo/transit-booking/internal/model"
)

const seatColumns = `id, trip_id, seat_number, status, updated_at`

func scanSeat(row rowScanner) (model.Seat, error) {
	var (
		s      model.Seat
		status string
	)
	err := row.Scan(&s.ID, &s.TripID, &s.SeatNumber, &status, &s.UpdatedAt)
	s.Status = model.SeatStatus(status)
	return s, err
}

func getSeat(ctx context.Context, q queryer, id string) (model.Seat, error) {
	s, err := scanSeat(q.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = ?`, id))
	if err != nil {
		return model.Seat{}, notFound(err, ErrSeatNotFound)
	}
	return s, nil
}

// GetSeat returns the seat or ErrSeatNotFound.
func (s *MySQLStore) GetSeat(ctx context.Context, id string) (model.Seat, error) {
	return getSeat(ctx, s.db, id)
}

func (t *mysqlTx) GetSeat(ctx context.Context, id string) (model.Seat, error) {
	return getSeat(ctx, t.tx, id)
}

func (t *mysqlTx) ClaimSeat(ctx context.Context, tripID, seatID string) (model.Seat, error) {
	return t.SwapSeatStatus(ctx, tripID, seatID, model.SeatAvailable, model.SeatBooked)
}

// SwapSeatStatus is a compare-and-swap on seats.status.  The affected row
// count decides the outcome; the follow-up read only tells a missing seat
// apart from one in another status.
func (t *mysqlTx) SwapSeatStatus(ctx context.Context, tripID, seatID string, from, to model.SeatStatus) (model.Seat, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE seats SET status = ? WHERE id = ? AND trip_id = ? AND status = ?`,
		string(to), seatID, tripID, string(from))
	if err != nil {
		return model.Seat{}, fmt.Errorf("swap seat status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Seat{}, fmt.Errorf("swap seat status: %w", err)
	}
	if n == 0 {
		var exists int
		err := t.tx.QueryRowContext(ctx,
			`SELECT 1 FROM seats WHERE id = ? AND trip_id = ?`, seatID, tripID).Scan(&exists)
		if err != nil {
			return model.Seat{}, notFound(err, ErrSeatNotFound)
		}
		return model.Seat{}, ErrSeatNotAvailable
	}
	return getSeat(ctx, t.tx, seatID)
}

func (t *mysqlTx) ReleaseSeat(ctx context.Context, seatID string) (model.Seat, error) {
	return t.forceSeatStatus(ctx, seatID, model.SeatAvailable)
}

func (t *mysqlTx) MarkBooked(ctx context.Context, seatID string) (model.Seat, error) {
	return t.forceSeatStatus(ctx, seatID, model.SeatBooked)
}

// forceSeatStatus is unconditional and therefore idempotent.  A zero row
// count is not an error here: MySQL reports 0 when the status was already
// the target, so existence is checked by the read that follows.
func (t *mysqlTx) forceSeatStatus(ctx context.Context, seatID string, status model.SeatStatus) (model.Seat, error) {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE seats SET status = ? WHERE id = ?`, string(status), seatID); err != nil {
		return model.Seat{}, fmt.Errorf("set seat %s: %w", status, err)
	}
	return getSeat(ctx, t.tx, seatID)
}
