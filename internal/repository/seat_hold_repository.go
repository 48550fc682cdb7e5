package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/iliyamo/transit-booking/internal/model"
)

const holdColumns = `seat_id, trip_id, user_id, hold_token, expires_at, created_at`

func scanHold(row rowScanner) (model.SeatHold, error) {
	var h model.SeatHold
	err := row.Scan(&h.SeatID, &h.TripID, &h.UserID, &h.HoldToken, &h.ExpiresAt, &h.CreatedAt)
	return h, err
}

// NewHoldToken generates the opaque token returned to the client for a
// hold: 32 random bytes, hex encoded.
func NewHoldToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (t *mysqlTx) GetHold(ctx context.Context, seatID string) (model.SeatHold, error) {
	h, err := scanHold(t.tx.QueryRowContext(ctx,
		`SELECT `+holdColumns+` FROM seat_holds WHERE seat_id = ? FOR UPDATE`, seatID))
	if err != nil {
		return model.SeatHold{}, notFound(err, ErrHoldNotFound)
	}
	return h, nil
}

// CreateHold inserts the hold row.  The seat must already have been moved
// to RESERVED in the same transaction; a leftover row for the seat (e.g.
// from a crash between sweeps) is replaced.
func (t *mysqlTx) CreateHold(ctx context.Context, h model.SeatHold) error {
	created := h.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := t.tx.ExecContext(ctx,
		`REPLACE INTO seat_holds (`+holdColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		h.SeatID, h.TripID, h.UserID, h.HoldToken,
		h.ExpiresAt.UTC().Truncate(time.Second), created.UTC().Truncate(time.Second))
	return err
}

func (t *mysqlTx) DeleteHold(ctx context.Context, seatID string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM seat_holds WHERE seat_id = ?`, seatID)
	return err
}

// ListExpiredHolds returns up to limit holds whose expires_at is at or
// before now, oldest first.
func (s *MySQLStore) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]model.SeatHold, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+holdColumns+` FROM seat_holds WHERE expires_at <= ? ORDER BY expires_at LIMIT ?`,
		now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holds := []model.SeatHold{}
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}
