package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/transit-booking/internal/model"
)

const tripColumns = `id, operator, transport_type, seat_layout, start_location, end_location,
	departure_time, arrival_time, price`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (model.Trip, error) {
	var (
		t         model.Trip
		transport string
		layout    string
	)
	err := row.Scan(&t.ID, &t.Operator, &transport, &layout, &t.Route.Start, &t.Route.End,
		&t.DepartureTime, &t.ArrivalTime, &t.Price)
	t.Transport = model.TransportType(transport)
	t.Layout = model.SeatLayout(layout)
	return t, err
}

func getTrip(ctx context.Context, q queryer, id string) (model.Trip, error) {
	row := q.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	t, err := scanTrip(row)
	if err != nil {
		return model.Trip{}, notFound(err, ErrTripNotFound)
	}
	return t, nil
}

// GetTrip returns the trip or ErrTripNotFound.
func (s *MySQLStore) GetTrip(ctx context.Context, id string) (model.Trip, error) {
	return getTrip(ctx, s.db, id)
}

func (t *mysqlTx) GetTrip(ctx context.Context, id string) (model.Trip, error) {
	return getTrip(ctx, t.tx, id)
}

// SearchTrips lists trips ordered by departure.
func (s *MySQLStore) SearchTrips(ctx context.Context, q TripQuery) ([]model.Trip, error) {
	where := []string{}
	args := []any{}
	if from := strings.TrimSpace(q.From); from != "" {
		where = append(where, "LOWER(start_location) LIKE ?")
		args = append(args, "%"+strings.ToLower(from)+"%")
	}
	if to := strings.TrimSpace(q.To); to != "" {
		where = append(where, "LOWER(end_location) LIKE ?")
		args = append(args, "%"+strings.ToLower(to)+"%")
	}
	if !q.Date.IsZero() {
		where = append(where, "DATE(departure_time) = ?")
		args = append(args, q.Date.UTC().Format("2006-01-02"))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE `+cond+` ORDER BY departure_time, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []model.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// ListSeats returns the seats of a trip in seat-map order.  An unknown trip
// yields ErrTripNotFound rather than an empty list.
func (s *MySQLStore) ListSeats(ctx context.Context, tripID string) ([]model.Seat, error) {
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, seat_number, status, updated_at FROM seats
		 WHERE trip_id = ? ORDER BY LENGTH(seat_number), seat_number`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := []model.Seat{}
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

// UpsertTrip inserts or refreshes a trip and creates its seat set from the
// layout.  Existing seats keep their status.  Used by the seeder.
func (s *MySQLStore) UpsertTrip(ctx context.Context, t model.Trip) error {
	return s.withSQLTx(ctx, func(sqlTx *sql.Tx) error {
		_, err := sqlTx.ExecContext(ctx,
			`INSERT INTO trips (`+tripColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE operator = VALUES(operator), transport_type = VALUES(transport_type),
			   seat_layout = VALUES(seat_layout), start_location = VALUES(start_location),
			   end_location = VALUES(end_location), departure_time = VALUES(departure_time),
			   arrival_time = VALUES(arrival_time), price = VALUES(price)`,
			t.ID, t.Operator, string(t.Transport), string(t.Layout), t.Route.Start, t.Route.End,
			t.DepartureTime.UTC(), t.ArrivalTime.UTC(), t.Price)
		if err != nil {
			return err
		}

		seats := t.Layout.Seats(t.ID)
		query := `INSERT IGNORE INTO seats (id, trip_id, seat_number, status) VALUES `
		args := make([]any, 0, len(seats)*4)
		for i, seat := range seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?)"
			args = append(args, seat.ID, seat.TripID, seat.SeatNumber, string(seat.Status))
		}
		_, err = sqlTx.ExecContext(ctx, query, args...)
		return err
	})
}
