package booking

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/model"
	"github.com/iliyamo/transit-booking/internal/repository"
)

// Operator operations are not ownership-checked; callers gate them on the
// ADMIN role.

// TripBookings lists every booking on a trip, newest first.
func (e *Engine) TripBookings(ctx context.Context, tripID string) ([]model.BookingDetail, error) {
	if _, err := e.store.GetTrip(ctx, tripID); err != nil {
		return nil, translate(err)
	}
	return e.store.ListTripBookings(ctx, tripID)
}

// OperatorCancel cancels a booking on behalf of the operator.  Bookings on
// trips that have already departed are left alone.
func (e *Engine) OperatorCancel(ctx context.Context, bookingID string) error {
	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil {
		return translate(err)
	}
	seat, err := e.store.GetSeat(ctx, b.SeatID)
	if err != nil {
		return translate(err)
	}
	trip, err := e.store.GetTrip(ctx, seat.TripID)
	if err != nil {
		return translate(err)
	}
	if !trip.DepartureTime.After(e.now()) {
		return ErrTripDeparted
	}
	return e.CancelBooking(ctx, bookingID)
}

// SetSeatInService puts a seat on sale (AVAILABLE) or takes it out of sale
// (UNAVAILABLE).  Held and booked seats are not touched.  Repeating the
// same change succeeds.
func (e *Engine) SetSeatInService(ctx context.Context, tripID, seatID string, inService bool) (model.Seat, error) {
	from, to := model.SeatUnavailable, model.SeatAvailable
	if !inService {
		from, to = to, from
	}

	var seat model.Seat
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		seat, err = tx.SwapSeatStatus(ctx, tripID, seatID, from, to)
		if errors.Is(err, repository.ErrSeatNotAvailable) {
			cur, gerr := tx.GetSeat(ctx, seatID)
			if gerr == nil && cur.Status == to {
				seat = cur
				return nil
			}
		}
		return err
	})
	if err != nil {
		return model.Seat{}, translate(err)
	}
	e.log.Info("seat service status changed",
		zap.String("trip_id", tripID),
		zap.String("seat_id", seatID),
		zap.String("status", string(seat.Status)))
	return seat, nil
}
