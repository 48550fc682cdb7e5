package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/transit-booking/internal/model"
	"github.com/iliyamo/transit-booking/internal/repository"
)

func TestTripBookingsListsOnlyThatTrip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := f.user(t, "mya@example.com")
	first := f.book(t, userID, "demo-trip-A1")
	second := f.book(t, userID, "demo-trip-A2")
	_, err := f.engine.CreateBooking(ctx, CreateRequest{TripID: "yangon-mandalay-bus", SeatID: "yangon-mandalay-bus-A2", UserID: userID})
	require.NoError(t, err)

	got, err := f.engine.TripBookings(ctx, repository.DemoTripID)
	require.NoError(t, err)
	ids := []string{}
	for _, d := range got {
		assert.Equal(t, repository.DemoTripID, d.TripID)
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{first.BookingID, second.BookingID}, ids)

	_, err = f.engine.TripBookings(ctx, "nowhere")
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestOperatorCancelBeforeDeparture(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res := f.book(t, f.user(t, "mya@example.com"), demoSeat)

	require.NoError(t, f.engine.OperatorCancel(ctx, res.BookingID))

	b, err := f.store.GetBooking(ctx, res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.Status)
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, demoSeat))

	assert.ErrorIs(t, f.engine.OperatorCancel(ctx, "missing"), ErrBookingNotFound)
}

func TestOperatorCancelAfterDepartureIsRefused(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res := f.book(t, f.user(t, "mya@example.com"), demoSeat)

	// The demo trip leaves on Dec 5 at 10:00 UTC.
	f.clock.Advance(30 * 24 * time.Hour)
	assert.ErrorIs(t, f.engine.OperatorCancel(ctx, res.BookingID), ErrTripDeparted)

	b, err := f.store.GetBooking(ctx, res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, model.SeatBooked, f.seatStatus(t, demoSeat))
}

func TestSetSeatInService(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	const seat = "demo-trip-B1"

	got, err := f.engine.SetSeatInService(ctx, repository.DemoTripID, seat, false)
	require.NoError(t, err)
	assert.Equal(t, model.SeatUnavailable, got.Status)

	_, err = f.engine.SetSeatInService(ctx, repository.DemoTripID, seat, false)
	require.NoError(t, err, "repeating the change succeeds")

	_, err = f.engine.CreateBooking(ctx, CreateRequest{TripID: repository.DemoTripID, SeatID: seat, UserID: f.user(t, "mya@example.com")})
	assert.ErrorIs(t, err, ErrSeatUnavailable)

	got, err = f.engine.SetSeatInService(ctx, repository.DemoTripID, seat, true)
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, got.Status)
}

func TestSetSeatInServiceLeavesBookedSeats(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.SetSeatInService(ctx, "yangon-mandalay-bus", bookedSeat, false)
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.Equal(t, model.SeatBooked, f.seatStatus(t, bookedSeat))

	_, err = f.engine.SetSeatInService(ctx, repository.DemoTripID, "demo-trip-Z9", true)
	assert.ErrorIs(t, err, ErrSeatNotFound)
}
