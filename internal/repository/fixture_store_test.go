package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/transit-booking/internal/model"
)

func TestFixtureWithTxDiscardsWritesOnError(t *testing.T) {
	store := NewDemoFixtureStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.ClaimSeat(ctx, DemoTripID, "demo-trip-A1"); err != nil {
			return err
		}
		if _, err := tx.CreateBooking(ctx, "u1", "demo-trip-A1", "BK-00000001"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	seat, err := store.GetSeat(ctx, "demo-trip-A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, seat.Status)

	bookings, err := store.ListBookingDetails(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestFixtureClaimSeat(t *testing.T) {
	store := NewDemoFixtureStore()
	ctx := context.Background()

	claim := func(tripID, seatID string) error {
		return store.WithTx(ctx, func(tx Tx) error {
			_, err := tx.ClaimSeat(ctx, tripID, seatID)
			return err
		})
	}

	require.NoError(t, claim(DemoTripID, "demo-trip-B2"))
	assert.ErrorIs(t, claim(DemoTripID, "demo-trip-B2"), ErrSeatNotAvailable)
	assert.ErrorIs(t, claim("yangon-bagan-train", "demo-trip-B3"), ErrSeatNotFound)
	assert.ErrorIs(t, claim(DemoTripID, "demo-trip-Z9"), ErrSeatNotFound)
}

func TestFixtureSavepointRestoresOnlyInnerWrites(t *testing.T) {
	store := NewDemoFixtureStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.ClaimSeat(ctx, DemoTripID, "demo-trip-A2"); err != nil {
			return err
		}
		spErr := tx.Savepoint(ctx, "ticket_upsert", func() error {
			if err := tx.UpsertTicket(ctx, model.Ticket{BookingID: "b1", Reference: "BK-1"}); err != nil {
				return err
			}
			return errors.New("after write")
		})
		assert.Error(t, spErr)
		return nil
	})
	require.NoError(t, err)

	seat, _ := store.GetSeat(ctx, "demo-trip-A2")
	assert.Equal(t, model.SeatBooked, seat.Status)
	_, err = store.GetTicket(ctx, "b1")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestFixtureCreateBookingUniqueKeys(t *testing.T) {
	store := NewDemoFixtureStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Tx) error {
		_, err := tx.CreateBooking(ctx, "u1", "demo-trip-A3", "BK-00000001")
		require.NoError(t, err)

		_, err = tx.CreateBooking(ctx, "u2", "demo-trip-A3", "BK-00000002")
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = tx.CreateBooking(ctx, "u2", "demo-trip-A4", "BK-00000001")
		assert.ErrorIs(t, err, ErrDuplicateReference)
		return nil
	})
	require.NoError(t, err)
}

func TestFixtureUpsertTicketKeepsIssueTime(t *testing.T) {
	store := NewDemoFixtureStore()
	ctx := context.Background()
	first := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }

	upsert := func(status model.BookingStatus, amount int64) {
		require.NoError(t, store.WithTx(ctx, func(tx Tx) error {
			return tx.UpsertTicket(ctx, model.Ticket{BookingID: "b1", Reference: "BK-1", Status: status, Amount: amount})
		}))
	}
	upsert(model.BookingPending, 25000)
	store.now = func() time.Time { return first.Add(time.Hour) }
	upsert(model.BookingConfirmed, 26000)

	tk, err := store.GetTicket(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, tk.Status)
	assert.Equal(t, int64(26000), tk.Amount)
	assert.Equal(t, first, tk.IssuedAt)
}

func TestFixtureSearchTrips(t *testing.T) {
	store := NewDemoFixtureStore()
	ctx := context.Background()

	trips, err := store.SearchTrips(ctx, TripQuery{From: "yan"})
	require.NoError(t, err)
	assert.Len(t, trips, 3)

	trips, err = store.SearchTrips(ctx, TripQuery{To: "taunggyi"})
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "mandalay-taunggyi-bus", trips[0].ID)

	trips, err = store.SearchTrips(ctx, TripQuery{Date: time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, DemoTripID, trips[0].ID)
}

func TestFixtureListSeatsKeepsSeatMapOrder(t *testing.T) {
	store := NewDemoFixtureStore()

	seats, err := store.ListSeats(context.Background(), "yangon-bagan-train")
	require.NoError(t, err)
	require.Len(t, seats, 30)
	assert.Equal(t, "A1", seats[0].SeatNumber)
	assert.Equal(t, model.SeatBooked, seats[0].Status)
	assert.Equal(t, model.SeatUnavailable, seats[5].Status)

	_, err = store.ListSeats(context.Background(), "missing-trip")
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestFixtureVerificationTokens(t *testing.T) {
	store := NewDemoFixtureStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.StoreVerificationToken(ctx, "A@Example.com", "h1", now.Add(time.Hour)))

	assert.ErrorIs(t, store.ConsumeVerificationToken(ctx, "a@example.com", "other", now), ErrTokenInvalid)
	assert.NoError(t, store.ConsumeVerificationToken(ctx, "a@example.com", "h1", now))
	assert.ErrorIs(t, store.ConsumeVerificationToken(ctx, "a@example.com", "h1", now), ErrTokenInvalid)
}

func TestEnsureAdminCreatesOnce(t *testing.T) {
	s := NewDemoFixtureStore()
	ctx := context.Background()
	now := time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)

	created, err := EnsureAdmin(ctx, s, "ops@example.com", "Operations", "hash", now)
	require.NoError(t, err)
	assert.True(t, created)

	u, err := s.GetUserByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.True(t, u.Verified())

	created, err = EnsureAdmin(ctx, s, "OPS@example.com", "Operations", "other-hash", now)
	require.NoError(t, err)
	assert.False(t, created)
	u, err = s.GetUserByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)
}
