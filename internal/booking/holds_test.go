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

func (f *fixture) holdExists(t *testing.T, seatID string) bool {
	t.Helper()
	var found bool
	require.NoError(t, f.store.WithTx(context.Background(), func(tx repository.Tx) error {
		_, err := tx.GetHold(context.Background(), seatID)
		found = err == nil
		return nil
	}))
	return found
}

func TestHeldSeatIsOnlyClaimableByHolder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holder := f.user(t, "holder@example.com")
	other := f.user(t, "other@example.com")

	h, err := f.engine.HoldSeat(ctx, repository.DemoTripID, demoSeat, holder)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), h.ExpiresAt)
	assert.Equal(t, model.SeatReserved, f.seatStatus(t, demoSeat))

	_, err = f.engine.CreateBooking(ctx, CreateRequest{TripID: repository.DemoTripID, SeatID: demoSeat, UserID: other})
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	_, err = f.engine.HoldSeat(ctx, repository.DemoTripID, demoSeat, other)
	assert.ErrorIs(t, err, ErrSeatUnavailable)

	f.book(t, holder, demoSeat)
	assert.Equal(t, model.SeatBooked, f.seatStatus(t, demoSeat))
	assert.False(t, f.holdExists(t, demoSeat))
}

func TestHoldingAgainExtendsHold(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holder := f.user(t, "holder@example.com")

	_, err := f.engine.HoldSeat(ctx, repository.DemoTripID, demoSeat, holder)
	require.NoError(t, err)
	f.clock.Advance(4 * time.Minute)
	h, err := f.engine.HoldSeat(ctx, repository.DemoTripID, demoSeat, holder)
	require.NoError(t, err)

	assert.Equal(t, f.clock.Now().Add(5*time.Minute), h.ExpiresAt)
}

func TestExpiredHoldCanBeClaimedByAnyone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holder := f.user(t, "holder@example.com")
	other := f.user(t, "other@example.com")

	_, err := f.engine.HoldSeat(ctx, repository.DemoTripID, demoSeat, holder)
	require.NoError(t, err)
	f.clock.Advance(6 * time.Minute)

	f.book(t, other, demoSeat)
	assert.False(t, f.holdExists(t, demoSeat))
}

func TestReleaseHold(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holder := f.user(t, "holder@example.com")

	_, err := f.engine.HoldSeat(ctx, repository.DemoTripID, demoSeat, holder)
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.ReleaseHold(ctx, repository.DemoTripID, demoSeat, "someone-else"), ErrForbidden)
	assert.ErrorIs(t, f.engine.ReleaseHold(ctx, "yangon-bagan-train", demoSeat, holder), ErrHoldNotFound)

	require.NoError(t, f.engine.ReleaseHold(ctx, repository.DemoTripID, demoSeat, holder))
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, demoSeat))
	assert.ErrorIs(t, f.engine.ReleaseHold(ctx, repository.DemoTripID, demoSeat, holder), ErrHoldNotFound)
}

func TestReleaseExpiredHolds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u := f.user(t, "holder@example.com")

	_, err := f.engine.HoldSeat(ctx, repository.DemoTripID, demoSeat, u)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)
	_, err = f.engine.HoldSeat(ctx, repository.DemoTripID, repository.DemoTripID+"-A2", u)
	require.NoError(t, err)

	f.clock.Advance(4 * time.Minute)
	n, err := f.engine.ReleaseExpiredHolds(ctx, f.clock.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, demoSeat))
	assert.Equal(t, model.SeatReserved, f.seatStatus(t, repository.DemoTripID+"-A2"))
}

func TestSweeperReleasesExpiredHolds(t *testing.T) {
	f := newFixture(t, nil)
	u := f.user(t, "holder@example.com")

	_, err := f.engine.HoldSeat(context.Background(), repository.DemoTripID, demoSeat, u)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewSweeper(f.engine, 10*time.Millisecond).Run(ctx) }()

	assert.Eventually(t, func() bool {
		return f.seatStatus(t, demoSeat) == model.SeatAvailable
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestReservedSeatWithoutHoldIsClaimable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.store.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.SwapSeatStatus(ctx, repository.DemoTripID, demoSeat, model.SeatAvailable, model.SeatReserved)
		return err
	}))

	res := f.book(t, f.user(t, "a@example.com"), demoSeat)

	assert.NotEmpty(t, res.Reference)
	assert.Equal(t, model.SeatBooked, f.seatStatus(t, demoSeat))
	assert.False(t, f.holdExists(t, demoSeat))
}
