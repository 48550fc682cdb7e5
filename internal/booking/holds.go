package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/model"
	"github.com/iliyamo/transit-booking/internal/repository"
)

// sweepBatch is the number of expired holds released per sweep.
const sweepBatch = 100

// HoldSeat reserves a seat for userID until the hold expires.  Holding a
// seat the caller already holds extends the hold; a lapsed hold of another
// user is taken over.
func (e *Engine) HoldSeat(ctx context.Context, tripID, seatID, userID string) (model.SeatHold, error) {
	token, err := repository.NewHoldToken()
	if err != nil {
		return model.SeatHold{}, err
	}
	now := e.now().UTC()
	h := model.SeatHold{
		SeatID:    seatID,
		TripID:    tripID,
		UserID:    userID,
		HoldToken: token,
		ExpiresAt: now.Add(e.holdTTL),
		CreatedAt: now,
	}

	err = e.store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetTrip(ctx, tripID); err != nil {
			return err
		}
		_, err := tx.SwapSeatStatus(ctx, tripID, seatID, model.SeatAvailable, model.SeatReserved)
		if errors.Is(err, repository.ErrSeatNotAvailable) {
			err = e.renewHold(ctx, tx, tripID, seatID, userID, now)
		}
		if err != nil {
			return err
		}
		return tx.CreateHold(ctx, h)
	})
	if err != nil {
		return model.SeatHold{}, translate(err)
	}
	e.log.Debug("seat held", zap.String("seat_id", seatID), zap.Time("expires_at", h.ExpiresAt))
	return h, nil
}

// renewHold accepts an existing hold on a RESERVED seat when it belongs to
// userID or has expired.
func (e *Engine) renewHold(ctx context.Context, tx repository.Tx, tripID, seatID, userID string, now time.Time) error {
	seat, err := tx.GetSeat(ctx, seatID)
	if err != nil {
		return err
	}
	if seat.Status != model.SeatReserved {
		return repository.ErrSeatNotAvailable
	}
	cur, err := tx.GetHold(ctx, seatID)
	if errors.Is(err, repository.ErrHoldNotFound) {
		// An orphaned RESERVED seat has no owner left to protect.
		return nil
	}
	if err != nil {
		return err
	}
	if cur.TripID != tripID || (cur.UserID != userID && !cur.Expired(now)) {
		return repository.ErrSeatNotAvailable
	}
	return nil
}

// ReleaseHold gives a held seat back.  Only the holder may release it.
func (e *Engine) ReleaseHold(ctx context.Context, tripID, seatID, userID string) error {
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		h, err := tx.GetHold(ctx, seatID)
		if err != nil {
			return err
		}
		if h.TripID != tripID {
			return repository.ErrHoldNotFound
		}
		if h.UserID != userID {
			return ErrForbidden
		}
		return e.releaseHold(ctx, tx, h)
	})
	return translate(err)
}

// ReleaseExpiredHolds frees the seats of every hold that expired at now and
// returns how many were released.  Holds renewed or claimed in the meantime
// are left alone.
func (e *Engine) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int, error) {
	released := 0
	for {
		holds, err := e.store.ListExpiredHolds(ctx, now, sweepBatch)
		if err != nil {
			return released, err
		}
		batch := 0
		for _, candidate := range holds {
			err := e.store.WithTx(ctx, func(tx repository.Tx) error {
				h, err := tx.GetHold(ctx, candidate.SeatID)
				if err != nil {
					return err
				}
				if !h.Expired(now) {
					return repository.ErrHoldNotFound
				}
				return e.releaseHold(ctx, tx, h)
			})
			switch {
			case err == nil:
				batch++
			case errors.Is(err, repository.ErrHoldNotFound):
			default:
				return released + batch, err
			}
		}
		released += batch
		if len(holds) < sweepBatch || batch == 0 {
			return released, nil
		}
	}
}

func (e *Engine) releaseHold(ctx context.Context, tx repository.Tx, h model.SeatHold) error {
	_, err := tx.SwapSeatStatus(ctx, h.TripID, h.SeatID, model.SeatReserved, model.SeatAvailable)
	if err != nil && !errors.Is(err, repository.ErrSeatNotAvailable) {
		return err
	}
	return tx.DeleteHold(ctx, h.SeatID)
}
