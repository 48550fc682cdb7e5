// Package ticket maintains the ticket projection of a booking and renders
// it as a PDF.  Ticket writes are best-effort: the Issuer logs failures and
// does not report them, so a broken ticket table cannot change the outcome
// of a booking, confirmation or cancellation.  The one exception is a
// transaction the server has already aborted.
package ticket

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/logger"
	"github.com/iliyamo/transit-booking/internal/model"
	"github.com/iliyamo/transit-booking/internal/repository"
)

// Issuer performs the best-effort ticket side-writes inside a booking
// transaction.
type Issuer struct {
	log *zap.Logger
}

// NewIssuer returns an Issuer logging to log, or to the global logger when
// log is nil.
func NewIssuer(log *zap.Logger) *Issuer {
	if log == nil {
		log = logger.Get()
	}
	return &Issuer{log: log.Named("ticket")}
}

// Upsert creates or refreshes the ticket of t.BookingID, last write wins.
// The write runs under a savepoint so that a failure is rolled back on its
// own and tx stays usable.  The returned error is non-nil only when tx was
// lost (repository.ErrTxAborted).
func (i *Issuer) Upsert(ctx context.Context, tx repository.Tx, t model.Ticket) error {
	if t.PaymentMethod == "" {
		t.PaymentMethod = model.DefaultPaymentMethod
	}
	err := tx.Savepoint(ctx, "ticket_upsert", func() error {
		return tx.UpsertTicket(ctx, t)
	})
	if err != nil {
		i.log.Warn("ticket upsert skipped",
			zap.String("booking_id", t.BookingID),
			zap.String("status", string(t.Status)),
			zap.Error(err))
	}
	return aborted(err)
}

// Cancel marks the booking's ticket CANCELLED, if there is one.  Like
// Upsert it only fails when tx was lost.
func (i *Issuer) Cancel(ctx context.Context, tx repository.Tx, bookingID string) error {
	err := tx.Savepoint(ctx, "ticket_cancel", func() error {
		return tx.CancelTickets(ctx, bookingID)
	})
	if err != nil {
		i.log.Warn("ticket cancel skipped", zap.String("booking_id", bookingID), zap.Error(err))
	}
	return aborted(err)
}

func aborted(err error) error {
	if errors.Is(err, repository.ErrTxAborted) {
		return err
	}
	return nil
}
