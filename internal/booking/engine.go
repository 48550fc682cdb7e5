// Package booking is the seat-booking engine.  It claims seats, moves
// bookings through their payment lifecycle and keeps seat, booking and
// ticket state consistent: every operation runs in one store transaction,
// and ticket writes, emails and lifecycle events can fail without changing
// the outcome.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/logger"
	"github.com/iliyamo/transit-booking/internal/model"
	"github.com/iliyamo/transit-booking/internal/notify"
	"github.com/iliyamo/transit-booking/internal/queue"
	"github.com/iliyamo/transit-booking/internal/repository"
	"github.com/iliyamo/transit-booking/internal/ticket"
)

// maxReferenceAttempts bounds the retries on a booking reference collision.
const maxReferenceAttempts = 3

// Users resolves the email address and name of a traveller.
type Users interface {
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// Config tunes the Engine.  Zero values select the defaults.
type Config struct {
	HoldTTL       time.Duration    // default 5m
	NotifyTimeout time.Duration    // default 10s
	Now           func() time.Time // default time.Now
}

// Engine implements the booking operations on top of a repository.Store.
// It holds no locks of its own: double booking is prevented by the store's
// conditional seat update and the unique active-seat key.
type Engine struct {
	store   repository.Store
	issuer  *ticket.Issuer
	gateway notify.Gateway
	events  notify.Events
	users   Users

	holdTTL       time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	newReference  func() (string, error)

	log *zap.Logger
	wg  sync.WaitGroup
}

// NewEngine wires an Engine.  gateway, events and users may be nil, in
// which case the corresponding post-commit step is skipped.
func NewEngine(store repository.Store, issuer *ticket.Issuer, gateway notify.Gateway, events notify.Events, users Users, cfg *Config) *Engine {
	e := &Engine{
		store:         store,
		issuer:        issuer,
		gateway:       gateway,
		events:        events,
		users:         users,
		holdTTL:       5 * time.Minute,
		notifyTimeout: 10 * time.Second,
		now:           time.Now,
		newReference:  ticket.NewReference,
		log:           logger.Get().Named("booking"),
	}
	if cfg != nil {
		if cfg.HoldTTL > 0 {
			e.holdTTL = cfg.HoldTTL
		}
		if cfg.NotifyTimeout > 0 {
			e.notifyTimeout = cfg.NotifyTimeout
		}
		if cfg.Now != nil {
			e.now = cfg.Now
		}
	}
	if e.issuer == nil {
		e.issuer = ticket.NewIssuer(e.log)
	}
	if e.events == nil {
		e.events = notify.LogEvents{}
	}
	return e
}

// Now returns the engine clock.
func (e *Engine) Now() time.Time { return e.now() }

// Wait blocks until every in-flight notification has finished.
func (e *Engine) Wait() { e.wg.Wait() }

// CreateRequest asks for one seat of a trip.
type CreateRequest struct {
	TripID        string
	SeatID        string
	UserID        string
	PaymentMethod string // optional, CARD when empty
}

// Result identifies a new booking.
type Result struct {
	BookingID string `json:"booking_id"`
	Reference string `json:"reference"`
}

// CreateBooking claims the seat and records a PENDING booking together with
// its ticket.  When the claim fails nothing is written.  The confirmation
// email goes out after commit and its outcome never affects the result.
func (e *Engine) CreateBooking(ctx context.Context, req CreateRequest) (Result, error) {
	method, ok := model.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return Result{}, ErrInvalidPaymentMethod
	}

	var (
		b    model.Booking
		trip model.Trip
		seat model.Seat
	)
	for attempt := 1; ; attempt++ {
		ref, err := e.newReference()
		if err != nil {
			return Result{}, fmt.Errorf("generate reference: %w", err)
		}

		err = e.store.WithTx(ctx, func(tx repository.Tx) error {
			var err error
			if trip, err = tx.GetTrip(ctx, req.TripID); err != nil {
				return err
			}
			if seat, err = e.claim(ctx, tx, req.TripID, req.SeatID, req.UserID); err != nil {
				return err
			}
			if b, err = tx.CreateBooking(ctx, req.UserID, seat.ID, ref); err != nil {
				return err
			}
			return e.issuer.Upsert(ctx, tx, model.Ticket{
				BookingID:     b.ID,
				UserID:        b.UserID,
				Reference:     b.Reference,
				PaymentMethod: method,
				Amount:        trip.Price,
				Status:        model.BookingPending,
			})
		})
		if errors.Is(err, repository.ErrDuplicateReference) && attempt < maxReferenceAttempts {
			e.log.Info("booking reference collision, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return Result{}, translate(err)
		}
		break
	}

	e.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("reference", b.Reference),
		zap.String("seat_id", seat.ID))

	e.afterCommit(func(ctx context.Context) {
		e.sendBookingEmail(ctx, b, trip, seat)
		e.events.BookingEvent(ctx, e.event(queue.EventBookingCreated, b, trip.ID, trip.Price))
	})
	return Result{BookingID: b.ID, Reference: b.Reference}, nil
}

// claim books an AVAILABLE seat, or a RESERVED one whose hold belongs to
// userID or has lapsed.  The hold row goes away with the claim.
func (e *Engine) claim(ctx context.Context, tx repository.Tx, tripID, seatID, userID string) (model.Seat, error) {
	seat, err := tx.ClaimSeat(ctx, tripID, seatID)
	if !errors.Is(err, repository.ErrSeatNotAvailable) {
		return seat, err
	}

	// A RESERVED seat without a hold row has lapsed; the sweeper never
	// sees it because it only walks hold rows.
	hold, herr := tx.GetHold(ctx, seatID)
	switch {
	case errors.Is(herr, repository.ErrHoldNotFound):
	case herr != nil:
		return model.Seat{}, herr
	case hold.UserID != userID && !hold.Expired(e.now()):
		return model.Seat{}, err
	}

	seat, err = tx.SwapSeatStatus(ctx, tripID, seatID, model.SeatReserved, model.SeatBooked)
	if err != nil {
		return model.Seat{}, err
	}
	if err := tx.DeleteHold(ctx, seatID); err != nil {
		return model.Seat{}, err
	}
	return seat, nil
}

// ConfirmPayment moves a booking to CONFIRMED, refreshes its ticket and
// makes sure the seat is BOOKED.  Confirming a CONFIRMED booking runs the
// same steps again and succeeds.
func (e *Engine) ConfirmPayment(ctx context.Context, bookingID string) error {
	var (
		b       model.Booking
		trip    model.Trip
		changed bool
	)
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		cur, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		changed = cur.Status != model.BookingConfirmed
		if changed && !cur.Status.CanTransitionTo(model.BookingConfirmed) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, model.BookingConfirmed)
		}

		seat, err := tx.GetSeat(ctx, cur.SeatID)
		if err != nil {
			return err
		}
		if trip, err = tx.GetTrip(ctx, seat.TripID); err != nil {
			return err
		}
		if b, err = tx.SetBookingStatus(ctx, cur.ID, model.BookingConfirmed); err != nil {
			return err
		}

		prev, terr := tx.GetTicket(ctx, b.ID)
		if terr != nil && !errors.Is(terr, repository.ErrTicketNotFound) {
			e.log.Warn("read ticket failed", zap.String("booking_id", b.ID), zap.Error(terr))
		}
		if err := e.issuer.Upsert(ctx, tx, model.Ticket{
			BookingID:     b.ID,
			UserID:        b.UserID,
			Reference:     firstNonEmpty(prev.Reference, b.Reference, b.ID),
			PaymentMethod: prev.PaymentMethod,
			Amount:        trip.Price,
			Status:        model.BookingConfirmed,
		}); err != nil {
			return err
		}

		if seat.Status != model.SeatBooked {
			if _, err := tx.MarkBooked(ctx, seat.ID); err != nil {
				return err
			}
			if seat.Status == model.SeatReserved {
				return tx.DeleteHold(ctx, seat.ID)
			}
		}
		return nil
	})
	if errors.Is(err, repository.ErrBookingNotFound) {
		return ErrBookingNotFound
	}
	if err != nil {
		e.log.Error("confirm payment failed", zap.String("booking_id", bookingID), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrConfirmationFailed, err)
	}

	if changed {
		e.afterCommit(func(ctx context.Context) {
			e.events.BookingEvent(ctx, e.event(queue.EventBookingConfirmed, b, trip.ID, trip.Price))
		})
	}
	return nil
}

// CancelBooking cancels a booking, cancels its ticket and frees the seat.
// Cancelling a CANCELLED booking succeeds without touching the seat, which
// may have been booked by someone else since.
func (e *Engine) CancelBooking(ctx context.Context, bookingID string) error {
	var (
		b       model.Booking
		tripID  string
		changed bool
	)
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		cur, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if cur.Status == model.BookingCancelled {
			b = cur
			return nil
		}
		changed = true

		if b, err = tx.SetBookingStatus(ctx, cur.ID, model.BookingCancelled); err != nil {
			return err
		}
		if err := e.issuer.Cancel(ctx, tx, cur.ID); err != nil {
			return err
		}
		seat, err := tx.ReleaseSeat(ctx, cur.SeatID)
		if err != nil {
			return err
		}
		tripID = seat.TripID
		return nil
	})
	if errors.Is(err, repository.ErrBookingNotFound) {
		return ErrBookingNotFound
	}
	if err != nil {
		e.log.Error("cancel booking failed", zap.String("booking_id", bookingID), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrCancelFailed, err)
	}

	if changed {
		e.afterCommit(func(ctx context.Context) {
			e.events.BookingEvent(ctx, e.event(queue.EventBookingCancelled, b, tripID, 0))
		})
	}
	return nil
}

// GetBooking returns a booking owned by userID.
func (e *Engine) GetBooking(ctx context.Context, bookingID, userID string) (model.Booking, error) {
	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, translate(err)
	}
	if b.UserID != userID {
		return model.Booking{}, ErrForbidden
	}
	return b, nil
}

// ListUserBookings returns the bookings of userID, newest first.
func (e *Engine) ListUserBookings(ctx context.Context, userID string) ([]model.BookingDetail, error) {
	return e.store.ListBookingDetails(ctx, userID)
}

// TicketView collects what is printed on the ticket of a booking owned by
// userID.  A missing ticket row falls back to the booking itself.
func (e *Engine) TicketView(ctx context.Context, bookingID, userID string) (ticket.View, error) {
	b, err := e.GetBooking(ctx, bookingID, userID)
	if err != nil {
		return ticket.View{}, err
	}
	seat, err := e.store.GetSeat(ctx, b.SeatID)
	if err != nil {
		return ticket.View{}, translate(err)
	}
	trip, err := e.store.GetTrip(ctx, seat.TripID)
	if err != nil {
		return ticket.View{}, translate(err)
	}

	v := ticket.View{
		Reference:     firstNonEmpty(b.Reference, b.ID),
		RouteLabel:    trip.Route.Label(),
		Seat:          seat.SeatNumber,
		Departure:     trip.DepartureTime,
		Status:        string(b.Status),
		IssuedAt:      b.CreatedAt,
		Operator:      trip.Operator,
		Amount:        trip.Price,
		PaymentMethod: string(model.DefaultPaymentMethod),
	}
	if tk, err := e.store.GetTicket(ctx, b.ID); err == nil {
		v.Reference = firstNonEmpty(tk.Reference, v.Reference)
		v.IssuedAt = tk.IssuedAt
		v.Amount = tk.Amount
		v.PaymentMethod = string(tk.PaymentMethod)
	}
	if e.users != nil {
		if u, err := e.users.GetUserByID(ctx, b.UserID); err == nil {
			v.TravelerName = firstNonEmpty(u.Name, u.Email)
		}
	}
	return v, nil
}

// translate maps repository sentinels to the engine's errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrTripNotFound):
		return ErrTripNotFound
	case errors.Is(err, repository.ErrSeatNotFound):
		return ErrSeatNotFound
	case errors.Is(err, repository.ErrSeatNotAvailable), errors.Is(err, repository.ErrDuplicate):
		return ErrSeatUnavailable
	case errors.Is(err, repository.ErrBookingNotFound):
		return ErrBookingNotFound
	case errors.Is(err, repository.ErrHoldNotFound):
		return ErrHoldNotFound
	}
	return err
}

// afterCommit runs fn in the background with its own deadline, detached
// from the request context.
func (e *Engine) afterCommit(fn func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("post-commit task panicked", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), e.notifyTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (e *Engine) sendBookingEmail(ctx context.Context, b model.Booking, trip model.Trip, seat model.Seat) {
	if e.gateway == nil || e.users == nil {
		return
	}
	u, err := e.users.GetUserByID(ctx, b.UserID)
	if err != nil {
		e.log.Warn("booking email skipped: user lookup failed", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	res := e.gateway.SendBookingEmail(ctx, notify.BookingEmail{
		To:          u.Email,
		SeatLabel:   seat.SeatNumber,
		TripSummary: trip.Summary(),
		Reference:   b.Reference,
	})
	if !res.Success {
		e.log.Warn("booking email not sent", zap.String("booking_id", b.ID), zap.String("error", res.Error))
	}
}

func (e *Engine) event(typ string, b model.Booking, tripID string, amount int64) queue.BookingEvent {
	return queue.BookingEvent{
		Type:       typ,
		BookingID:  b.ID,
		Reference:  b.Reference,
		UserID:     b.UserID,
		TripID:     tripID,
		SeatID:     b.SeatID,
		Status:     string(b.Status),
		Amount:     amount,
		OccurredAt: e.now().UTC(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
