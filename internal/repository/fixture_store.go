package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/transit-booking/internal/model"
)

// FixtureStore is the in-memory Store used when no database is configured
// and in tests.  Transactions are serialised by one mutex and applied
// copy-on-write: fn works on a clone of the mutable state, which replaces
// the live state only when fn succeeds.
type FixtureStore struct {
	mu  sync.Mutex
	now func() time.Time

	trips     map[string]model.Trip
	tripOrder []string
	seatOrder map[string][]string // trip id -> seat ids in seat-map order

	state fixtureState

	users  map[string]model.User // by id
	tokens map[string]time.Time  // email + "\x00" + hash -> expiry
}

type fixtureState struct {
	seats    map[string]model.Seat
	bookings map[string]model.Booking
	tickets  map[string]model.Ticket
	holds    map[string]model.SeatHold
}

func (s fixtureState) clone() fixtureState {
	c := fixtureState{
		seats:    make(map[string]model.Seat, len(s.seats)),
		bookings: make(map[string]model.Booking, len(s.bookings)),
		tickets:  make(map[string]model.Ticket, len(s.tickets)),
		holds:    make(map[string]model.SeatHold, len(s.holds)),
	}
	for k, v := range s.seats {
		c.seats[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.holds {
		c.holds[k] = v
	}
	return c
}

// NewFixtureStore builds a store holding trips and seats.
func NewFixtureStore(trips []model.Trip, seats []model.Seat) *FixtureStore {
	s := &FixtureStore{
		now:       time.Now,
		trips:     make(map[string]model.Trip, len(trips)),
		seatOrder: make(map[string][]string),
		state: fixtureState{
			seats:    make(map[string]model.Seat, len(seats)),
			bookings: map[string]model.Booking{},
			tickets:  map[string]model.Ticket{},
			holds:    map[string]model.SeatHold{},
		},
		users:  map[string]model.User{},
		tokens: map[string]time.Time{},
	}
	for _, t := range trips {
		s.trips[t.ID] = t
		s.tripOrder = append(s.tripOrder, t.ID)
	}
	for _, seat := range seats {
		s.state.seats[seat.ID] = seat
		s.seatOrder[seat.TripID] = append(s.seatOrder[seat.TripID], seat.ID)
	}
	return s
}

// NewDemoFixtureStore returns a store loaded with DemoTrips.
func NewDemoFixtureStore() *FixtureStore {
	trips := DemoTrips()
	return NewFixtureStore(trips, DemoSeats(trips))
}

// WithTx serialises fn against every other transaction and read.
func (s *FixtureStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&fixtureTx{store: s, st: &work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *FixtureStore) GetTrip(_ context.Context, id string) (model.Trip, error) {
	t, ok := s.trips[id]
	if !ok {
		return model.Trip{}, ErrTripNotFound
	}
	return t, nil
}

func (s *FixtureStore) SearchTrips(_ context.Context, q TripQuery) ([]model.Trip, error) {
	from := strings.ToLower(strings.TrimSpace(q.From))
	to := strings.ToLower(strings.TrimSpace(q.To))
	out := []model.Trip{}
	for _, id := range s.tripOrder {
		t := s.trips[id]
		if from != "" && !strings.Contains(strings.ToLower(t.Route.Start), from) {
			continue
		}
		if to != "" && !strings.Contains(strings.ToLower(t.Route.End), to) {
			continue
		}
		if !q.Date.IsZero() && t.DepartureTime.UTC().Format("2006-01-02") != q.Date.UTC().Format("2006-01-02") {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

func (s *FixtureStore) ListSeats(_ context.Context, tripID string) ([]model.Seat, error) {
	if _, ok := s.trips[tripID]; !ok {
		return nil, ErrTripNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seats := make([]model.Seat, 0, len(s.seatOrder[tripID]))
	for _, id := range s.seatOrder[tripID] {
		seats = append(seats, s.state.seats[id])
	}
	return seats, nil
}

func (s *FixtureStore) GetSeat(_ context.Context, id string) (model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.state.seats[id]
	if !ok {
		return model.Seat{}, ErrSeatNotFound
	}
	return seat, nil
}

func (s *FixtureStore) GetBooking(_ context.Context, id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.bookings[id]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, nil
}

func (s *FixtureStore) GetTicket(_ context.Context, bookingID string) (model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.tickets[bookingID]
	if !ok {
		return model.Ticket{}, ErrTicketNotFound
	}
	return t, nil
}

func (s *FixtureStore) ListBookingDetails(_ context.Context, userID string) ([]model.BookingDetail, error) {
	return s.bookingDetails(func(b model.Booking, _ model.Seat) bool { return b.UserID == userID }), nil
}

func (s *FixtureStore) ListTripBookings(_ context.Context, tripID string) ([]model.BookingDetail, error) {
	return s.bookingDetails(func(_ model.Booking, seat model.Seat) bool { return seat.TripID == tripID }), nil
}

func (s *FixtureStore) bookingDetails(keep func(model.Booking, model.Seat) bool) []model.BookingDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.BookingDetail{}
	for _, b := range s.state.bookings {
		seat := s.state.seats[b.SeatID]
		if !keep(b, seat) {
			continue
		}
		trip := s.trips[seat.TripID]
		d := model.BookingDetail{
			Booking:       b,
			TripID:        seat.TripID,
			SeatNumber:    seat.SeatNumber,
			Route:         trip.Route,
			Transport:     trip.Transport,
			DepartureTime: trip.DepartureTime,
			Amount:        trip.Price,
		}
		if tk, ok := s.state.tickets[b.ID]; ok {
			d.Amount = tk.Amount
			d.PaymentMethod = tk.PaymentMethod
			d.TicketStatus = tk.Status
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *FixtureStore) ListExpiredHolds(_ context.Context, now time.Time, limit int) ([]model.SeatHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.SeatHold{}
	for _, h := range s.state.holds {
		if h.Expired(now) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fixtureTx mutates a private clone of the store state.
type fixtureTx struct {
	store *FixtureStore
	st    *fixtureState
}

func (t *fixtureTx) GetTrip(ctx context.Context, id string) (model.Trip, error) {
	return t.store.GetTrip(ctx, id)
}

func (t *fixtureTx) GetSeat(_ context.Context, id string) (model.Seat, error) {
	seat, ok := t.st.seats[id]
	if !ok {
		return model.Seat{}, ErrSeatNotFound
	}
	return seat, nil
}

func (t *fixtureTx) ClaimSeat(ctx context.Context, tripID, seatID string) (model.Seat, error) {
	return t.SwapSeatStatus(ctx, tripID, seatID, model.SeatAvailable, model.SeatBooked)
}

func (t *fixtureTx) SwapSeatStatus(_ context.Context, tripID, seatID string, from, to model.SeatStatus) (model.Seat, error) {
	seat, ok := t.st.seats[seatID]
	if !ok || seat.TripID != tripID {
		return model.Seat{}, ErrSeatNotFound
	}
	if seat.Status != from {
		return model.Seat{}, ErrSeatNotAvailable
	}
	return t.setSeat(seat, to), nil
}

func (t *fixtureTx) ReleaseSeat(_ context.Context, seatID string) (model.Seat, error) {
	seat, ok := t.st.seats[seatID]
	if !ok {
		return model.Seat{}, ErrSeatNotFound
	}
	return t.setSeat(seat, model.SeatAvailable), nil
}

func (t *fixtureTx) MarkBooked(_ context.Context, seatID string) (model.Seat, error) {
	seat, ok := t.st.seats[seatID]
	if !ok {
		return model.Seat{}, ErrSeatNotFound
	}
	return t.setSeat(seat, model.SeatBooked), nil
}

func (t *fixtureTx) setSeat(seat model.Seat, status model.SeatStatus) model.Seat {
	seat.Status = status
	seat.UpdatedAt = t.store.now().UTC()
	t.st.seats[seat.ID] = seat
	return seat
}

// CreateBooking enforces the same unique keys as the bookings table:
// reference, and one active booking per seat.
func (t *fixtureTx) CreateBooking(_ context.Context, userID, seatID, reference string) (model.Booking, error) {
	if _, ok := t.st.seats[seatID]; !ok {
		return model.Booking{}, ErrSeatNotFound
	}
	for _, b := range t.st.bookings {
		if b.Reference == reference {
			return model.Booking{}, ErrDuplicateReference
		}
		if b.SeatID == seatID && b.Status.Active() {
			return model.Booking{}, ErrDuplicate
		}
	}
	now := t.store.now().UTC()
	b := model.Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		SeatID:    seatID,
		Reference: reference,
		Status:    model.BookingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.st.bookings[b.ID] = b
	return b, nil
}

func (t *fixtureTx) GetBooking(_ context.Context, id string) (model.Booking, error) {
	b, ok := t.st.bookings[id]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, nil
}

func (t *fixtureTx) SetBookingStatus(_ context.Context, id string, status model.BookingStatus) (model.Booking, error) {
	b, ok := t.st.bookings[id]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	if status.Active() && !b.Status.Active() {
		for _, other := range t.st.bookings {
			if other.ID != id && other.SeatID == b.SeatID && other.Status.Active() {
				return model.Booking{}, ErrDuplicate
			}
		}
	}
	b.Status = status
	b.UpdatedAt = t.store.now().UTC()
	t.st.bookings[id] = b
	return b, nil
}

func (t *fixtureTx) GetTicket(_ context.Context, bookingID string) (model.Ticket, error) {
	tk, ok := t.st.tickets[bookingID]
	if !ok {
		return model.Ticket{}, ErrTicketNotFound
	}
	return tk, nil
}

func (t *fixtureTx) UpsertTicket(_ context.Context, tk model.Ticket) error {
	for id, other := range t.st.tickets {
		if id != tk.BookingID && other.Reference == tk.Reference {
			return ErrDuplicate
		}
	}
	now := t.store.now().UTC()
	if prev, ok := t.st.tickets[tk.BookingID]; ok {
		tk.IssuedAt = prev.IssuedAt
	} else if tk.IssuedAt.IsZero() {
		tk.IssuedAt = now
	}
	tk.UpdatedAt = now
	t.st.tickets[tk.BookingID] = tk
	return nil
}

func (t *fixtureTx) CancelTickets(_ context.Context, bookingID string) error {
	if tk, ok := t.st.tickets[bookingID]; ok {
		tk.Status = model.BookingCancelled
		tk.UpdatedAt = t.store.now().UTC()
		t.st.tickets[bookingID] = tk
	}
	return nil
}

func (t *fixtureTx) GetHold(_ context.Context, seatID string) (model.SeatHold, error) {
	h, ok := t.st.holds[seatID]
	if !ok {
		return model.SeatHold{}, ErrHoldNotFound
	}
	return h, nil
}

func (t *fixtureTx) CreateHold(_ context.Context, h model.SeatHold) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = t.store.now().UTC()
	}
	t.st.holds[h.SeatID] = h
	return nil
}

func (t *fixtureTx) DeleteHold(_ context.Context, seatID string) error {
	delete(t.st.holds, seatID)
	return nil
}

// Savepoint snapshots the transaction state and restores it if fn fails.
func (t *fixtureTx) Savepoint(_ context.Context, _ string, fn func() error) error {
	snapshot := t.st.clone()
	if err := fn(); err != nil {
		*t.st = snapshot
		return err
	}
	return nil
}
