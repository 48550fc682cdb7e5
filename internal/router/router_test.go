package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/transit-booking/internal/booking"
	"github.com/iliyamo/transit-booking/internal/config"
	"github.com/iliyamo/transit-booking/internal/handler"
	"github.com/iliyamo/transit-booking/internal/notify"
	"github.com/iliyamo/transit-booking/internal/repository"
	"github.com/iliyamo/transit-booking/internal/utils"
)

type mailbox struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *mailbox) SendBookingEmail(context.Context, notify.BookingEmail) notify.Result {
	return notify.Result{Success: true}
}

func (m *mailbox) SendVerificationEmail(_ context.Context, in notify.VerificationEmail) notify.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[in.To] = in.VerifyURL
	return notify.Result{Success: true}
}

func (m *mailbox) link(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[to]
}

type api struct {
	t      *testing.T
	e      *echo.Echo
	mail   *mailbox
	engine *booking.Engine
	store  *repository.FixtureStore
}

func newAPI(t *testing.T) *api {
	store := repository.NewDemoFixtureStore()
	mail := &mailbox{links: map[string]string{}}
	cfg := config.Config{
		AppURL:         "http://app.test",
		JWTSecret:      "router-test-secret",
		AccessTTLMin:   15,
		BcryptCost:     4,
		VerifyTokenTTL: 24 * time.Hour,
	}
	// Fixture trips depart in December 2025.
	engine := booking.NewEngine(store, nil, mail, nil, store, &booking.Config{
		Now: func() time.Time { return time.Date(2025, time.November, 20, 9, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(engine.Wait)

	e := New(Handlers{
		Auth:     handler.NewAuthHandler(cfg, store, store, mail),
		Trips:    handler.NewTripHandler(store),
		Bookings: handler.NewBookingHandler(engine),
		Operator: handler.NewOperatorHandler(engine),
	}, Options{JWTSecret: cfg.JWTSecret})
	return &api{t: t, e: e, mail: mail, engine: engine, store: store}
}

func (a *api) do(method, target, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// signUp registers, verifies and logs in a user and returns the access
// token.
func (a *api) signUp(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": email, "password": "correct-horse", "name": "Ko Ko",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	link, err := url.Parse(a.mail.link(email))
	require.NoError(a.t, err)
	rec = a.do(http.MethodGet, "/v1/auth/verify?"+link.RawQuery, "", nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	return a.login(email, "correct-horse")
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{"email": "mya@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{"email": "Mya@Example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, a.mail.link("mya@example.com"), "http://app.test/verify?token=")

	rec = a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{"email": "mya@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "mya@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"email not verified"}`, rec.Body.String())

	rec = a.do(http.MethodGet, "/v1/auth/verify?token=nope&email=mya%40example.com", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := a.signUp("thu@example.com")
	rec = a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "thu@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "thu@example.com", me["email"])
	assert.Equal(t, true, me["email_verified"])
	assert.Equal(t, "CUSTOMER", me["role"])
}

func TestTripLookup(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/v1/trips?from=YANGON", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []struct {
			ID         string `json:"id"`
			RouteLabel string `json:"route_label"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "yangon-mandalay-bus", list.Items[0].ID)
	assert.Equal(t, "Yangon -> Mandalay", list.Items[0].RouteLabel)

	rec = a.do(http.MethodGet, "/v1/trips?date=2025-12-03", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Items []any `json:"items"`
	}](t, rec).Items, 1)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/v1/trips?date=03/12/2025", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/trips/nowhere", "", nil).Code)

	rec = a.do(http.MethodGet, "/v1/trips/demo-trip/seats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	seats := decode[struct {
		Rows      int   `json:"rows"`
		Cols      int   `json:"cols"`
		Available int   `json:"available"`
		Seats     []any `json:"seats"`
	}](t, rec)
	assert.Equal(t, 7, seats.Rows)
	assert.Equal(t, 4, seats.Cols)
	assert.Equal(t, 28, seats.Available)
	assert.Len(t, seats.Seats, 28)
}

func TestBookingLifecycle(t *testing.T) {
	a := newAPI(t)
	token := a.signUp("traveller@example.com")
	intruder := a.signUp("intruder@example.com")

	seat := map[string]string{"trip_id": "demo-trip", "seat_id": "demo-trip-C2"}
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/v1/bookings", "", seat).Code)

	rec := a.do(http.MethodPost, "/v1/bookings", token, map[string]string{
		"trip_id": "demo-trip", "seat_id": "demo-trip-C2", "payment_method": "paypal",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/v1/bookings", token, seat)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[booking.Result](t, rec)
	assert.True(t, strings.HasPrefix(created.Reference, "BK-"))

	rec = a.do(http.MethodPost, "/v1/bookings", intruder, seat)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"seat is no longer available"}`, rec.Body.String())

	bookingURL := "/v1/bookings/" + created.BookingID
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, bookingURL, intruder, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, bookingURL+"/cancel", intruder, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/bookings/missing", token, nil).Code)

	rec = a.do(http.MethodPost, bookingURL+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/v1/bookings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []struct {
			Status     string `json:"status"`
			SeatNumber string `json:"seat_number"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "CONFIRMED", list.Items[0].Status)

	rec = a.do(http.MethodGet, bookingURL+"/ticket.pdf", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="ticket-`+created.Reference+`.pdf"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, bookingURL+"/cancel", token, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, bookingURL+"/cancel", token, nil).Code)

	rec = a.do(http.MethodPost, bookingURL+"/confirm", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The seat is free again.
	assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/v1/bookings", intruder, seat).Code)
}

func TestSeatHoldEndpoints(t *testing.T) {
	a := newAPI(t)
	token := a.signUp("holder@example.com")
	other := a.signUp("other@example.com")
	holdURL := "/v1/trips/demo-trip/seats/demo-trip-D1/hold"

	rec := a.do(http.MethodPost, holdURL, token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"expires_at"`)

	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, holdURL, other, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, holdURL, other, nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, holdURL, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, holdURL, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/v1/trips/demo-trip/seats/nope/hold", token, nil).Code)
}

func (a *api) login(email, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}](a.t, rec).Access.Token
}

func TestOperatorEndpoints(t *testing.T) {
	a := newAPI(t)
	hash, err := utils.HashPassword("operator-pass", 4)
	require.NoError(t, err)
	_, err = repository.EnsureAdmin(context.Background(), a.store, "ops@example.com", "Ops", hash, time.Now())
	require.NoError(t, err)
	admin := a.login("ops@example.com", "operator-pass")
	customer := a.signUp("rider@example.com")

	rec := a.do(http.MethodPost, "/v1/bookings", customer, map[string]string{"trip_id": "demo-trip", "seat_id": "demo-trip-E3"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[booking.Result](t, rec)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/v1/admin/trips/demo-trip/bookings", customer, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/v1/admin/trips/demo-trip/bookings", "", nil).Code)

	rec = a.do(http.MethodGet, "/v1/admin/trips/demo-trip/bookings", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Count int `json:"count"`
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.BookingID, list.Items[0].ID)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/admin/trips/nowhere/bookings", admin, nil).Code)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodPost, "/v1/admin/bookings/"+created.BookingID+"/cancel", admin, nil).Code)
	rec = a.do(http.MethodGet, "/v1/bookings/"+created.BookingID, customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decode[map[string]any](t, rec)["status"])

	statusURL := "/v1/admin/trips/demo-trip/seats/demo-trip-E3/status"
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, statusURL, admin, map[string]string{"status": "BOOKED"}).Code)
	rec = a.do(http.MethodPut, statusURL, admin, map[string]string{"status": "unavailable"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "UNAVAILABLE", decode[map[string]any](t, rec)["status"])

	rec = a.do(http.MethodPost, "/v1/bookings", customer, map[string]string{"trip_id": "demo-trip", "seat_id": "demo-trip-E3"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
