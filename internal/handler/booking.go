package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-booking/internal/booking"
	"github.com/iliyamo/transit-booking/internal/middleware"
	"github.com/iliyamo/transit-booking/internal/ticket"
)

// BookingHandler exposes the booking engine to authenticated users.
type BookingHandler struct {
	Engine *booking.Engine
}

func NewBookingHandler(e *booking.Engine) *BookingHandler {
	return &BookingHandler{Engine: e}
}

type createBookingReq struct {
	TripID        string `json:"trip_id"`
	SeatID        string `json:"seat_id"`
	PaymentMethod string `json:"payment_method"`
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.TripID = strings.TrimSpace(req.TripID)
	req.SeatID = strings.TrimSpace(req.SeatID)
	if req.TripID == "" || req.SeatID == "" {
		return errorJSON(c, http.StatusBadRequest, "trip_id and seat_id are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Engine.CreateBooking(ctx, booking.CreateRequest{
		TripID:        req.TripID,
		SeatID:        req.SeatID,
		UserID:        middleware.UserID(c),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// List handles GET /v1/bookings.
func (h *BookingHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	items, err := h.Engine.ListUserBookings(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	b, err := h.Engine.GetBooking(ctx, c.Param("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Confirm handles POST /v1/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	id := c.Param("id")
	if _, err := h.Engine.GetBooking(ctx, id, middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	if err := h.Engine.ConfirmPayment(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	id := c.Param("id")
	if _, err := h.Engine.GetBooking(ctx, id, middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	if err := h.Engine.CancelBooking(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// TicketPDF handles GET /v1/bookings/:id/ticket.pdf.
func (h *BookingHandler) TicketPDF(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	v, err := h.Engine.TicketView(ctx, c.Param("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	pdf, err := ticket.RenderPDF(v)
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+ticket.Filename(v.Reference)+`"`)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

type holdResp struct {
	TripID    string    `json:"trip_id"`
	SeatID    string    `json:"seat_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Hold handles POST /v1/trips/:id/seats/:seatId/hold.
func (h *BookingHandler) Hold(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	hold, err := h.Engine.HoldSeat(ctx, c.Param("id"), c.Param("seatId"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, holdResp{TripID: hold.TripID, SeatID: hold.SeatID, ExpiresAt: hold.ExpiresAt})
}

// ReleaseHold handles DELETE /v1/trips/:id/seats/:seatId/hold.
func (h *BookingHandler) ReleaseHold(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Engine.ReleaseHold(ctx, c.Param("id"), c.Param("seatId"), middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
