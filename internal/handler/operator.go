package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-booking/internal/booking"
	"github.com/iliyamo/transit-booking/internal/model"
)

// OperatorHandler serves the ADMIN endpoints: a trip's passenger list, the
// operator cancel override and taking seats in and out of sale.  The role
// check happens in the router.
type OperatorHandler struct {
	Engine *booking.Engine
}

func NewOperatorHandler(e *booking.Engine) *OperatorHandler {
	if e == nil {
		panic("nil engine passed to NewOperatorHandler")
	}
	return &OperatorHandler{Engine: e}
}

// ListTripBookings handles GET /v1/admin/trips/:id/bookings.  An empty
// trip returns an empty list.
func (h *OperatorHandler) ListTripBookings(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	items, err := h.Engine.TripBookings(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"count": len(items),
	})
}

// CancelBooking handles POST /v1/admin/bookings/:id/cancel.  It answers 409
// once the trip has departed.
func (h *OperatorHandler) CancelBooking(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Engine.OperatorCancel(ctx, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type seatStatusReq struct {
	Status string `json:"status"`
}

// UpdateSeatStatus handles PUT /v1/admin/trips/:id/seats/:seatId/status
// with {"status": "AVAILABLE"|"UNAVAILABLE"}.
func (h *OperatorHandler) UpdateSeatStatus(c echo.Context) error {
	var req seatStatusReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	var inService bool
	switch model.SeatStatus(strings.ToUpper(strings.TrimSpace(req.Status))) {
	case model.SeatAvailable:
		inService = true
	case model.SeatUnavailable:
	default:
		return errorJSON(c, http.StatusBadRequest, "status must be AVAILABLE or UNAVAILABLE")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	seat, err := h.Engine.SetSeatInService(ctx, c.Param("id"), c.Param("seatId"), inService)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}
