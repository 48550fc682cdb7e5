package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-booking/internal/model"
	"github.com/iliyamo/transit-booking/internal/repository"
)

// TripHandler serves the public trip lookup.
type TripHandler struct {
	Trips repository.TripReader
}

func NewTripHandler(trips repository.TripReader) *TripHandler {
	return &TripHandler{Trips: trips}
}

type tripResp struct {
	model.Trip
	RouteLabel string `json:"route_label"`
	Capacity   int    `json:"capacity"`
	Duration   string `json:"duration,omitempty"`
}

func toTripResp(t model.Trip) tripResp {
	r := tripResp{Trip: t, RouteLabel: t.Route.Label(), Capacity: t.Layout.Capacity()}
	if d := t.Duration(); d > 0 {
		r.Duration = d.String()
	}
	return r
}

// SearchTrips handles GET /v1/trips?from=&to=&date=YYYY-MM-DD.
func (h *TripHandler) SearchTrips(c echo.Context) error {
	q := repository.TripQuery{
		From: strings.TrimSpace(c.QueryParam("from")),
		To:   strings.TrimSpace(c.QueryParam("to")),
	}
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		q.Date = d
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	trips, err := h.Trips.SearchTrips(ctx, q)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]tripResp, 0, len(trips))
	for _, t := range trips {
		items = append(items, toTripResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetTrip handles GET /v1/trips/:id.
func (h *TripHandler) GetTrip(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	t, err := h.Trips.GetTrip(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrTripNotFound) {
		return errorJSON(c, http.StatusNotFound, "trip not found")
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toTripResp(t))
}

type seatMapResp struct {
	TripID    string       `json:"trip_id"`
	Layout    string       `json:"layout"`
	Rows      int          `json:"rows"`
	Cols      int          `json:"cols"`
	Available int          `json:"available"`
	Seats     []model.Seat `json:"seats"`
}

// ListSeats handles GET /v1/trips/:id/seats.
func (h *TripHandler) ListSeats(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	id := c.Param("id")
	t, err := h.Trips.GetTrip(ctx, id)
	if errors.Is(err, repository.ErrTripNotFound) {
		return errorJSON(c, http.StatusNotFound, "trip not found")
	}
	if err != nil {
		return respondError(c, err)
	}
	seats, err := h.Trips.ListSeats(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	dim := t.Layout.Dimensions()
	resp := seatMapResp{TripID: id, Layout: string(t.Layout), Rows: dim.Rows, Cols: dim.Cols, Seats: seats}
	for _, s := range seats {
		if s.Status == model.SeatAvailable {
			resp.Available++
		}
	}
	return c.JSON(http.StatusOK, resp)
}
