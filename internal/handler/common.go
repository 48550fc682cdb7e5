// Package handler contains the echo handlers of the JSON API.  Every
// handler bounds its work with requestTimeout and answers errors as
// {"error": "<message>"}.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/booking"
	"github.com/iliyamo/transit-booking/internal/logger"
	"github.com/iliyamo/transit-booking/internal/middleware"
)

const requestTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// respondError maps engine errors to HTTP.  Confirmation and cancel
// failures carry internal causes, which are logged and not returned.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrTripNotFound),
		errors.Is(err, booking.ErrSeatNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, booking.ErrHoldNotFound):
		return errorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrSeatUnavailable), errors.Is(err, booking.ErrTripDeparted):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrForbidden):
		return errorJSON(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, booking.ErrInvalidPaymentMethod):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		return errorJSON(c, http.StatusConflict, "booking is cancelled")
	case errors.Is(err, booking.ErrConfirmationFailed):
		return errorJSON(c, http.StatusInternalServerError, booking.ErrConfirmationFailed.Error())
	case errors.Is(err, booking.ErrCancelFailed):
		return errorJSON(c, http.StatusInternalServerError, booking.ErrCancelFailed.Error())
	}
	logger.Get().Error("request failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("route", c.Path()),
		zap.Error(err))
	return errorJSON(c, http.StatusInternalServerError, "internal error")
}
