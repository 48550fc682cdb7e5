package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-booking/internal/handler"
	"github.com/iliyamo/transit-booking/internal/middleware"
	"github.com/iliyamo/transit-booking/internal/model"
)

// RegisterOperator registers the ADMIN-only endpoints under /v1/admin.
func RegisterOperator(e *echo.Echo, o *handler.OperatorHandler, opt Options) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(opt.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/trips/:id/bookings", o.ListTripBookings)
	g.PUT("/trips/:id/seats/:seatId/status", o.UpdateSeatStatus)
	g.POST("/bookings/:id/cancel", o.CancelBooking)
}
