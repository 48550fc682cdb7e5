package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-booking/internal/handler"
	"github.com/iliyamo/transit-booking/internal/middleware"
)

// RegisterBookings registers the booking and seat hold endpoints.  All of
// them require a valid JWT and are rate limited per user.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, opt Options) {
	mw := append(authenticated(opt), middleware.NewTokenBucket(opt.RateLimit, opt.Redis))

	e.POST("/v1/trips/:id/seats/:seatId/hold", b.Hold, mw...)
	e.DELETE("/v1/trips/:id/seats/:seatId/hold", b.ReleaseHold, mw...)

	g := e.Group("/v1/bookings", mw...)
	g.POST("", b.Create)
	g.GET("", b.List)
	g.GET("/:id", b.Get)
	g.POST("/:id/confirm", b.Confirm)
	g.POST("/:id/cancel", b.Cancel)
	g.GET("/:id/ticket.pdf", b.TicketPDF)
}
