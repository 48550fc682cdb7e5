// Package router wires handlers and middleware into an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/config"
	"github.com/iliyamo/transit-booking/internal/handler"
	"github.com/iliyamo/transit-booking/internal/middleware"
	"github.com/iliyamo/transit-booking/internal/model"
)

// Handlers are the endpoint implementations.  Operator and Ready may be
// nil.
type Handlers struct {
	Auth     *handler.AuthHandler
	Trips    *handler.TripHandler
	Bookings *handler.BookingHandler
	Operator *handler.OperatorHandler
	Ready    echo.HandlerFunc
}

// Options configure the shared middleware.  Redis may be nil, which turns
// rate limiting and caching off.
type Options struct {
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       *zap.Logger
}

// New builds the API server.
func New(h Handlers, opt Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())

	RegisterRoutes(e, h.Ready)
	RegisterPublic(e, h.Trips, opt)
	RegisterAuth(e, h.Auth, opt)
	RegisterBookings(e, h.Bookings, opt)
	if h.Operator != nil {
		RegisterOperator(e, h.Operator, opt)
	}
	return e
}

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
}

// RegisterPublic registers the trip lookup.  Responses are cached; the seat
// map uses the short seat TTL so booked seats disappear quickly.
func RegisterPublic(e *echo.Echo, t *handler.TripHandler, opt Options) {
	cache := middleware.NewRedisCache(opt.Cache, opt.Redis)
	seatCfg := opt.Cache
	seatCfg.TTL = opt.Cache.SeatsTTL
	seatCache := middleware.NewRedisCache(seatCfg, opt.Redis)

	e.GET("/v1/trips", t.SearchTrips, cache)
	e.GET("/v1/trips/:id", t.GetTrip, cache)
	e.GET("/v1/trips/:id/seats", t.ListSeats, seatCache)
}

// RegisterAuth registers account endpoints.  Register, login and verify
// are public and rate limited; /v1/me needs a token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, opt Options) {
	limit := middleware.NewTokenBucket(opt.RateLimit, opt.Redis)

	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/verify", a.Verify)

	e.GET("/v1/me", a.Me, authenticated(opt)...)
}

func authenticated(opt Options) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(opt.JWTSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	}
}
