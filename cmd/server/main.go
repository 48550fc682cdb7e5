// Command server runs the booking API and the seat hold sweeper.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/transit-booking/internal/booking"
	"github.com/iliyamo/transit-booking/internal/config"
	"github.com/iliyamo/transit-booking/internal/database"
	"github.com/iliyamo/transit-booking/internal/handler"
	"github.com/iliyamo/transit-booking/internal/logger"
	"github.com/iliyamo/transit-booking/internal/notify"
	"github.com/iliyamo/transit-booking/internal/queue"
	"github.com/iliyamo/transit-booking/internal/repository"
	"github.com/iliyamo/transit-booking/internal/router"
	"github.com/iliyamo/transit-booking/internal/utils"
)

// accounts is what the auth endpoints and the engine need for users.
type accounts interface {
	repository.Users
	repository.VerificationTokens
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		_ = logger.Init(&logger.Config{Level: "info", ServiceName: "transit-api"})
		logger.Get().Fatal("invalid configuration", zap.Error(err))
	}
	if err := logger.Init(&logger.Config{
		Level:       cfg.LogLevel,
		ServiceName: "transit-api",
		Development: cfg.Env == "dev",
	}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := map[string]handler.Pinger{}
	store, users, db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		ready["mysql"] = db
	}
	log.Info("store ready", zap.String("data_source", string(cfg.DataSource)))
	if err := ensureAdmin(ctx, cfg, users, log); err != nil {
		return err
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
		ready["redis"] = redisPinger{rdb}
	}

	gateway, events := notifiers(cfg)
	engine := booking.NewEngine(store, nil, gateway, events, users, &booking.Config{HoldTTL: cfg.HoldTTL})

	e := router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, users, gateway),
		Trips:    handler.NewTripHandler(store),
		Bookings: handler.NewBookingHandler(engine),
		Operator: handler.NewOperatorHandler(engine),
		Ready:    handler.Ready(ready),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		Log:       log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return booking.NewSweeper(engine, cfg.HoldSweepInterval).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		engine.Wait()
		log.Info("shutdown complete")
		return err
	})
	return g.Wait()
}

// openStore selects the repository implementation.  db is nil in fixture
// mode.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, accounts, *sql.DB, error) {
	if cfg.DataSource == config.DataSourceFixture {
		fx := repository.NewDemoFixtureStore()
		return fx, fx, nil, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	acc := struct {
		*repository.UserRepo
		*repository.TokenRepo
	}{repository.NewUserRepo(db), repository.NewTokenRepo(db)}
	return repository.NewMySQLStore(db), acc, db, nil
}

// ensureAdmin creates the ADMIN_EMAIL operator account on first start.
func ensureAdmin(ctx context.Context, cfg config.Config, users repository.Users, log *zap.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	hash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	created, err := repository.EnsureAdmin(ctx, users, cfg.AdminEmail, "Operator", hash, time.Now().UTC())
	if err != nil {
		return err
	}
	if created {
		log.Info("admin account created", zap.String("email", cfg.AdminEmail))
	}
	return nil
}

// notifiers picks the email gateway and the booking event sink for the
// configured driver.
func notifiers(cfg config.Config) (notify.Gateway, notify.Events) {
	switch cfg.NotifyDriver {
	case config.NotifyAMQP:
		pub := queue.NewPublisher(cfg.AMQPURL)
		return notify.NewQueueGateway(pub), notify.NewQueueEvents(pub)
	case config.NotifyResend:
		return notify.NewMailerGateway(notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)), notify.LogEvents{}
	default:
		return notify.NewMailerGateway(notify.LogMailer{}), notify.LogEvents{}
	}
}
