// Command notifier drains the email and booking event queues.  The API
// publishes to them when NOTIFY_DRIVER=amqp.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/transit-booking/internal/config"
	"github.com/iliyamo/transit-booking/internal/logger"
	"github.com/iliyamo/transit-booking/internal/notify"
	"github.com/iliyamo/transit-booking/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_ = logger.Init(&logger.Config{Level: "info", ServiceName: "transit-notifier"})
		logger.Get().Fatal("invalid configuration", zap.Error(err))
	}
	if err := logger.Init(&logger.Config{
		Level:       cfg.LogLevel,
		ServiceName: "transit-notifier",
		Development: cfg.Env == "dev",
	}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		log.Warn("RESEND_API_KEY not set, emails are only logged")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return queue.Consume(gctx, cfg.AMQPURL, queue.EmailQueue, deliverEmail(mailer))
	})
	g.Go(func() error {
		return queue.Consume(gctx, cfg.AMQPURL, queue.BookingEventsQueue, logEvent(log))
	})
	log.Info("notifier started", zap.String("email_queue", queue.EmailQueue), zap.String("events_queue", queue.BookingEventsQueue))
	if err := g.Wait(); err != nil {
		log.Fatal("notifier stopped", zap.Error(err))
	}
	log.Info("notifier stopped")
}

func deliverEmail(m notify.Mailer) queue.Handler {
	return func(ctx context.Context, body []byte) error {
		var msg queue.EmailMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return err
		}
		return m.Deliver(ctx, msg)
	}
}

func logEvent(log *zap.Logger) queue.Handler {
	return func(_ context.Context, body []byte) error {
		var ev queue.BookingEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return err
		}
		log.Info("booking event",
			zap.String("type", ev.Type),
			zap.String("booking_id", ev.BookingID),
			zap.String("reference", ev.Reference),
			zap.String("seat_id", ev.SeatID),
			zap.String("status", ev.Status))
		return nil
	}
}
