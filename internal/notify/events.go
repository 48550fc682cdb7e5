package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/logger"
	"github.com/iliyamo/transit-booking/internal/queue"
)

// Events receives booking lifecycle events after commit.  Implementations
// log their own failures.
type Events interface {
	BookingEvent(ctx context.Context, ev queue.BookingEvent)
}

// QueueEvents publishes lifecycle events to queue.BookingEventsQueue.
type QueueEvents struct {
	pub Publisher
}

func NewQueueEvents(pub Publisher) *QueueEvents {
	return &QueueEvents{pub: pub}
}

func (e *QueueEvents) BookingEvent(ctx context.Context, ev queue.BookingEvent) {
	if err := e.pub.Publish(ctx, queue.BookingEventsQueue, ev); err != nil {
		logger.Get().Warn("publish booking event failed",
			zap.String("type", ev.Type),
			zap.String("booking_id", ev.BookingID),
			zap.Error(err))
	}
}

// LogEvents only logs lifecycle events.
type LogEvents struct{}

func (LogEvents) BookingEvent(_ context.Context, ev queue.BookingEvent) {
	logger.Get().Info("booking event",
		zap.String("type", ev.Type),
		zap.String("booking_id", ev.BookingID),
		zap.String("reference", ev.Reference),
		zap.String("status", ev.Status))
}

var (
	_ Events = (*QueueEvents)(nil)
	_ Events = LogEvents{}
)
