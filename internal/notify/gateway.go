package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/logger"
	"github.com/iliyamo/transit-booking/internal/queue"
)

// MailerGateway delivers emails in-process through a Mailer.
type MailerGateway struct {
	mailer Mailer
}

// NewMailerGateway returns a Gateway delivering synchronously via m.
func NewMailerGateway(m Mailer) *MailerGateway {
	return &MailerGateway{mailer: m}
}

func (g *MailerGateway) SendBookingEmail(ctx context.Context, in BookingEmail) Result {
	if err := g.mailer.Deliver(ctx, BookingMessage(in)); err != nil {
		logger.Get().Warn("booking email failed", zap.String("reference", in.Reference), zap.Error(err))
		return failed("Email send failed")
	}
	return ok()
}

func (g *MailerGateway) SendVerificationEmail(ctx context.Context, in VerificationEmail) Result {
	if err := g.mailer.Deliver(ctx, VerificationMessage(in)); err != nil {
		logger.Get().Warn("verification email failed", zap.Error(err))
		return failed("Verification email send failed")
	}
	return ok()
}

// Publisher is the queue side of QueueGateway, satisfied by
// *queue.Publisher.
type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// QueueGateway renders emails and enqueues them for cmd/notifier.  A
// successful Result means the message was accepted by the broker.
type QueueGateway struct {
	pub Publisher
}

// NewQueueGateway returns a Gateway publishing to queue.EmailQueue.
func NewQueueGateway(pub Publisher) *QueueGateway {
	return &QueueGateway{pub: pub}
}

func (g *QueueGateway) SendBookingEmail(ctx context.Context, in BookingEmail) Result {
	if err := g.pub.Publish(ctx, queue.EmailQueue, BookingMessage(in)); err != nil {
		logger.Get().Warn("enqueue booking email failed", zap.String("reference", in.Reference), zap.Error(err))
		return failed("Email send failed")
	}
	return ok()
}

func (g *QueueGateway) SendVerificationEmail(ctx context.Context, in VerificationEmail) Result {
	if err := g.pub.Publish(ctx, queue.EmailQueue, VerificationMessage(in)); err != nil {
		logger.Get().Warn("enqueue verification email failed", zap.Error(err))
		return failed("Verification email send failed")
	}
	return ok()
}

var (
	_ Gateway = (*MailerGateway)(nil)
	_ Gateway = (*QueueGateway)(nil)
)
