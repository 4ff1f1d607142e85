// Package notify delivers coupon notifications to customers. Dispatch is
// decoupled from the transaction that triggers it: the order path enqueues
// and returns immediately, a background worker drains the queue with a
// per-send timeout, and failures are logged, never propagated.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/perkcart/perkcart/internal/domain/coupon"
	"github.com/perkcart/perkcart/internal/domain/customer"
)

// Sender performs one notification delivery.
type Sender interface {
	Send(ctx context.Context, c customer.Customer, code string) error
}

// EmailSender simulates coupon email delivery by logging the send. It stands
// in for a real mail gateway behind the same Sender contract.
type EmailSender struct {
	lg *zap.Logger
}

// NewEmailSender creates an EmailSender logging through lg.
func NewEmailSender(lg *zap.Logger) *EmailSender {
	return &EmailSender{lg: lg}
}

// Send logs the simulated email.
func (s *EmailSender) Send(_ context.Context, c customer.Customer, code string) error {
	s.lg.Info("sending coupon email",
		zap.String("email", c.Email),
		zap.Int64("customer_id", c.ID),
		zap.String("code", code),
	)
	return nil
}

var _ coupon.Notifier = (*Dispatcher)(nil)

// Dispatcher implements coupon.Notifier with a bounded queue and a single
// background worker.
type Dispatcher struct {
	sender  Sender
	lg      *zap.Logger
	timeout time.Duration
	queue   chan message
}

type message struct {
	customer customer.Customer
	code     string
}

// NewDispatcher creates a Dispatcher. queueSize bounds the number of pending
// notifications; timeout bounds each individual send.
func NewDispatcher(sender Sender, lg *zap.Logger, queueSize int, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		lg:      lg,
		timeout: timeout,
		queue:   make(chan message, queueSize),
	}
}

// Notify enqueues a notification without blocking. When the queue is full
// the notification is dropped with a warning: losing a courtesy email is
// preferable to stalling order placement.
func (d *Dispatcher) Notify(_ context.Context, c customer.Customer, code string) {
	select {
	case d.queue <- message{customer: c, code: code}:
	default:
		d.lg.Warn("notification queue full, dropping",
			zap.Int64("customer_id", c.ID),
			zap.String("code", code),
		)
	}
}

// Run drains the queue until ctx is cancelled. Each send gets its own
// timeout; a failed send is logged and the worker moves on.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg message) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, msg.customer, msg.code); err != nil {
		d.lg.Warn("notification delivery failed",
			zap.Int64("customer_id", msg.customer.ID),
			zap.String("code", msg.code),
			zap.Error(err),
		)
	}
}
