package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/reelist/reelist/internal/metrics"
)

// DefaultQueueSize bounds how many messages may wait for delivery.
const DefaultQueueSize = 64

// Message is a queued delivery.
type Message struct {
	Recipient string
	Template  string
	Data      any
}

// Outbox delivers mail in the background so request handlers never block on SMTP.
type Outbox struct {
	sender  Sender
	logger  *slog.Logger
	metrics metrics.Recorder
	queue   chan Message

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewOutbox creates an Outbox. A nil sender makes Enqueue a no-op.
func NewOutbox(sender Sender, logger *slog.Logger, recorder metrics.Recorder, queueSize int) *Outbox {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Outbox{
		sender:  sender,
		logger:  logger.With("component", "mailer.outbox"),
		metrics: recorder,
		queue:   make(chan Message, queueSize),
	}
}

// Enqueue schedules msg without blocking. It drops the message when the
// queue is full or the outbox is shutting down.
func (o *Outbox) Enqueue(msg Message) {
	if o.sender == nil {
		return
	}

	o.mu.Lock()
	draining := o.draining
	o.mu.Unlock()
	if draining {
		o.metrics.IncMail("dropped")
		return
	}

	select {
	case o.queue <- msg:
	default:
		o.logger.Warn("mail queue full, dropping message", "template", msg.Template)
		o.metrics.IncMail("dropped")
	}
}

// Run delivers queued messages until ctx is cancelled or Shutdown is called.
func (o *Outbox) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return errors.New("outbox already started")
	}
	o.started = true
	o.done = make(chan struct{})
	ctx, o.cancel = context.WithCancel(ctx)
	o.mu.Unlock()

	defer close(o.done)

	o.logger.Info("mail outbox started")

	for {
		select {
		case <-ctx.Done():
			o.drain()
			o.logger.Info("mail outbox stopped")
			return nil
		case msg := <-o.queue:
			o.deliver(msg)
		}
	}
}

// Shutdown stops accepting mail and waits for queued messages to be sent.
// It implements server.ShutdownFunc.
func (o *Outbox) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if !o.started {
		o.draining = true
		o.mu.Unlock()
		return nil
	}
	o.draining = true
	cancel := o.cancel
	done := o.done
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		o.logger.Warn("mail outbox shutdown timed out", "pending", len(o.queue))
		return ctx.Err()
	}
}

// drain sends whatever is still queued.
func (o *Outbox) drain() {
	for {
		select {
		case msg := <-o.queue:
			o.deliver(msg)
		default:
			return
		}
	}
}

func (o *Outbox) deliver(msg Message) {
	if err := o.sender.Send(msg.Recipient, msg.Template, msg.Data); err != nil {
		o.logger.Error("failed to send mail", "template", msg.Template, "error", err)
		o.metrics.IncMail("failed")
		return
	}
	o.logger.Debug("mail sent", "template", msg.Template)
	o.metrics.IncMail("sent")
}
