package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tributo.band/site/internal/config"
)

const (
	defaultQueueSize   = 32
	defaultSendTimeout = 30 * time.Second
)

// EmailSideEffectError reports a notification that could not be delivered.
// It never fails the request that triggered it.
type EmailSideEffectError struct {
	DocumentID string
	Err        error
}

func (e *EmailSideEffectError) Error() string {
	return fmt.Sprintf("notify: contact %s notification failed: %v", e.DocumentID, e.Err)
}

func (e *EmailSideEffectError) Unwrap() error { return e.Err }

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize bounds the number of pending notifications.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithSendTimeout caps a single delivery attempt.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithErrorHook observes delivery failures after they are logged.
func WithErrorHook(fn func(error)) Option {
	return func(d *Dispatcher) {
		d.onError = fn
	}
}

// Dispatcher sends contact notifications from a single background worker.
type Dispatcher struct {
	mailer    Mailer
	from      string
	to        string
	subject   string
	logger    *zap.Logger
	queueSize int
	timeout   time.Duration
	onError   func(error)

	mu     sync.RWMutex
	closed bool
	queue  chan Contact
	wg     sync.WaitGroup
}

// NewDispatcher starts the worker. Close must be called to stop it.
func NewDispatcher(mailer Mailer, cfg config.MailConfig, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		mailer:    mailer,
		from:      cfg.From,
		to:        cfg.To,
		subject:   cfg.Subject,
		logger:    logger.Named("notify"),
		queueSize: defaultQueueSize,
		timeout:   defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan Contact, d.queueSize)
	d.wg.Add(1)
	go d.run()
	return d
}

// NotifyContact queues a notification for c. It never blocks: when the queue
// is full or the dispatcher is closed the notification is dropped and false
// is returned.
func (d *Dispatcher) NotifyContact(_ context.Context, c Contact) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- c:
		return true
	default:
		d.logger.Warn("notification queue full, dropping", zap.String("document_id", c.DocumentID))
		return false
	}
}

// Close stops accepting notifications and waits for queued ones to be sent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for c := range d.queue {
		d.deliver(c)
	}
}

func (d *Dispatcher) deliver(c Contact) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	msg := ContactMessage(d.from, d.to, d.subject, c)
	if err := d.mailer.Send(ctx, msg); err != nil {
		failure := &EmailSideEffectError{DocumentID: c.DocumentID, Err: err}
		d.logger.Warn("email notification failed", zap.Error(failure))
		if d.onError != nil {
			d.onError(failure)
		}
		return
	}
	d.logger.Debug("email notification sent", zap.String("document_id", c.DocumentID))
}
