package accounts

import (
	"context"
	"sync"
	"time"
)

// DefaultDispatchTimeout bounds a single outbound email so a stalled SMTP
// server cannot hold goroutines indefinitely.
var DefaultDispatchTimeout = 15 * time.Second

// Dispatcher hands emails to a Notifier fire-and-forget: delivery failure
// is logged and never propagated to the operation that triggered it.
type Dispatcher struct {
	notifier Notifier
	logger   Logger
	timeout  time.Duration
	baseURL  string

	wg sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

func NewDispatcher(notifier Notifier, baseURL string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifier: notifier,
		logger:   defLogger{},
		timeout:  DefaultDispatchTimeout,
		baseURL:  baseURL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

func WithDispatchLogger(logger Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithDispatchTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// DispatchVerification sends the verification email for the given token in
// the background.
func (d *Dispatcher) DispatchVerification(account *Account, token string) {
	if d == nil || d.notifier == nil || account == nil {
		return
	}

	link := VerificationURL(d.baseURL, token)
	recipient := account.Sanitize()

	d.run(func(ctx context.Context) {
		if err := d.notifier.SendVerificationEmail(ctx, recipient, link); err != nil {
			d.logger.Error("verification email dispatch failed", "email", recipient.Email, "error", err)
		}
	})
}

// DispatchWelcome sends the welcome email in the background.
func (d *Dispatcher) DispatchWelcome(account *Account) {
	if d == nil || d.notifier == nil || account == nil {
		return
	}

	recipient := account.Sanitize()

	d.run(func(ctx context.Context) {
		if err := d.notifier.SendWelcomeEmail(ctx, recipient); err != nil {
			d.logger.Error("welcome email dispatch failed", "email", recipient.Email, "error", err)
		}
	})
}

// Wait blocks until in-flight dispatches finish. Tests and graceful
// shutdown hooks use it; request paths never should.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

func (d *Dispatcher) run(send func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		send(ctx)
	}()
}
