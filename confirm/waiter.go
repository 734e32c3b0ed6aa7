// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package confirm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielhkuo/massa-polls/eventlog"
	"github.com/danielhkuo/massa-polls/massa"
	"github.com/danielhkuo/massa-polls/models"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 60 * time.Second
)

// ErrTimeout means the expected log entry did not appear within the wait
// bound. The transaction may still land later.
var ErrTimeout = errors.New("timed out waiting for confirmation")

var errNotYet = errors.New("expected entry not in log yet")

// Waiter polls a contract log at a fixed interval until a condition holds
type Waiter struct {
	Source        massa.EventSource
	Reconstructor *eventlog.Reconstructor
	Interval      time.Duration
	Timeout       time.Duration
	Logger        *slog.Logger
}

func NewWaiter(source massa.EventSource, rec *eventlog.Reconstructor, interval, timeout time.Duration, logger *slog.Logger) *Waiter {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = eventlog.New(logger)
	}
	return &Waiter{
		Source:        source,
		Reconstructor: rec,
		Interval:      interval,
		Timeout:       timeout,
		Logger:        logger,
	}
}

func (w *Waiter) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// Wait fetches the emitter's log every Interval until match returns true,
// and returns the matching log. It returns ErrTimeout after Timeout, or the
// context error if ctx ends first.
func (w *Waiter) Wait(ctx context.Context, emitter string, match func([]massa.Event) bool) ([]massa.Event, error) {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		matched  []massa.Event
		fetchErr error
		attempts int
	)
	operation := func() error {
		attempts++
		events, err := w.Source.GetEvents(waitCtx, emitter)
		if err != nil {
			fetchErr = err
			return err
		}
		fetchErr = nil
		if !match(events) {
			return errNotYet
		}
		matched = events
		return nil
	}
	notify := func(err error, next time.Duration) {
		if !errors.Is(err, errNotYet) {
			w.logger().Warn("log fetch failed while waiting", "emitter", emitter, "error", err, "retry_in", next)
		}
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx)
	err := backoff.RetryNotify(operation, b, notify)
	if err == nil {
		w.logger().Debug("confirmation observed", "emitter", emitter, "attempts", attempts)
		return matched, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("%w after %s (%d attempts): last fetch error: %w", ErrTimeout, timeout, attempts, fetchErr)
	}
	return nil, fmt.Errorf("%w after %s (%d attempts)", ErrTimeout, timeout, attempts)
}

// WaitForPoll waits until a poll with the given id is in the log
func (w *Waiter) WaitForPoll(ctx context.Context, emitter, id string) (models.Poll, error) {
	return w.waitPoll(ctx, emitter, id, func(models.Poll) bool { return true })
}

// WaitForVotes waits until the poll's total tally reaches minTotal
func (w *Waiter) WaitForVotes(ctx context.Context, emitter, id string, minTotal int64) (models.Poll, error) {
	return w.waitPoll(ctx, emitter, id, func(p models.Poll) bool { return p.TotalVotes() >= minTotal })
}

func (w *Waiter) waitPoll(ctx context.Context, emitter, id string, cond func(models.Poll) bool) (models.Poll, error) {
	rec := w.Reconstructor
	if rec == nil {
		rec = eventlog.New(w.logger())
	}
	var poll models.Poll
	_, err := w.Wait(ctx, emitter, func(events []massa.Event) bool {
		p, err := rec.Poll(events, id)
		if err != nil || !cond(p) {
			return false
		}
		poll = p
		return true
	})
	if err != nil {
		return models.Poll{}, fmt.Errorf("poll %s: %w", id, err)
	}
	return poll, nil
}
