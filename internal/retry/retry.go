// Package retry implements the pipeline's two-tier failure handling: remote
// rate limits suspend for exactly the server-mandated duration and never
// consume the retry budget, while transient failures burn through a bounded
// budget with exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RateLimitedError signals that the remote source demands a mandatory wait
// before the same operation may be retried.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited for %s", e.Wait)
}

// TransientError wraps a failure worth retrying: timeouts, transport errors
// and protocol-level remote errors. Anything not wrapped in TransientError
// (or RateLimitedError) propagates immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Options bounds the retry behaviour of one operation.
type Options struct {
	Retries     int           // transient attempts after the first failure
	Backoff     time.Duration // initial delay, doubled per transient failure
	MaxBackoff  time.Duration // cap on the doubled delay
	JitterRatio float64       // +/- fraction applied to each delay
}

// DefaultOptions mirrors the retry posture of the scheduled job.
func DefaultOptions() Options {
	return Options{Retries: 3, Backoff: 2 * time.Second, MaxBackoff: 30 * time.Second, JitterRatio: 0.25}
}

func (o Options) withDefaults() Options {
	if o.Backoff <= 0 {
		o.Backoff = 2 * time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Second
	}
	return o
}

// Do runs op until it succeeds, the transient budget is exhausted, the error
// is not retryable, or ctx is cancelled. Rate-limit waits are honoured with
// a 1s floor and do not count against the budget.
func Do[T any](ctx context.Context, logger *slog.Logger, opts Options, op func() (T, error)) (T, error) {
	var zero T
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	attempt := 0
	delay := opts.Backoff
	for {
		result, err := op()
		if err == nil {
			return result, nil
		}

		var rateLimited *RateLimitedError
		if errors.As(err, &rateLimited) {
			wait := max(rateLimited.Wait, time.Second)
			logger.Warn("rate limited, waiting", "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return zero, err
			}
			continue
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return zero, err
		}
		attempt++
		if attempt > opts.Retries {
			logger.Error("retries exhausted", "attempts", attempt, "error", transient.Err)
			return zero, transient.Err
		}
		logger.Warn("retrying after error", "attempt", attempt, "retries", opts.Retries, "error", transient.Err)

		sleepFor := delay
		if opts.JitterRatio > 0 {
			jitter := time.Duration(float64(delay) * opts.JitterRatio)
			sleepFor += time.Duration(rand.Int63n(int64(2*jitter+1))) - jitter
		}
		if err := sleep(ctx, max(sleepFor, 0)); err != nil {
			return zero, err
		}
		delay = min(delay*2, opts.MaxBackoff)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
