// Package ratelimit spaces calls to the external reasoning API. The
// enforced quota belongs to the API credential, so one Limiter is
// constructed per process and shared by reference.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the minimum spacing between reasoning calls.
const DefaultInterval = time.Second

// Limiter serializes protected calls and keeps at least the
// configured interval between them. The last-call timestamp is
// updated after the protected call completes, success or failure:
// a slow call therefore pushes the next one out past its completion,
// bounding bursts after slow responses.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	lastCall time.Time
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// New builds a limiter; a non-positive interval falls back to the
// default one-second spacing.
func New(interval time.Duration, logger *slog.Logger) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Limiter{
		interval: interval,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

// Do blocks until the interval since the previous protected call has
// elapsed, runs fn, records the completion time, and returns fn's
// error. The internal lock is held for the whole sequence, so
// concurrent callers are serialized. A cancelled context aborts the
// wait without running fn.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.lastCall.IsZero() {
		elapsed := time.Since(l.lastCall)
		if wait := l.interval - elapsed; wait > 0 {
			l.debug("rate limit wait", "wait", wait, "since_last", elapsed)
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	err := fn()
	l.lastCall = time.Now()
	return err
}

func (l *Limiter) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
