package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter caps outbound proxy requests at limit per window and spaces
// them at least window/limit apart. Callers wait; nothing is dropped.
//
// Reservations are taken one caller at a time. Parallel season fetches would
// need pre-allocated slots instead of this shared counter.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       int

	spacing *rate.Limiter
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	interval := window / time.Duration(limit)
	return &RateLimiter{
		limit:   limit,
		window:  window,
		spacing: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (l *RateLimiter) MinInterval() time.Duration {
	return l.window / time.Duration(l.limit)
}

// Wait blocks until a request slot is available or ctx is done.
func (l *RateLimiter) Wait(ctx context.Context) error {
	windowStart, err := l.reserveWindow(ctx)
	if err != nil {
		return err
	}
	if err := l.spacing.Wait(ctx); err != nil {
		l.release(windowStart)
		return err
	}
	return nil
}

// release returns a slot taken in the window that started at windowStart.
// A slot from an already rolled-over window is simply dropped.
func (l *RateLimiter) release(windowStart time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.windowStart.Equal(windowStart) && l.count > 0 {
		l.count--
	}
}

func (l *RateLimiter) reserveWindow(ctx context.Context) (time.Time, error) {
	for {
		l.mu.Lock()
		now := time.Now()
		if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.count = 0
		}
		if l.count < l.limit {
			l.count++
			start := l.windowStart
			l.mu.Unlock()
			return start, nil
		}
		resetIn := l.windowStart.Add(l.window).Sub(now)
		l.mu.Unlock()

		timer := time.NewTimer(resetIn)
		select {
		case <-ctx.Done():
			timer.Stop()
			return time.Time{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// Remaining reports how many requests the current window still allows.
func (l *RateLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.windowStart.IsZero() || time.Since(l.windowStart) >= l.window {
		return l.limit
	}
	return l.limit - l.count
}
