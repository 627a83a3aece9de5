package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// rateLimitEntry tracks request counts for one IP within a time window.
type rateLimitEntry struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

// entryKey scopes a client IP to one Limit call.
type entryKey struct {
	scope int
	ip    string
}

// RateLimiter is a fixed-window per-IP request counter shared by any number
// of limited routes. Expired entries are dropped by Run.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[entryKey]*rateLimitEntry
	scopes  int
	now     func() time.Time
}

// NewRateLimiter creates an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		entries: make(map[entryKey]*rateLimitEntry),
		now:     time.Now,
	}
}

// Limit returns middleware allowing maxRequests per IP per window on the
// routes it guards. Each call gets its own counters. Returns 429 when
// exceeded.
func (l *RateLimiter) Limit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	l.mu.Lock()
	l.scopes++
	scope := l.scopes
	l.mu.Unlock()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := entryKey{scope: scope, ip: c.RealIP()}
			now := l.now()

			l.mu.Lock()
			entry, exists := l.entries[key]
			if !exists || now.Sub(entry.windowStart) > window {
				l.entries[key] = &rateLimitEntry{count: 1, windowStart: now, window: window}
				l.mu.Unlock()
				return next(c)
			}

			entry.count++
			over := entry.count > maxRequests
			reset := entry.windowStart.Add(window)
			l.mu.Unlock()

			if over {
				c.Response().Header().Set("Retry-After", retryAfter(reset.Sub(now)))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":   "too_many_requests",
					"message": "Rate limit exceeded. Please try again later.",
				})
			}
			return next(c)
		}
	}
}

// Sweep drops entries whose window ended more than a window ago.
func (l *RateLimiter) Sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.entries {
		if now.Sub(entry.windowStart) > entry.window*2 {
			delete(l.entries, key)
		}
	}
}

// Run sweeps every interval until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// size returns the number of tracked entries.
func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// retryAfter formats a wait as whole seconds, at least one.
func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
