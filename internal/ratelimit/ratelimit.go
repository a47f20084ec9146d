// Package ratelimit implements the per-identifier fixed-window limiter
// protecting the submission path. State lives only in process memory;
// windows reset lazily on check, and a periodic sweep bounds memory by
// dropping entries whose window has already expired.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds the window policy. The product policy is 5 admitted
// submissions per fixed 1-hour window.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultConfig returns the submission policy.
func DefaultConfig() Config {
	return Config{
		MaxRequests: 5,
		Window:      time.Hour,
	}
}

// Result is the outcome of a single admission check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window rate limiter keyed by opaque identifier.
// Check-and-increment is atomic per identifier: two concurrent checks can
// never both be admitted into the window's last slot.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	cfg     Config

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Limiter with the given policy.
func New(cfg Config) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Check records a request for the identifier and reports whether it is
// admitted. A fresh or expired window resets to count=1; a full window
// denies without touching the reset time.
func (l *Limiter) Check(identifier string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[identifier]

	if !ok || !now.Before(e.resetAt) {
		resetAt := now.Add(l.cfg.Window)
		l.entries[identifier] = &entry{count: 1, resetAt: resetAt}
		return Result{Allowed: true, Remaining: l.cfg.MaxRequests - 1, ResetAt: resetAt}
	}

	if e.count >= l.cfg.MaxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}
	}

	e.count++
	return Result{Allowed: true, Remaining: l.cfg.MaxRequests - e.count, ResetAt: e.resetAt}
}

// Status returns the current window for an identifier without consuming
// a slot. ok is false when no live window exists.
func (l *Limiter) Status(identifier string) (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if !ok || !l.now().Before(e.resetAt) {
		return Result{}, false
	}

	remaining := l.cfg.MaxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: e.count < l.cfg.MaxRequests, Remaining: remaining, ResetAt: e.resetAt}, true
}

// Reset clears the window for an identifier.
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, identifier)
}

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// sweep removes entries whose window has expired. Purely memory hygiene;
// Check already treats expired windows as absent.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(l.entries)).Msg("ratelimit: swept expired windows")
	}
}

// StartSweeper runs the passive sweep on the given interval until ctx is
// cancelled.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()
}
