// Package ratelimit provides a process-local fixed-window attempt counter
package ratelimit

import (
	"sync"
	"time"
)

// Policy bounds the number of attempts per identifier inside one window
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultLoginPolicy allows 5 login attempts per minute
var DefaultLoginPolicy = Policy{MaxAttempts: 5, Window: time.Minute}

// Result is the outcome of a single attempt
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts attempts per identifier in fixed windows.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock overrides the clock used to open and expire windows
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a new limiter
func New(opts ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoginKey returns the limiter identifier for login attempts from an IP
func LoginKey(ip string) string {
	return "login:" + ip
}

// CheckAndConsume records one attempt for the identifier and reports whether it is allowed.
//
// A window opens with count 1 on the first attempt, or on any attempt made at or after
// the previous window's reset time. Rejected attempts do not move the reset time, so
// the identifier is released at ResetAt no matter how often it keeps trying.
func (l *Limiter) CheckAndConsume(identifier string, policy Policy) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[identifier]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(policy.Window)}
		l.windows[identifier] = w
		return Result{
			Allowed:   policy.MaxAttempts >= 1,
			Remaining: max(policy.MaxAttempts-1, 0),
			ResetAt:   w.resetAt,
		}
	}

	if w.count >= policy.MaxAttempts {
		return Result{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return Result{
		Allowed:   true,
		Remaining: policy.MaxAttempts - w.count,
		ResetAt:   w.resetAt,
	}
}

// Sweep removes every window whose reset time has passed and returns how many were removed
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
