// Package ratelimit implements a fixed-window request limiter keyed by actor
// identity (user id or network origin).
//
// Unlike the token-bucket edge limiter in the HTTP middleware, this limiter
// enforces business quotas ("10 poll creations per hour") and reports the
// remaining allowance and window expiry to callers. Windows are discrete and
// non-overlapping: the counter resets when the window expires, never earlier.
//
// The limiter is an owned component, not ambient state: construct it with
// New, inject it into the services that consume it, and Close it on shutdown
// to stop the background sweep. State is process-local and non-durable; in a
// horizontally scaled deployment a shared store (e.g. Redis) would be needed
// to enforce global quotas.
package ratelimit

import (
	"sync"
	"time"
)

// Policy describes one fixed-window quota.
type Policy struct {
	// Window is the duration of one counting window.
	Window time.Duration
	// MaxRequests is the number of requests allowed per window.
	MaxRequests int
}

// Quota policies for the poll API.
var (
	// CreatePoll bounds poll creation per authenticated user.
	CreatePoll = Policy{Window: time.Hour, MaxRequests: 10}
	// Vote bounds vote submission per actor.
	Vote = Policy{Window: time.Minute, MaxRequests: 5}
	// General is the default policy for endpoints without a specific quota.
	General = Policy{Window: 15 * time.Minute, MaxRequests: 100}
)

// DefaultSweepInterval is how often expired windows are evicted.
const DefaultSweepInterval = 5 * time.Minute

// Result reports the outcome of a single Check call.
type Result struct {
	// Allowed is false when the actor has exhausted the current window.
	Allowed bool
	// Remaining is the number of requests left in the window after this one.
	Remaining int
	// ResetAt is the instant the current window expires.
	ResetAt time.Time
}

// window holds the live counter for one actor key.
type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a mutex-guarded fixed-window counter map. Guarding the whole
// check-and-increment under one lock keeps the quota exact under concurrent
// requests for the same key.
//
// Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	now func() time.Time // injectable clock for tests

	done     chan struct{}
	stopOnce sync.Once
}

// New constructs a Limiter and starts its background sweep, which evicts
// expired windows every sweepInterval (DefaultSweepInterval when <= 0).
// Callers must Close the limiter when done with it.
func New(sweepInterval time.Duration) *Limiter {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	l := &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go l.janitor(sweepInterval)
	return l
}

// Check records one request for key under policy p and reports whether it is
// allowed. A fresh window is opened when none exists or the previous one has
// expired. When the window is exhausted the request is denied and the counter
// is left untouched.
func (l *Limiter) Check(key string, p Policy) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(p.Window)}
		l.windows[key] = w
	}
	if w.count >= p.MaxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}
	w.count++
	return Result{Allowed: true, Remaining: p.MaxRequests - w.count, ResetAt: w.resetAt}
}

// Close stops the background sweep. Safe to call more than once.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Len returns the number of tracked windows, expired or not.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// janitor periodically drops expired windows so memory stays bounded by the
// number of actors active within one window period.
func (l *Limiter) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			l.sweep()
		}
	}
}

// sweep removes every window whose reset instant has passed.
func (l *Limiter) sweep() {
	now := l.now()
	l.mu.Lock()
	for k, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, k)
		}
	}
	l.mu.Unlock()
}
