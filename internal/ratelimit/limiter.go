// Package ratelimit implements a per-identity sliding-window limiter used to
// throttle inbound messages. State is process-local; two instances of the
// bot would double the effective quota.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts accepted events per identity within a trailing window.
// Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	events  map[int64][]time.Time
	cap     int
	window  time.Duration
	nowFunc func() time.Time
}

// New creates a limiter allowing at most maxEvents per identity within the
// trailing window.
func New(maxEvents int, window time.Duration) *Limiter {
	if maxEvents <= 0 {
		maxEvents = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		events:  make(map[int64][]time.Time),
		cap:     maxEvents,
		window:  window,
		nowFunc: time.Now,
	}
}

// Allow reports whether an event for id may proceed. Entries older than the
// window are pruned first; a denied call leaves no trace, an allowed call
// records its timestamp.
func (l *Limiter) Allow(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	cutoff := now.Add(-l.window)

	kept := l.events[id][:0]
	for _, ts := range l.events[id] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.cap {
		l.events[id] = kept
		return false
	}

	l.events[id] = append(kept, now)
	return true
}

// SweepIdle drops identities whose newest event is older than maxAge,
// bounding memory for one-off senders. Returns the number removed.
func (l *Limiter) SweepIdle(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.nowFunc().Add(-maxAge)
	removed := 0
	for id, times := range l.events {
		if len(times) == 0 || times[len(times)-1].Before(cutoff) {
			delete(l.events, id)
			removed++
		}
	}
	return removed
}
