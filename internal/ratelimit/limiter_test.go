package ratelimit

import (
	"testing"
	"time"
)

func testLimiter(maxEvents int, window time.Duration) (*Limiter, *time.Time) {
	l := New(maxEvents, window)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }
	return l, &now
}

func TestAllow_UpToCap(t *testing.T) {
	t.Parallel()

	l, _ := testLimiter(10, time.Minute)
	for i := 0; i < 10; i++ {
		if !l.Allow(42) {
			t.Fatalf("Allow() = false on event %d, want true", i+1)
		}
	}
	if l.Allow(42) {
		t.Error("Allow() = true on event 11, want false")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	t.Parallel()

	l, now := testLimiter(10, time.Minute)
	for i := 0; i < 10; i++ {
		if !l.Allow(42) {
			t.Fatalf("Allow() = false on event %d, want true", i+1)
		}
	}
	if l.Allow(42) {
		t.Fatal("Allow() = true at cap, want false")
	}

	*now = now.Add(61 * time.Second)
	if !l.Allow(42) {
		t.Error("Allow() = false after window elapsed, want true")
	}
}

func TestAllow_DenialLeavesNoTrace(t *testing.T) {
	t.Parallel()

	l, now := testLimiter(2, time.Minute)
	l.Allow(1)
	l.Allow(1)

	// Denied attempts must not extend the lockout.
	for i := 0; i < 5; i++ {
		if l.Allow(1) {
			t.Fatal("Allow() = true above cap, want false")
		}
	}

	*now = now.Add(61 * time.Second)
	if !l.Allow(1) {
		t.Error("Allow() = false after window elapsed, want true despite denied attempts")
	}
}

func TestAllow_IdentitiesAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := testLimiter(1, time.Minute)
	if !l.Allow(1) {
		t.Fatal("Allow(1) = false, want true")
	}
	if l.Allow(1) {
		t.Error("Allow(1) second call = true, want false")
	}
	if !l.Allow(2) {
		t.Error("Allow(2) = false, want true; identities must not share quota")
	}
}

func TestSweepIdle(t *testing.T) {
	t.Parallel()

	l, now := testLimiter(10, time.Minute)
	l.Allow(1)
	l.Allow(2)

	*now = now.Add(30 * time.Minute)
	l.Allow(3)

	removed := l.SweepIdle(10 * time.Minute)
	if removed != 2 {
		t.Errorf("SweepIdle() = %d, want 2", removed)
	}
	if _, ok := l.events[3]; !ok {
		t.Error("SweepIdle() removed an active identity")
	}
}
