package httpmiddleware

import (
	"testing"
	"time"
)

func TestAllowExhaustsCapacity(t *testing.T) {
	l := NewRateLimiter(3, 3)

	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("request %d denied within capacity", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Fatal("request beyond capacity allowed")
	}
	// other clients have their own bucket
	if !l.allow("10.0.0.2") {
		t.Fatal("separate client denied")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	l := NewRateLimiter(2, 60) // one token per second

	if !l.allow("10.0.0.1") || !l.allow("10.0.0.1") {
		t.Fatal("initial capacity denied")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("expected empty bucket")
	}

	// Backdate the bucket instead of sleeping.
	l.mu.Lock()
	l.buckets["10.0.0.1"].last = time.Now().Add(-2 * time.Second)
	l.mu.Unlock()

	if !l.allow("10.0.0.1") {
		t.Fatal("expected refill after elapsed time")
	}
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	l := NewRateLimiter(5, 5)

	l.allow("10.0.0.1")
	l.allow("10.0.0.2")

	// Make one bucket idle past the TTL and force the next sweep to run.
	l.mu.Lock()
	l.buckets["10.0.0.1"].seen = time.Now().Add(-idleTTL - time.Minute)
	l.sweptAt = time.Now().Add(-2 * sweepInterval)
	l.mu.Unlock()

	l.allow("10.0.0.2")

	l.mu.Lock()
	_, stale := l.buckets["10.0.0.1"]
	_, fresh := l.buckets["10.0.0.2"]
	l.mu.Unlock()

	if stale {
		t.Error("idle bucket survived the sweep")
	}
	if !fresh {
		t.Error("active bucket was swept")
	}
}
