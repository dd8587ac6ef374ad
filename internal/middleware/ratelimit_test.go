package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: 2,
		interval: time.Hour, // Effectively no refill within the test.
	}

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if !rl.allow("10.0.0.1") {
		t.Fatal("second request should pass")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("third request should be limited")
	}

	// Other clients keep their own bucket.
	if !rl.allow("10.0.0.2") {
		t.Fatal("distinct IP should not be limited")
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: 1,
		interval: 10 * time.Millisecond,
	}

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(15 * time.Millisecond)
	if !rl.allow("10.0.0.1") {
		t.Fatal("bucket should have refilled")
	}
}
