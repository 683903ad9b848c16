package ratelimit_test

import (
	"testing"
	"time"

	"github.com/xraph/ledger/ratelimit"
)

func TestAllowUnlimited(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 100; i++ {
		if !l.Allow("acme", 0) {
			t.Fatal("rate limit 0 must always allow")
		}
	}
}

func TestAllowExhaustsBucket(t *testing.T) {
	l := ratelimit.New()

	// Bucket starts full at the rate limit.
	for i := 0; i < 5; i++ {
		if !l.Allow("acme", 5) {
			t.Fatalf("call %d should be allowed", i)
		}
	}

	if l.Allow("acme", 5) {
		t.Fatal("expected bucket to be exhausted")
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 3; i++ {
		l.Allow("acme", 3)
	}
	if l.Allow("acme", 3) {
		t.Fatal("acme bucket should be exhausted")
	}

	if !l.Allow("globex", 3) {
		t.Fatal("globex bucket must not be affected by acme")
	}
}

func TestBucketRefills(t *testing.T) {
	l := ratelimit.New()

	// Exhaust a fast bucket, then wait for refill.
	for i := 0; i < 50; i++ {
		l.Allow("acme", 50)
	}
	if l.Allow("acme", 50) {
		t.Fatal("expected bucket to be exhausted")
	}

	time.Sleep(50 * time.Millisecond)

	if !l.Allow("acme", 50) {
		t.Fatal("expected bucket to refill after waiting")
	}
}

func TestReset(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 2; i++ {
		l.Allow("acme", 2)
	}
	if l.Allow("acme", 2) {
		t.Fatal("expected bucket to be exhausted")
	}

	l.Reset("acme")

	if !l.Allow("acme", 2) {
		t.Fatal("expected full bucket after reset")
	}
}
