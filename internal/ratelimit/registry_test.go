package ratelimit

import "testing"

func TestRegistry_PreconfiguredGroww(t *testing.T) {
	l, ok := Get("groww")
	if !ok {
		t.Fatal("expected pre-configured groww limiter")
	}
	if l.maxPerSecond != 10 || l.maxPerMinute != 300 {
		t.Fatalf("unexpected groww ceilings: %d/s %d/min", l.maxPerSecond, l.maxPerMinute)
	}
}

func TestRegistry_UnknownKeyNotFound(t *testing.T) {
	if _, ok := Get("no-such-upstream"); ok {
		t.Fatal("unknown key must not create a default limiter")
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := Register("test-upstream", Config{MaxPerSecond: 2, MaxPerMinute: 20})
	got, ok := Get("test-upstream")
	if !ok || got != reg {
		t.Fatal("registered limiter not returned by Get")
	}
}
