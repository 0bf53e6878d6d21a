package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Minute})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d unexpectedly rejected", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("request over budget was allowed")
	}
}

func TestLimiterTracksClientsIndependently(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second client rejected")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("first client allowed over budget")
	}
	if got := rl.ActiveClients(); got != 2 {
		t.Fatalf("ActiveClients = %d, want 2", got)
	}
}

func TestLimiterDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()

	if rl.requestsPerMinute != DefaultConfig().RequestsPerMinute {
		t.Fatalf("requestsPerMinute = %d, want default", rl.requestsPerMinute)
	}
}

func TestLimiterStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
