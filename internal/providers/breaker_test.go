package providers

import (
	"testing"
	"time"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := newBreaker(2, time.Hour)

	if err := b.allow(); err != nil {
		t.Fatalf("closed breaker rejected call: %v", err)
	}
	b.recordFailure()
	b.recordFailure()

	if err := b.allow(); err == nil {
		t.Fatal("breaker stayed closed after reaching the failure threshold")
	}
	if s := b.currentState(); s != breakerOpen {
		t.Errorf("state = %v, want open", s)
	}
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	b := newBreaker(1, 10*time.Millisecond)
	b.recordFailure()

	if err := b.allow(); err == nil {
		t.Fatal("freshly opened breaker admitted a call")
	}
	time.Sleep(15 * time.Millisecond)

	if err := b.allow(); err != nil {
		t.Fatalf("breaker did not admit a trial after cooldown: %v", err)
	}
	if s := b.currentState(); s != breakerHalfOpen {
		t.Errorf("state = %v, want half-open", s)
	}

	b.recordSuccess()
	if s := b.currentState(); s != breakerClosed {
		t.Errorf("state after trial success = %v, want closed", s)
	}
}

func TestBreakerReopensOnTrialFailure(t *testing.T) {
	b := newBreaker(1, 10*time.Millisecond)
	b.recordFailure()
	time.Sleep(15 * time.Millisecond)

	if err := b.allow(); err != nil {
		t.Fatalf("trial not admitted: %v", err)
	}
	b.recordFailure()

	if err := b.allow(); err == nil {
		t.Fatal("breaker closed again after a failed trial")
	}
}
