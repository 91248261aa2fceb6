package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	cfg.Enabled = true
	b := NewCircuitBreaker("test", cfg)
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	b, now := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxReq: 1})

	var transitions []CircuitState
	b.OnStateChange(func(name string, _, to CircuitState) {
		if name != "test" {
			t.Fatalf("unexpected breaker name %q", name)
		}
		transitions = append(transitions, to)
	})

	fail := errors.New("down")
	_ = b.Execute(func() error { return fail })
	if b.State() != CircuitStateClosed {
		t.Fatalf("expected closed after one failure, got %s", b.State())
	}
	_ = b.Execute(func() error { return fail })
	if b.State() != CircuitStateOpen {
		t.Fatalf("expected open after threshold, got %s", b.State())
	}

	if _, err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open rejection, got %v", err)
	}

	*now = now.Add(5 * time.Second)
	done, err := b.Allow()
	if err != nil {
		t.Fatalf("expected half-open probe, got %v", err)
	}
	if _, err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second probe to be rejected, got %v", err)
	}
	done(true)

	if b.State() != CircuitStateClosed {
		t.Fatalf("expected closed after probe success, got %s", b.State())
	}
	want := []CircuitState{CircuitStateOpen, CircuitStateHalfOpen, CircuitStateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions=%v want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions=%v want %v", transitions, want)
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second, HalfOpenMaxReq: 2})

	_ = b.Execute(func() error { return errors.New("boom") })
	*now = now.Add(time.Second)

	if err := b.Execute(func() error { return errors.New("still down") }); err == nil {
		t.Fatalf("expected probe error")
	}
	if b.State() != CircuitStateOpen {
		t.Fatalf("expected reopen, got %s", b.State())
	}
}

func TestCircuitBreaker_IgnoresStaleOutcome(t *testing.T) {
	b, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})

	slow, err := b.Allow()
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	_ = b.Execute(func() error { return errors.New("boom") })
	if b.State() != CircuitStateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	// a success from before the trip must not close the breaker
	slow(true)
	if b.State() != CircuitStateOpen {
		t.Fatalf("stale success changed state to %s", b.State())
	}
}

func TestCircuitBreaker_OpenSkipsFn(t *testing.T) {
	b, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})

	publishErr := errors.New("broker down")
	if err := b.Execute(func() error { return publishErr }); !errors.Is(err, publishErr) {
		t.Fatalf("expected publish error, got %v", err)
	}

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected rejection without calling fn, err=%v called=%v", err, called)
	}
}

func TestNewCircuitBreaker_DisabledIsNil(t *testing.T) {
	b := NewCircuitBreaker("off", CircuitBreakerConfig{})
	if b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("nil breaker should pass through: %v", err)
	}
	done, err := b.Allow()
	if err != nil {
		t.Fatalf("nil breaker allow: %v", err)
	}
	done(false)
	if b.State() != CircuitStateClosed {
		t.Fatalf("nil breaker should report closed")
	}
	if b.OnStateChange(nil) != nil {
		t.Fatalf("expected nil from nil breaker")
	}
}
