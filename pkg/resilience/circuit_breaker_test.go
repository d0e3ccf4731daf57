package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failing(context.Context) error { return errors.New("node unreachable") }
func succeeding(context.Context) error { return nil }

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{Name: "node-b", FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		if err := cb.Execute(context.Background(), failing); err == nil {
			t.Fatal("expected failure to propagate")
		}
	}
	if got := cb.State(); got != BreakerOpen {
		t.Fatalf("expected open state, got %s", got)
	}

	err := cb.Execute(context.Background(), succeeding)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	var openErr *CircuitOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected CircuitOpenError, got %T", err)
	}
	if openErr.Name != "node-b" {
		t.Fatalf("expected breaker name node-b, got %q", openErr.Name)
	}
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: 10 * time.Millisecond})

	_ = cb.Execute(context.Background(), failing)
	if got := cb.State(); got != BreakerOpen {
		t.Fatalf("expected open state, got %s", got)
	}

	time.Sleep(20 * time.Millisecond)
	if got := cb.State(); got != BreakerHalfOpen {
		t.Fatalf("expected half-open state, got %s", got)
	}

	if err := cb.Execute(context.Background(), succeeding); err != nil {
		t.Fatalf("expected probe success, got %v", err)
	}
	if got := cb.State(); got != BreakerClosed {
		t.Fatalf("expected closed state, got %s", got)
	}
}

func TestCircuitBreakerIgnoresCanceledContext(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})

	_ = cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	if got := cb.State(); got != BreakerClosed {
		t.Fatalf("cancellation must not trip the breaker, state %s", got)
	}
}
