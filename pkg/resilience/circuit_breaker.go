package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitOpenError carries a concrete retry delay for callers that back
// off instead of failing over immediately.
type CircuitOpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	wait := e.RetryAfter
	if wait < 0 {
		wait = 0
	}
	if e.Name == "" {
		return fmt.Sprintf("%v: retry in %s", ErrCircuitOpen, wait)
	}
	return fmt.Sprintf("%v for %s: retry in %s", ErrCircuitOpen, e.Name, wait)
}

func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// BreakerConfig tunes one per-node circuit breaker.
type BreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// CircuitBreaker shields a flapping storage node from repeated calls.
// One breaker is kept per node address; an open breaker makes failover
// to the next candidate instance immediate.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg BreakerConfig

	state     BreakerState
	failures  int
	successes int
	openUntil time.Time
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	return &CircuitBreaker{cfg: cfg, state: BreakerClosed}
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.advanceLocked(time.Now())
	return cb.state
}

// Execute runs fn under the breaker. Context cancellation is not counted
// against the node.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if errors.Is(err, context.Canceled) {
		return err
	}
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.advanceLocked(now)
	if cb.state != BreakerOpen {
		return nil
	}

	wait := cb.openUntil.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return &CircuitOpenError{Name: cb.cfg.Name, RetryAfter: wait}
}

func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if ok {
		switch cb.state {
		case BreakerHalfOpen:
			cb.successes++
			if cb.successes >= cb.cfg.SuccessThreshold {
				cb.state = BreakerClosed
				cb.failures = 0
				cb.successes = 0
			}
		default:
			cb.failures = 0
		}
		return
	}

	switch cb.state {
	case BreakerHalfOpen:
		cb.trip()
	default:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.trip()
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = BreakerOpen
	cb.openUntil = time.Now().Add(cb.cfg.OpenTimeout)
	cb.failures = 0
	cb.successes = 0
}

func (cb *CircuitBreaker) advanceLocked(now time.Time) {
	if cb.state == BreakerOpen && !now.Before(cb.openUntil) {
		cb.state = BreakerHalfOpen
		cb.failures = 0
		cb.successes = 0
	}
}
