package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const DefaultOpTimeout = 500 * time.Millisecond

// Guard runs Redis commands behind a circuit breaker with a per-call
// deadline. The cache, the revocation store and the rate limiter share one
// so a failing Redis is skipped by all of them at once.
type Guard struct {
	breaker *CircuitBreaker
	timeout time.Duration
}

// NewGuard falls back to a default breaker and DefaultOpTimeout.
func NewGuard(breaker *CircuitBreaker, timeout time.Duration) *Guard {
	if breaker == nil {
		breaker = NewCircuitBreaker(nil)
	}
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	return &Guard{breaker: breaker, timeout: timeout}
}

// Do returns an error wrapping ErrCacheDown without calling op while the
// breaker is open. Errors matched by ignore do not count as failures.
func (g *Guard) Do(ctx context.Context, op func(ctx context.Context) error, ignore ...func(error) bool) error {
	err := g.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return op(ctx)
	}, ignore...)
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	}
	return err
}

func (g *Guard) Breaker() *CircuitBreaker {
	return g.breaker
}
