package infer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	breakerClosed = iota
	breakerOpen
	breakerHalfOpen
)

const (
	breakerFailureThreshold = 5
	breakerSuccessThreshold = 3
	breakerOpenTimeout      = 60 * time.Second
)

// ErrCircuitOpen is returned while the breaker is failing fast. It wraps
// ErrProviderUnavailable so callers classify it like any provider outage.
var ErrCircuitOpen = fmt.Errorf("%w: circuit open", ErrProviderUnavailable)

// Breaker wraps a Provider and fails fast once it has failed repeatedly:
// consecutive failures open the circuit, after a cooldown trial calls are
// let through (half-open), and enough trial successes close it again. A
// failure during half-open reopens immediately.
type Breaker struct {
	inner  Provider
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       int
	failures    int
	successes   int
	lastFailure time.Time
}

// NewBreaker wraps the provider with circuit-breaking.
func NewBreaker(inner Provider, logger *slog.Logger) *Breaker {
	return &Breaker{inner: inner, logger: logger, now: time.Now}
}

func (b *Breaker) Name() string { return b.inner.Name() }

func (b *Breaker) Complete(ctx context.Context, prompt string) (string, error) {
	if err := b.allow(); err != nil {
		return "", err
	}

	out, err := b.inner.Complete(ctx, prompt)
	if err != nil {
		// Caller cancellation says nothing about provider health.
		if ctx.Err() == nil {
			b.recordFailure()
		}
		return "", err
	}
	b.recordSuccess()
	return out, nil
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerOpen {
		if b.now().Sub(b.lastFailure) < breakerOpenTimeout {
			return ErrCircuitOpen
		}
		b.state = breakerHalfOpen
		b.successes = 0
		b.logger.Info("inference circuit half-open", "provider", b.inner.Name())
	}
	return nil
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()

	if b.state == breakerHalfOpen || b.failures >= breakerFailureThreshold {
		if b.state != breakerOpen {
			b.logger.Warn("inference circuit open",
				"provider", b.inner.Name(), "failures", b.failures)
		}
		b.state = breakerOpen
		b.successes = 0
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerHalfOpen:
		b.successes++
		if b.successes >= breakerSuccessThreshold {
			b.state = breakerClosed
			b.failures = 0
			b.logger.Info("inference circuit closed", "provider", b.inner.Name())
		}
	case breakerClosed:
		// A success slowly forgives past failures.
		if b.failures > 0 {
			b.failures--
		}
	}
}

var _ Provider = (*Breaker)(nil)
