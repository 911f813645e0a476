// Package resilience wraps downstream calls with circuit breaking and
// retries so one failing provider cannot drag the whole service down.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/richxcame/ride-reputation/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker rejects an operation because
// the downstream is considered unhealthy.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Operation is a unit of work guarded by a breaker or retry loop.
type Operation func(ctx context.Context) (interface{}, error)

// Settings tunes a circuit breaker.
type Settings struct {
	Name string
	// Interval resets the failure counters while the breaker is closed.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// FailureThreshold is the consecutive failure count that trips the
	// breaker.
	FailureThreshold uint32
	// SuccessThreshold is how many probe requests may pass while
	// half-open.
	SuccessThreshold uint32
}

// CircuitBreaker wraps gobreaker with Prometheus metrics and a fallback
// path for open-circuit rejections.
type CircuitBreaker struct {
	name     string
	cb       *gobreaker.CircuitBreaker
	fallback FallbackFunc
}

// NewCircuitBreaker builds a breaker. A nil fallback behaves like
// NoopFallback and surfaces ErrCircuitOpen to the caller.
func NewCircuitBreaker(settings Settings, fallback FallbackFunc) *CircuitBreaker {
	name := nextBreakerName(settings.Name)
	if fallback == nil {
		fallback = NoopFallback
	}

	failureThreshold := settings.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 5
	}
	successThreshold := settings.SuccessThreshold
	if successThreshold == 0 {
		successThreshold = 1
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: successThreshold,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			recordBreakerStateChange(name, from, to)
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	breaker := &CircuitBreaker{
		name:     name,
		cb:       cb,
		fallback: fallback,
	}
	recordBreakerState(name, cb.State())
	return breaker
}

// Execute runs op through the breaker. Open-circuit rejections run the
// fallback instead; other errors pass through unchanged.
func (b *CircuitBreaker) Execute(ctx context.Context, op Operation) (interface{}, error) {
	recordBreakerRequest(b.name)

	result, err := b.cb.Execute(func() (interface{}, error) {
		return op(ctx)
	})
	if err == nil {
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		recordBreakerFallback(b.name)
		return b.fallback(ctx, ErrCircuitOpen)
	}

	recordBreakerFailure(b.name)
	return nil, err
}

// State exposes the underlying breaker state.
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

// Name returns the breaker's registered name.
func (b *CircuitBreaker) Name() string {
	return b.name
}
