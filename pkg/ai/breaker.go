package ai

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings tunes BreakerCompleter
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	TripRatio   float64
}

// BreakerCompleter wraps a Completer with a circuit breaker so a failing
// LLM endpoint is not hammered by every query
type BreakerCompleter struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerCompleter creates a new circuit breaker completer
func NewBreakerCompleter(name string, next Completer, s BreakerSettings, logger *zap.Logger) *BreakerCompleter {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= s.TripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}
		},
	}
	return &BreakerCompleter{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// Complete implements Completer
func (b *BreakerCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, system, prompt)
	})
	if err != nil {
		return "", err
	}
	return resp.(string), nil
}

// State exposes the current breaker state for health reporting
func (b *BreakerCompleter) State() string {
	return b.cb.State().String()
}
