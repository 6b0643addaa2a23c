package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrUnavailable reports a write skipped because the breaker is open.
var ErrUnavailable = errors.New("storage temporarily unavailable")

// BreakerSettings controls Guarded.
type BreakerSettings struct {
	// MaxFailures consecutive failed writes open the breaker.
	MaxFailures uint32
	// Timeout is how long the breaker stays open before a trial write.
	Timeout time.Duration
}

// Guarded wraps a KV so that repeated write failures stop reaching the
// backend for a while. Reads, deletes and missing keys never trip it.
type Guarded struct {
	KV
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewGuarded wraps kv.
func NewGuarded(kv KV, settings BreakerSettings, logger *zap.Logger) *Guarded {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 3
	}
	g := &Guarded{KV: kv, logger: logger}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "storage",
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("storage breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return g
}

// Set writes through the breaker.
func (g *Guarded) Set(ctx context.Context, key, value string) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.KV.Set(ctx, key, value)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

// State reports the breaker state name: closed, half-open or open.
func (g *Guarded) State() string {
	return g.cb.State().String()
}
