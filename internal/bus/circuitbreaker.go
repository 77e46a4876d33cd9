package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

// CircuitBreakerBus wraps another Bus and trips a gobreaker.CircuitBreaker
// around its Publish calls: a broker that starts failing (RabbitMQ/NATS
// outage, slow consumer backpressure) stops an agent from hammering it
// every epoch and instead fails fast so the caller can fall back or log,
// rather than blocking the epoch loop on a doomed network call.
type CircuitBreakerBus struct {
	inner Bus
	cb    *gobreaker.CircuitBreaker
	log   *zap.Logger
}

// NewCircuitBreakerBus wraps inner with a breaker that opens after 5
// consecutive Publish failures and probes again after 30 seconds.
func NewCircuitBreakerBus(inner Bus, name string, log *zap.Logger) *CircuitBreakerBus {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &CircuitBreakerBus{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
		log:   log,
	}
}

func (b *CircuitBreakerBus) Publish(topic string, msg messages.Message) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.Publish(topic, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("bus: publish %s: %w", topic, err)
	}
	return err
}

func (b *CircuitBreakerBus) Subscribe(topic string, handler Handler) error {
	return b.inner.Subscribe(topic, handler)
}

func (b *CircuitBreakerBus) Close() error {
	return b.inner.Close()
}
