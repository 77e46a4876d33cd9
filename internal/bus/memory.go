package bus

import (
	"sync"

	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
	"go.uber.org/zap"
)

// InMemory is a Bus backed by nothing but a handler map and a mutex: every
// Publish fans out synchronously to every Subscribe'd handler for that
// topic. It exists for the harness and for deterministic unit tests, where
// a real broker's network latency and delivery reordering would make
// epoch-lockstep assertions flaky.
type InMemory struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *zap.Logger
}

// NewInMemory builds an empty InMemory bus.
func NewInMemory(log *zap.Logger) *InMemory {
	return &InMemory{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

func (b *InMemory) Publish(topic string, msg messages.Message) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(msg); err != nil {
			b.log.Error("in-memory bus handler failed", zap.String("topic", topic), zap.Error(err))
		}
	}
	return nil
}

func (b *InMemory) Subscribe(topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

func (b *InMemory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]Handler)
	return nil
}
