package bus

import (
	"testing"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/config"
)

func TestNewDefaultsToInMemory(t *testing.T) {
	b, err := New(config.BusConfig{}, config.CircuitBreakerConfig{}, "test", zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := b.(*InMemory); !ok {
		t.Fatalf("expected an empty backend to default to *InMemory, got %T", b)
	}
}

func TestNewWrapsInCircuitBreakerWhenEnabled(t *testing.T) {
	b, err := New(config.BusConfig{}, config.CircuitBreakerConfig{Enabled: true, FailureThreshold: 5}, "test", zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := b.(*CircuitBreakerBus); !ok {
		t.Fatalf("expected a circuit-breaker-wrapped bus, got %T", b)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(config.BusConfig{Backend: "carrier-pigeon"}, config.CircuitBreakerConfig{}, "test", zap.NewNop())
	if err == nil {
		t.Fatal("expected an error for an unknown bus backend")
	}
}
