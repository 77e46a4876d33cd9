package bus

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/config"
)

// New builds the configured Bus backend ("memory", "nats", or
// "rabbitmq"), wrapping it in a CircuitBreakerBus when cfg.CircuitBreaker
// is enabled. Every agent binary calls this once at startup instead of
// picking a backend itself.
func New(busCfg config.BusConfig, cbCfg config.CircuitBreakerConfig, name string, log *zap.Logger) (Bus, error) {
	var b Bus
	var err error

	switch busCfg.Backend {
	case "", "memory":
		b = NewInMemory(log)
	case "nats":
		b, err = NewNATSBus(busCfg.NATSURL, log)
	case "rabbitmq":
		b, err = NewRabbitMQBus(busCfg.RabbitMQURL, log)
	default:
		return nil, fmt.Errorf("bus: unknown backend %q", busCfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cbCfg.Enabled {
		b = NewCircuitBreakerBus(b, name, log)
	}
	return b, nil
}
