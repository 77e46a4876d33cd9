package bus

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

// NATSBus is a Bus backed by NATS core pub/sub. Topics map directly to
// NATS subjects (the topic names in internal/messages are valid NATS
// subjects as they stand).
type NATSBus struct {
	conn *nats.Conn
	log  *zap.Logger
}

// NewNATSBus connects to the given NATS URL.
func NewNATSBus(url string, log *zap.Logger) (*NATSBus, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("bus: connect to NATS: %w", err)
	}

	log.Info("connected to NATS", zap.String("url", url))
	return &NATSBus{conn: nc, log: log}, nil
}

func (b *NATSBus) Publish(topic string, msg messages.Message) error {
	data, err := messages.Encode(msg)
	if err != nil {
		return fmt.Errorf("bus: encode %s: %w", topic, err)
	}
	return b.conn.Publish(topic, data)
}

func (b *NATSBus) Subscribe(topic string, handler Handler) error {
	_, err := b.conn.Subscribe(topic, func(natsMsg *nats.Msg) {
		msg, err := messages.Decode(natsMsg.Data)
		if err != nil {
			b.log.Warn("dropping undecodable message", zap.String("topic", topic), zap.Error(err))
			return
		}
		if err := handler(msg); err != nil {
			b.log.Error("handler failed", zap.String("topic", topic), zap.Error(err))
		}
	})
	return err
}

func (b *NATSBus) Close() error {
	b.conn.Close()
	return nil
}
