package bus

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

// RabbitMQBus is a Bus backed by a fanout exchange per topic, mirroring the
// one-writer-many-readers shape every epoch topic needs (every subscriber
// gets every message, not a competing-consumer split).
type RabbitMQBus struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
	mu      sync.RWMutex
	log     *zap.Logger
}

// NewRabbitMQBus dials the given AMQP URL and opens a channel.
func NewRabbitMQBus(url string, log *zap.Logger) (*RabbitMQBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("bus: dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("bus: open RabbitMQ channel: %w", err)
	}

	b := &RabbitMQBus{conn: conn, channel: ch, url: url, log: log}
	go b.monitorConnection()

	log.Info("connected to RabbitMQ", zap.String("url", url))
	return b, nil
}

func (b *RabbitMQBus) Publish(topic string, msg messages.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.channel == nil {
		return fmt.Errorf("bus: RabbitMQ channel not available")
	}
	if err := b.channel.ExchangeDeclare(topic, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("bus: declare exchange %s: %w", topic, err)
	}

	data, err := messages.Encode(msg)
	if err != nil {
		return fmt.Errorf("bus: encode %s: %w", topic, err)
	}

	err = b.channel.Publish(topic, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        data,
		Timestamp:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("bus: publish %s: %w", topic, err)
	}
	return nil
}

func (b *RabbitMQBus) Subscribe(topic string, handler Handler) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.channel == nil {
		return fmt.Errorf("bus: RabbitMQ channel not available")
	}
	if err := b.channel.ExchangeDeclare(topic, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("bus: declare exchange %s: %w", topic, err)
	}

	queue, err := b.channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("bus: declare queue for %s: %w", topic, err)
	}
	if err := b.channel.QueueBind(queue.Name, "", topic, false, nil); err != nil {
		return fmt.Errorf("bus: bind queue for %s: %w", topic, err)
	}

	deliveries, err := b.channel.Consume(queue.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("bus: consume %s: %w", topic, err)
	}

	go func() {
		for delivery := range deliveries {
			msg, err := messages.Decode(delivery.Body)
			if err != nil {
				b.log.Warn("dropping undecodable message", zap.String("topic", topic), zap.Error(err))
				continue
			}
			if err := handler(msg); err != nil {
				b.log.Error("handler failed", zap.String("topic", topic), zap.Error(err))
			}
		}
	}()

	b.log.Info("subscribed to RabbitMQ exchange", zap.String("exchange", topic))
	return nil
}

func (b *RabbitMQBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

func (b *RabbitMQBus) monitorConnection() {
	for {
		reason, ok := <-b.conn.NotifyClose(make(chan *amqp.Error))
		if !ok {
			return
		}
		b.log.Warn("RabbitMQ connection lost, reconnecting", zap.String("reason", reason.Reason))

		for {
			time.Sleep(5 * time.Second)
			conn, err := amqp.Dial(b.url)
			if err != nil {
				b.log.Error("failed to reconnect to RabbitMQ", zap.Error(err))
				continue
			}
			ch, err := conn.Channel()
			if err != nil {
				conn.Close()
				continue
			}

			b.mu.Lock()
			b.conn = conn
			b.channel = ch
			b.mu.Unlock()

			b.log.Info("reconnected to RabbitMQ")
			break
		}
	}
}
