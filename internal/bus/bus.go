// Package bus defines the publish/subscribe transport every agent uses to
// exchange messages.Message values on named topics (spec §6), with
// interchangeable in-memory, NATS, and RabbitMQ backends and an optional
// circuit-breaker wrapper around Publish.
package bus

import "github.com/secha-project/ev-v2g-simulation-components/internal/messages"

// Handler is invoked for each message received on a subscribed topic. A
// returned error is logged by the backend but never stops the
// subscription; dropping a single malformed or unprocessable message must
// not take an agent off the bus (spec §7).
type Handler func(msg messages.Message) error

// Bus is the transport contract every agent depends on. The NATS and
// RabbitMQ backends encode messages.Message to JSON on Publish and decode
// + validate on delivery before invoking a Handler, so callers never see
// raw bytes; the in-memory backend hands the published Message value to
// handlers as is, with no encoding or validation.
type Bus interface {
	Publish(topic string, msg messages.Message) error
	Subscribe(topic string, handler Handler) error
	Close() error
}
