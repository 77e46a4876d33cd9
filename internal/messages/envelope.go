// Package messages defines the typed wire schema for the V2G epoch bus:
// a common envelope, one struct per message type named in spec §6, a
// decode-time Validate() (Design Note 2: schema once, not per-setter), and
// a MessageType -> decoder registry (Design Note 1) used by bus consumers
// to dispatch without runtime type switches on raw JSON.
package messages

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope carries the fields every message has in common, per spec §6.
// MessageID is not named in spec §6's envelope field list but is required
// for TriggeringMessageIds to reference anything; it is a google/uuid
// string assigned by the publisher (spec §11 domain stack).
type Envelope struct {
	MessageID            string    `json:"MessageId"`
	MessageType          string    `json:"MessageType"`
	SimulationID         string    `json:"SimulationId"`
	SourceProcessID      string    `json:"SourceProcessId"`
	EpochNumber          int       `json:"EpochNumber"`
	TriggeringMessageIDs []string  `json:"TriggeringMessageIds"`
	Timestamp            time.Time `json:"Timestamp"`
}

// Message is implemented by every concrete message type.
type Message interface {
	Env() Envelope
	Validate() error
	Equal(other Message) bool
}

// Decoder unmarshals a raw payload into a concrete Message.
type Decoder func(raw []byte) (Message, error)

var registry = map[string]Decoder{}

// Register adds a decoder for a MessageType to the registry. Called from
// each message type's init().
func Register(messageType string, decode Decoder) {
	registry[messageType] = decode
}

// Decode looks up the message's MessageType in the envelope, finds the
// matching decoder, and validates the result before returning it. Unknown
// types and decode/validation failures return an error so the caller can
// log and drop the message per spec §7, rather than panic.
func Decode(raw []byte) (Message, error) {
	var probe struct {
		MessageType string `json:"MessageType"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("messages: malformed envelope: %w", err)
	}

	decode, ok := registry[probe.MessageType]
	if !ok {
		return nil, fmt.Errorf("messages: unknown message type %q", probe.MessageType)
	}

	msg, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("messages: decode %s: %w", probe.MessageType, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("messages: invalid %s: %w", probe.MessageType, err)
	}
	return msg, nil
}

// Encode marshals a message to its wire form.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// NewEnvelope builds an envelope for a freshly published message: a new
// MessageID, messageType filled in, and Timestamp set to now.
func NewEnvelope(messageType, simulationID, sourceProcessID string, epochNumber int, triggeringMessageIDs []string) Envelope {
	return Envelope{
		MessageID:            uuid.NewString(),
		MessageType:          messageType,
		SimulationID:         simulationID,
		SourceProcessID:      sourceProcessID,
		EpochNumber:          epochNumber,
		TriggeringMessageIDs: triggeringMessageIDs,
		Timestamp:            time.Now(),
	}
}
