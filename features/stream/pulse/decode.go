package pulse

import (
	"encoding/json"
	"time"

	"github.com/agentcore/runtime/runtime/agent/stream"
)

// EnvelopeDecoder converts raw payloads read from Pulse into runtime stream events.
// Custom decoders can be provided to handle non-standard envelope formats.
type EnvelopeDecoder func([]byte) (stream.Event, error)

// decodedEvent implements stream.Event for Pulse-decoded envelopes.
type decodedEvent struct {
	t   stream.EventType
	run string
	s   string
	b   json.RawMessage
}

func (e decodedEvent) Type() stream.EventType { return e.t }
func (e decodedEvent) RunID() string          { return e.run }
func (e decodedEvent) SessionID() string      { return e.s }
func (e decodedEvent) Payload() any           { return e.b }

// decodeEnvelope deserializes the default JSON envelope format and extracts the
// runtime stream event. Returns an error if the payload is malformed.
func decodeEnvelope(payload []byte) (stream.Event, error) {
	var env struct {
		Type      string          `json:"type"`
		RunID     string          `json:"run_id"`
		SessionID string          `json:"session_id"`
		Timestamp time.Time       `json:"timestamp"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	return decodedEvent{
		t:   stream.EventType(env.Type),
		run: env.RunID,
		s:   env.SessionID,
		b:   env.Payload,
	}, nil
}
