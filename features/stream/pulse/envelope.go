package pulse

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentcore/runtime/runtime/agent/stream"
)

// Envelope wraps runtime events for transmission over Pulse streams.
// It adds metadata and serializes the event content as JSON.
//
// Envelope is part of the sink's public configuration surface to support
// callers that need to customize JSON serialization (e.g., for tests or
// transport interop). The sink always publishes an envelope as the value
// stored in Pulse; only the marshaler is customizable.
type Envelope struct {
	// Type identifies the event kind (e.g., "tool_end", "assistant_reply").
	Type string `json:"type"`
	// RunID links the event to a specific workflow execution.
	RunID string `json:"run_id"`
	// SessionID links the event to the logical session that owns the run.
	SessionID string `json:"session_id,omitempty"`
	// Timestamp records when the event was published (UTC).
	Timestamp time.Time `json:"timestamp"`
	// Payload contains the event-specific data, if any.
	Payload any `json:"payload,omitempty"`
	// ServerData carries server-only metadata for events that support it
	// (currently `tool_end`). It is never forwarded to model providers, but
	// downstream subscribers (e.g., persistence drains) may consume it.
	ServerData json.RawMessage `json:"server_data,omitempty"`
}

// PublishedEvent describes a runtime event that has been successfully
// written to a Pulse stream. It carries the original event together with
// the concrete stream name and the Redis-assigned entry ID.
type PublishedEvent struct {
	Event    stream.Event
	StreamID string
	EntryID  string
}

// defaultStreamID derives the Pulse stream name from the event's SessionID.
// Returns an error if the SessionID is empty.
func defaultStreamID(event stream.Event) (string, error) {
	if event.SessionID() == "" {
		return "", errors.New("stream event missing session id")
	}
	return fmt.Sprintf("session/%s", event.SessionID()), nil
}

// defaultMarshal serializes an envelope to JSON.
func defaultMarshal(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}
