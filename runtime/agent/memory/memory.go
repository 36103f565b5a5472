// Package memory exposes the durable conversation-event history backing
// transcript reconstruction (runtime/agent/transcript). A memory store
// records the chronological sequence of messages, tool calls, tool results,
// and thinking blocks for an (agent, run) pair so a Ledger can replay them
// into provider-ready messages.
package memory

import (
	"context"
	"time"
)

type (
	// Store persists per-run event history. Implementations must be
	// thread-safe; production deployments use a durable backend (see
	// features/memory/mongo).
	Store interface {
		// LoadRun returns the snapshot for the given agent and run. A run with
		// no recorded history returns an empty snapshot, not an error.
		LoadRun(ctx context.Context, agentID, runID string) (Snapshot, error)

		// AppendEvents appends events to the run's history. Implementations
		// should write atomically where the backend allows it.
		AppendEvents(ctx context.Context, agentID, runID string, events ...Event) error
	}

	// Snapshot is the durable state of a run's event history at the moment it
	// was loaded. Snapshots are immutable; a concurrent append is not
	// reflected until the next LoadRun.
	Snapshot struct {
		AgentID string
		RunID   string
		// Events is ordered by Timestamp ascending.
		Events []Event
		// Meta carries backend-defined bookkeeping (cursors, versions) that
		// callers should treat as opaque.
		Meta map[string]any
	}

	// Event is one entry in a run's chronological event log.
	Event struct {
		Type      EventType
		Timestamp time.Time
		// Data holds the event-specific payload; its shape depends on Type.
		Data any
		// Labels carries structured metadata for filtering (e.g. {"tool": "search"}).
		Labels map[string]string
	}

	// Reader provides read-only, queryable access to a Snapshot's events.
	Reader interface {
		Events() []Event
		FilterByType(t EventType) []Event
		// Latest returns the most recent event of type t; ok is false when
		// none exists.
		Latest(t EventType) (evt Event, ok bool)
	}

	// Annotation is planner- or policy-supplied metadata, typically persisted
	// as an EventAnnotation.
	Annotation struct {
		Message string
		Labels  map[string]string
	}
)

// EventType enumerates the kinds of interaction recorded in a run's history.
type EventType string

const (
	// EventUserMessage records an end-user message.
	EventUserMessage EventType = "user_message"
	// EventAssistantMessage records an assistant response.
	EventAssistantMessage EventType = "assistant_message"
	// EventToolCall records a tool invocation request.
	EventToolCall EventType = "tool_call"
	// EventToolResult records the outcome of a tool invocation.
	EventToolResult EventType = "tool_result"
	// EventThinking records a provider reasoning block, preserved verbatim so
	// transcript.BuildMessagesFromEvents can rebuild it in provider order.
	EventThinking EventType = "thinking"
	// EventPlannerNote records planner-generated notes or reasoning that are
	// not part of the provider-visible transcript.
	EventPlannerNote EventType = "planner_note"
	// EventAnnotation records metadata injected by policy engines or hooks.
	EventAnnotation EventType = "annotation"
)

// NewReader returns a Reader over a fixed list of events, typically the
// Events of a Snapshot returned by Store.LoadRun.
func NewReader(events []Event) Reader {
	return sliceReader{events: events}
}

type sliceReader struct{ events []Event }

func (r sliceReader) Events() []Event {
	return append([]Event(nil), r.events...)
}

func (r sliceReader) FilterByType(t EventType) []Event {
	if len(r.events) == 0 {
		return nil
	}
	out := make([]Event, 0, len(r.events))
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r sliceReader) Latest(t EventType) (Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return Event{}, false
}
