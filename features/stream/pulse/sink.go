// Package pulse exposes a stream.Sink implementation that publishes runtime
// events to goa.design/pulse streams. It mirrors the layering used by existing
// Pulse deployments: services build a Redis client, pass it to the Pulse client,
// and hand the resulting sink to the runtime.
package pulse

import (
	"context"
	"errors"
	"time"

	"github.com/agentcore/runtime/features/stream/pulse/clients/pulse"
	"github.com/agentcore/runtime/runtime/agent/stream"
)

// Options configures the Pulse sink.
type Options struct {
	// Client is the Pulse client used to publish events. Required.
	Client pulse.Client
	// StreamID derives the target Pulse stream from an event. Defaults to
	// `session/<SessionID>`.
	StreamID func(stream.Event) (string, error)
	// MarshalEnvelope allows overriding the envelope serialization (primarily for tests).
	MarshalEnvelope func(Envelope) ([]byte, error)
	// OnPublished, when set, is invoked after an event has been successfully
	// written to the underlying Pulse stream. If it returns an error, Send
	// fails and callers should treat the event as not fully emitted.
	OnPublished func(context.Context, PublishedEvent) error
}

// Sink publishes runtime Event values into Pulse streams. It delegates
// serialization to the configured envelope marshaler.
// Thread-safe for concurrent Send operations.
type Sink struct {
	client pulse.Client
	opts   sinkOptions
}

// sinkOptions holds internal configuration derived from Options.
type sinkOptions struct {
	streamID        func(stream.Event) (string, error)
	marshalEnvelope func(Envelope) ([]byte, error)
	onPublished     func(context.Context, PublishedEvent) error
}

// NewSink constructs a Pulse-backed stream sink. The Client field in opts is
// required; StreamID and MarshalEnvelope default to the built-in implementations
// if not provided.
func NewSink(opts Options) (*Sink, error) {
	if opts.Client == nil {
		return nil, errors.New("pulse client is required")
	}
	return &Sink{
		client: opts.Client,
		opts:   resolveSinkOptions(opts),
	}, nil
}

func resolveSinkOptions(opts Options) sinkOptions {
	cfg := sinkOptions{
		streamID:        defaultStreamID,
		marshalEnvelope: defaultMarshal,
		onPublished:     opts.OnPublished,
	}
	if opts.StreamID != nil {
		cfg.streamID = opts.StreamID
	}
	if opts.MarshalEnvelope != nil {
		cfg.marshalEnvelope = opts.MarshalEnvelope
	}
	return cfg
}

// Send publishes the event to the derived Pulse stream. It derives the stream ID,
// wraps the event in an envelope, marshals it to JSON, and publishes it via the
// Pulse client. Thread-safe for concurrent calls.
func (s *Sink) Send(ctx context.Context, event stream.Event) error {
	streamID, err := s.opts.streamID(event)
	if err != nil {
		return err
	}
	handle, err := s.client.Stream(streamID)
	if err != nil {
		return err
	}
	env := buildEnvelope(event)
	payload, err := s.opts.marshalEnvelope(env)
	if err != nil {
		return err
	}
	entryID, err := handle.Add(ctx, env.Type, payload)
	if err != nil {
		return err
	}
	if cb := s.opts.onPublished; cb != nil {
		return cb(ctx, PublishedEvent{
			Event:    event,
			StreamID: streamID,
			EntryID:  entryID,
		})
	}
	return nil
}

// buildEnvelope wraps event in its wire Envelope, splitting off tool_end's
// ServerData so it travels in its own field instead of inline in Payload.
func buildEnvelope(event stream.Event) Envelope {
	env := Envelope{
		Type:      string(event.Type()),
		RunID:     event.RunID(),
		SessionID: event.SessionID(),
		Timestamp: time.Now().UTC(),
		Payload:   event.Payload(),
	}
	switch ev := event.(type) {
	case stream.ToolEnd:
		env.ServerData = ev.Data.ServerData
		payload := ev.Data
		payload.ServerData = nil
		env.Payload = payload
	case *stream.ToolEnd:
		env.ServerData = ev.Data.ServerData
		payload := ev.Data
		payload.ServerData = nil
		env.Payload = payload
	}
	return env
}

// Close releases resources owned by the sink. This delegates to the underlying
// Pulse client, which may or may not close the Redis connection depending on
// the client implementation.
func (s *Sink) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
