package pulse

import (
	"context"
	"fmt"

	streaming "goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"

	clientspulse "github.com/agentcore/runtime/features/stream/pulse/clients/pulse"
	"github.com/agentcore/runtime/runtime/agent/stream"
)

const (
	defaultSinkName = "agentcore_runtime_subscriber"
	defaultBuffer   = 64
)

// SubscriberOptions configures a Pulse-backed subscriber.
type SubscriberOptions struct {
	// Client is the Pulse client used to consume events. Required.
	Client clientspulse.Client
	// SinkName identifies the Pulse consumer group. Defaults to "agentcore_runtime_subscriber".
	SinkName string
	// Buffer specifies the event channel capacity. Defaults to 64.
	Buffer int
	// Decoder deserializes event payloads. Defaults to the built-in JSON decoder.
	Decoder EnvelopeDecoder
}

// Subscriber consumes Pulse streams and emits runtime stream events. It wraps
// a Pulse sink (consumer group) and decodes incoming payloads into stream.Event
// values.
type Subscriber struct {
	client clientspulse.Client
	buffer int
	name   string
	decode EnvelopeDecoder
}

// NewSubscriber constructs a Pulse-backed subscriber. The Client field in opts
// is required; SinkName, Buffer, and Decoder default to sensible values if not
// provided (see SubscriberOptions field documentation).
func NewSubscriber(opts SubscriberOptions) (*Subscriber, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("pulse client is required")
	}
	return &Subscriber{
		client: opts.Client,
		buffer: resolveBuffer(opts.Buffer),
		name:   resolveSinkName(opts.SinkName),
		decode: resolveDecoder(opts.Decoder),
	}, nil
}

func resolveBuffer(buffer int) int {
	if buffer <= 0 {
		return defaultBuffer
	}
	return buffer
}

func resolveSinkName(name string) string {
	if name == "" {
		return defaultSinkName
	}
	return name
}

func resolveDecoder(decoder EnvelopeDecoder) EnvelopeDecoder {
	if decoder == nil {
		return decodeEnvelope
	}
	return decoder
}

// Subscribe opens a Pulse sink on the given stream ID and returns channels for
// events and errors. It spawns a goroutine that consumes from the sink, decodes
// payloads, and emits stream events. The returned cancel function stops
// consumption, closes the sink, and closes both channels.
//
// Usage:
//
//	events, errs, cancel, err := sub.Subscribe(ctx, "run/abc123")
//	defer cancel()
//	for evt := range events {
//	    // process event
//	}
func (s *Subscriber) Subscribe(
	ctx context.Context,
	streamID string,
	opts ...streamopts.Sink,
) (<-chan stream.Event, <-chan error, context.CancelFunc, error) {
	str, err := s.client.Stream(streamID)
	if err != nil {
		return nil, nil, nil, err
	}
	sink, err := str.NewSink(ctx, s.name, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	events := make(chan stream.Event, s.buffer)
	errs := make(chan error, 1)
	runCtx, cancel := context.WithCancel(ctx)
	go s.consume(runCtx, sink, events, errs)
	cancelFunc := func() {
		cancel()
		sink.Close(context.Background())
	}
	return events, errs, cancelFunc, nil
}

// consume reads events from the Pulse sink channel, decodes them, and emits them
// on the out channel. It acks each event after successful emission. Closes both
// channels when ctx is canceled or when the sink channel closes. Sends errors
// on the errs channel if decoding or acking fails, then returns.
func (s *Subscriber) consume(ctx context.Context, sink clientspulse.Sink, out chan<- stream.Event, errs chan<- error) {
	defer close(out)
	defer close(errs)
	ch := sink.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if !s.relay(ctx, sink, evt, out, errs) {
				return
			}
		}
	}
}

// relay decodes a single Pulse event, forwards it to out, and acks it. It
// returns false when consume should stop (context canceled, decode or ack
// failure).
func (s *Subscriber) relay(ctx context.Context, sink clientspulse.Sink, evt *streaming.Event, out chan<- stream.Event, errs chan<- error) bool {
	decoded, err := s.decode(evt.Payload)
	if err != nil {
		errs <- fmt.Errorf("pulse decode payload: %w", err)
		return false
	}
	select {
	case out <- decoded:
	case <-ctx.Done():
		return false
	}
	if ackErr := sink.Ack(ctx, evt); ackErr != nil {
		errs <- fmt.Errorf("pulse ack: %w", ackErr)
		return false
	}
	return true
}
