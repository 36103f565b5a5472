// Package pulse adapts goa.design/pulse Redis-backed streams as a
// transport.Transport: inbound RunRequests arrive as entries on a request
// stream consumed through a Pulse consumer-group sink, outbound RunEvents
// are published to a separate event stream.
package pulse

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"goa.design/pulse/streaming"

	clientspulse "github.com/agentcore/runtime/features/stream/pulse/clients/pulse"
	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transport"
)

// defaultSinkName is the Pulse consumer group used when Options.SinkName is
// left empty.
const defaultSinkName = "orchestrator"

// Options configures a pulse-backed Transport.
type Options struct {
	// Client is the Pulse client used to open both streams. Required.
	Client clientspulse.Client
	// RequestStream names the stream clients publish RunRequests onto.
	// Required.
	RequestStream string
	// EventStream names the stream the orchestrator publishes RunEvents
	// onto. Required.
	EventStream string
	// SinkName identifies the consumer group read from RequestStream.
	// Defaults to "orchestrator".
	SinkName string
}

// Transport implements transport.Transport over a pair of Pulse streams.
// SupportsBackgroundReceive always reports true: Pulse delivers requests
// concurrently with turn processing rather than one at a time off a single
// pipe, so Receive may run alongside an in-flight turn.
type Transport struct {
	client clientspulse.Client
	events clientspulse.Stream
	sink   clientspulse.Sink
	in     <-chan *streaming.Event

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New opens both Pulse streams named in opts and subscribes a consumer group
// sink on the request stream.
func New(ctx context.Context, opts Options) (*Transport, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("pulse transport: client is required")
	}
	if opts.RequestStream == "" || opts.EventStream == "" {
		return nil, fmt.Errorf("pulse transport: request and event stream names are required")
	}
	sinkName := opts.SinkName
	if sinkName == "" {
		sinkName = defaultSinkName
	}

	requests, err := opts.Client.Stream(opts.RequestStream)
	if err != nil {
		return nil, fmt.Errorf("pulse transport: open request stream: %w", err)
	}
	events, err := opts.Client.Stream(opts.EventStream)
	if err != nil {
		return nil, fmt.Errorf("pulse transport: open event stream: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sink, err := requests.NewSink(runCtx, sinkName)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("pulse transport: open consumer group: %w", err)
	}

	return &Transport{
		client: opts.Client,
		events: events,
		sink:   sink,
		in:     sink.Subscribe(),
		cancel: cancel,
	}, nil
}

// SupportsBackgroundReceive implements transport.Transport.
func (t *Transport) SupportsBackgroundReceive() bool { return true }

// Receive implements transport.Transport, blocking for the next RunRequest
// delivered on the request stream.
func (t *Transport) Receive(ctx context.Context) (transport.RunRequest, error) {
	select {
	case evt, ok := <-t.in:
		if !ok {
			return transport.RunRequest{}, &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed}
		}
		req, err := transport.DecodeWireRequest(evt.Payload)
		if err != nil {
			return transport.RunRequest{}, fmt.Errorf("pulse: decode run request: %w", err)
		}
		if ackErr := t.sink.Ack(ctx, evt); ackErr != nil {
			return transport.RunRequest{}, fmt.Errorf("pulse: ack run request: %w", ackErr)
		}
		return req, nil
	case <-ctx.Done():
		return transport.RunRequest{}, ctx.Err()
	}
}

// Send implements transport.Transport, publishing event to the event stream
// keyed by its type.
func (t *Transport) Send(ctx context.Context, event *hooks.WireEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("pulse: encode event: %w", err)
	}
	if _, err := t.events.Add(ctx, string(event.Type), data); err != nil {
		return &toolerrors.TransportError{Kind: toolerrors.TransportOutputClosed, Cause: err}
	}
	return nil
}

// CloseInput implements transport.Transport, closing the consumer group so
// Receive returns TransportInputClosed once its channel drains.
func (t *Transport) CloseInput(ctx context.Context) error {
	t.sink.Close(ctx)
	return nil
}

// Close implements transport.Transport, idempotently tearing down both
// streams.
func (t *Transport) Close(ctx context.Context) error {
	t.closeOnce.Do(func() {
		t.cancel()
		t.sink.Close(ctx)
	})
	return t.client.Close(ctx)
}
