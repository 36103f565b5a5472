package pulse

import (
	"context"

	"goa.design/pulse/streaming"
)

// Sink mirrors the subset of goa.design/pulse streaming sinks required by the subscriber.
// It represents a consumer group that reads from a Pulse stream.
type Sink interface {
	// Subscribe returns a channel that emits events as they arrive from the stream.
	Subscribe() <-chan *streaming.Event
	// Ack acknowledges successful processing of an event, removing it from the pending list.
	Ack(context.Context, *streaming.Event) error
	// Close stops the sink and releases resources.
	Close(context.Context)
}

// sinkAdapter adapts streaming.Sink to the Sink interface, making Close match
// the expected signature (return void instead of error).
type sinkAdapter struct {
	*streaming.Sink
}

// Close delegates to the underlying Pulse sink.
func (s sinkAdapter) Close(ctx context.Context) {
	s.Sink.Close(ctx)
}
