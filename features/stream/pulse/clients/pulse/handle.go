package pulse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

// Stream exposes the operations needed to publish runtime events and create sinks
// (consumer groups).
type Stream interface {
	// Add publishes an event with the given name and payload to the stream, returning
	// the event ID assigned by Redis (e.g., "1234567890-0").
	Add(ctx context.Context, event string, payload []byte) (string, error)
	// NewSink creates a Pulse sink (consumer group) on this stream for reading events.
	NewSink(ctx context.Context, name string, opts ...streamopts.Sink) (Sink, error)
	// Destroy deletes the entire stream and all its messages from Redis.
	Destroy(ctx context.Context) error
}

// handle wraps a Pulse stream and applies optional timeouts to operations.
type handle struct {
	stream  *streaming.Stream
	timeout time.Duration
}

// newHandle opens (or attaches to) the named Pulse stream over redis, applying opts.
func newHandle(name string, opts []streamopts.Stream, conn *redis.Client, timeout time.Duration) (*handle, error) {
	str, err := streaming.NewStream(name, conn, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pulse stream: %w", err)
	}
	return &handle{stream: str, timeout: timeout}, nil
}

// Add publishes an event to the stream with an optional timeout. Returns the
// Redis-assigned event ID or an error if the event name is empty or the
// operation fails.
func (h *handle) Add(ctx context.Context, event string, payload []byte) (string, error) {
	if event == "" {
		return "", errors.New("event name is required")
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	id, err := h.stream.Add(ctx, event, payload)
	if err != nil {
		return "", fmt.Errorf("pulse add: %w", err)
	}
	return id, nil
}

// NewSink creates a consumer group on the stream. Delegates to the underlying
// Pulse stream and wraps the result in a sinkAdapter.
func (h *handle) NewSink(ctx context.Context, name string, opts ...streamopts.Sink) (Sink, error) {
	sink, err := h.stream.NewSink(ctx, name, opts...)
	if err != nil {
		return nil, err
	}
	return &sinkAdapter{Sink: sink}, nil
}

// Destroy deletes the entire stream and all its messages from Redis.
func (h *handle) Destroy(ctx context.Context) error {
	return h.stream.Destroy(ctx)
}
