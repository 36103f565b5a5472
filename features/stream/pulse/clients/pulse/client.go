// Package pulse provides a thin agentcore-runtime specific wrapper around
// Pulse streams. It mirrors the layering used across existing Pulse
// deployments: callers build a Redis client, pass it to New, and receive a
// typed interface that exposes only the operations needed by the stream sink.
package pulse

//go:generate cmg gen .

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	streamopts "goa.design/pulse/streaming/options"
)

// Options configures the Pulse client.
type Options struct {
	// Redis is the Redis connection used to back Pulse streams. Required.
	Redis *redis.Client
	// StreamMaxLen bounds the number of entries kept per stream. Zero uses Pulse defaults.
	StreamMaxLen int
	// StreamOptions returns additional stream options to apply when opening a stream.
	// It is invoked once per Stream call with the stream name.
	//
	// Returning nil means "no additional options".
	StreamOptions func(name string) []streamopts.Stream
	// OperationTimeout bounds individual Add operations. Zero means no timeout.
	OperationTimeout time.Duration
}

// Client exposes the subset of Pulse APIs required by the runtime stream sink.
// Implementations wrap goa.design/pulse streaming and provide type-safe access
// to stream operations.
type Client interface {
	// Stream returns a handle to the named Pulse stream, creating it if needed.
	Stream(name string, opts ...streamopts.Stream) (Stream, error)
	// Close releases resources owned by the client. Callers typically own the Redis
	// connection and may provide a no-op implementation.
	Close(ctx context.Context) error
}

// client wraps a Redis connection and provides stream access.
type client struct {
	redis        *redis.Client
	maxLen       int
	streamOptsFn func(name string) []streamopts.Stream
	timeout      time.Duration
}

// New constructs a Pulse client backed by the provided Redis connection. The
// Redis field in opts is required; other fields are optional. Returns an error
// if opts.Redis is nil.
func New(opts Options) (Client, error) {
	if opts.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	return &client{
		redis:        opts.Redis,
		maxLen:       opts.StreamMaxLen,
		streamOptsFn: opts.StreamOptions,
		timeout:      opts.OperationTimeout,
	}, nil
}

// Stream returns a handle to the named Pulse stream, creating it if it doesn't
// exist. Returns an error if the name is empty or if stream creation fails.
func (c *client) Stream(name string, opts ...streamopts.Stream) (Stream, error) {
	if name == "" {
		return nil, errors.New("stream name is required")
	}
	return newHandle(name, c.resolveStreamOptions(name, opts), c.redis, c.timeout)
}

// resolveStreamOptions merges the client's default stream options (max length,
// caller-provided StreamOptions callback) with the per-call overrides in opts.
func (c *client) resolveStreamOptions(name string, opts []streamopts.Stream) []streamopts.Stream {
	var merged []streamopts.Stream
	if c.maxLen > 0 {
		merged = append(merged, streamopts.WithStreamMaxLen(c.maxLen))
	}
	if c.streamOptsFn != nil {
		merged = append(merged, c.streamOptsFn(name)...)
	}
	return append(merged, opts...)
}

// Close is a no-op because the caller typically owns and manages the Redis
// connection lifecycle.
func (c *client) Close(ctx context.Context) error {
	return nil
}
