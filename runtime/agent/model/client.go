package model

import (
	"context"
	"errors"
)

// Client is the provider-agnostic model client.
//
// Implementations translate Requests into provider calls and adapt
// Responses and Chunks back into the generic types used by planners.
type Client interface {
	// Complete performs a non-streaming model invocation.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Stream performs a streaming model invocation when supported.
	Stream(ctx context.Context, req *Request) (Streamer, error)
}

// Streamer delivers incremental model output.
//
// Callers must drain the stream until Recv returns io.EOF or another
// terminal error, then call Close.
type Streamer interface {
	// Recv returns the next streaming chunk or an error.
	Recv() (Chunk, error)

	// Close releases any resources associated with the stream.
	Close() error

	// Metadata carries provider-specific metadata collected during the call.
	Metadata() map[string]any
}

// ErrStreamingUnsupported indicates the provider does not support streaming.
var ErrStreamingUnsupported = errors.New("model: streaming not supported")

// ErrRateLimited indicates the provider rejected the request due to rate
// limiting after exhausting any configured retries. Callers must not retry
// in a tight loop and should treat this as a transient infrastructure
// failure that is safe to surface to higher layers.
var ErrRateLimited = errors.New("model: rate limited")
