// Package stream bridges the internal hooks event bus to an external
// transport (SSE, WebSocket, Pulse) by encoding each hooks.Event to its wire
// form and handing it to a Sink. Since the hooks vocabulary already is the
// nine RunEvent variants of §3, no event filtering or reshaping happens here:
// every event published on a turn is forwarded in order.
package stream

import (
	"context"

	"github.com/agentcore/runtime/runtime/agent/hooks"
)

// Sink delivers encoded RunEvents to clients over a transport. Implementations
// must be safe for concurrent Send calls, since a turn's event sink and a
// host's out-of-band traffic may call it from different goroutines.
type Sink interface {
	// Send publishes an event to the sink's underlying transport.
	Send(ctx context.Context, event *hooks.WireEvent) error
	// Close releases resources owned by the sink. Idempotent.
	Close(ctx context.Context) error
}
