package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transport"
)

// turnSink is the event sink built fresh for every turn (§4.1 step 1). It
// buffers events published during the turn and forwards them to the
// transport on a background goroutine, so a slow or blocked transport never
// stalls the step pipeline. Once the transport's output side reports
// TransportOutputClosed, forwarding stops silently; the turn itself
// continues to completion per §7's recovery table.
type turnSink struct {
	events chan hooks.Event
	done   chan struct{}
	once   sync.Once
}

// newTurnSink starts the forwarding goroutine and returns the sink. close
// must be called after the turn's pipeline has returned, to flush any
// buffered events and await the forwarding goroutine's exit (§4.1 step 9).
func newTurnSink(ctx context.Context, t transport.Transport, bufferSize int) *turnSink {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	s := &turnSink{
		events: make(chan hooks.Event, bufferSize),
		done:   make(chan struct{}),
	}
	go s.forward(ctx, t)
	return s
}

func (s *turnSink) forward(ctx context.Context, t transport.Transport) {
	defer close(s.done)
	outputClosed := false
	for evt := range s.events {
		if outputClosed {
			continue
		}
		wire, err := hooks.Encode(evt)
		if err != nil {
			continue
		}
		if err := t.Send(ctx, wire); err != nil {
			var te *toolerrors.TransportError
			if errors.As(err, &te) && te.Kind == toolerrors.TransportOutputClosed {
				outputClosed = true
				continue
			}
			outputClosed = true
		}
	}
}

// Publish implements turnctx.EventSink. It blocks if the buffer is
// momentarily full rather than dropping an event, preserving per-turn order.
func (s *turnSink) Publish(_ context.Context, event hooks.Event) error {
	s.events <- event
	return nil
}

// close stops accepting new events and waits for the forwarding goroutine to
// drain the buffer and exit.
func (s *turnSink) close() {
	s.once.Do(func() { close(s.events) })
	<-s.done
}
