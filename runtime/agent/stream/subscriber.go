package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentcore/runtime/runtime/agent/hooks"
)

// Subscriber is a hooks.Subscriber that encodes every received event to its
// wire form and forwards it to a Sink. Register it on a session's bus to
// bridge turn execution to a connected transport.
type Subscriber struct {
	sink Sink
}

// NewSubscriber constructs a subscriber that forwards every hook event to
// sink. Returns an error if sink is nil.
func NewSubscriber(sink Sink) (*Subscriber, error) {
	if sink == nil {
		return nil, errors.New("stream sink is required")
	}
	return &Subscriber{sink: sink}, nil
}

// HandleEvent implements hooks.Subscriber by encoding evt and forwarding it
// to the configured sink.
func (s *Subscriber) HandleEvent(ctx context.Context, evt hooks.Event) error {
	w, err := hooks.Encode(evt)
	if err != nil {
		return fmt.Errorf("stream: encode %s: %w", evt.Type(), err)
	}
	return s.sink.Send(ctx, w)
}
