package orchestrator

import (
	"context"
	"sync"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transport"
)

// fakeTransport is an in-memory transport.Transport for tests: Receive
// drains an inbound request channel, Send appends to a recorded event slice.
type fakeTransport struct {
	backgroundReceive bool

	in       chan transport.RunRequest
	inClosed bool

	mu     sync.Mutex
	sent   []*hooks.WireEvent
	closed bool
}

func newFakeTransport(backgroundReceive bool) *fakeTransport {
	return &fakeTransport{backgroundReceive: backgroundReceive, in: make(chan transport.RunRequest, 32)}
}

func (f *fakeTransport) SupportsBackgroundReceive() bool { return f.backgroundReceive }

func (f *fakeTransport) Receive(ctx context.Context) (transport.RunRequest, error) {
	select {
	case req, ok := <-f.in:
		if !ok {
			return transport.RunRequest{}, &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed}
		}
		return req, nil
	case <-ctx.Done():
		return transport.RunRequest{}, ctx.Err()
	}
}

func (f *fakeTransport) Send(_ context.Context, event *hooks.WireEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, event)
	return nil
}

func (f *fakeTransport) CloseInput(context.Context) error {
	if !f.inClosed {
		f.inClosed = true
		close(f.in)
	}
	return nil
}

func (f *fakeTransport) Close(context.Context) error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) submit(req transport.RunRequest) {
	f.in <- req
}

func (f *fakeTransport) eventTypes() []hooks.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]hooks.EventType, len(f.sent))
	for i, e := range f.sent {
		types[i] = e.Type
	}
	return types
}

func (f *fakeTransport) lastSent() *hooks.WireEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}
