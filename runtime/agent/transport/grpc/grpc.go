// Package grpc adapts a bidirectional-streaming google.golang.org/grpc
// method as a transport.Transport. There is no .proto file and no
// generated client/server stubs: the service is registered directly
// against *grpc.Server with a hand-written grpc.ServiceDesc, and every
// message on the wire is a google.golang.org/protobuf well-known
// structpb.Struct carrying the same field names transport.WireRequest and
// hooks.WireEvent already use on the JSON-based transports.
package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transport"
)

const (
	serviceName = "agentcore.transport.Run"
	methodName  = "Run"
)

// Handler is invoked once per incoming gRPC connection with a Transport
// bound to that stream; the orchestrator drives RunRequest/RunEvent
// through it exactly as it would any other transport.Transport.
type Handler func(*Transport) error

// RegisterService registers the Run streaming method on s. h runs once per
// client connection for the lifetime of that stream.
func RegisterService(s *grpc.Server, h Handler) {
	s.RegisterService(&serviceDesc, registeredHandler{fn: h})
}

// registeredHandler carries h through grpc.Server.RegisterService, which
// requires an interface{} it passes back into the StreamDesc's Handler.
type registeredHandler struct{ fn Handler }

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	// HandlerType is left nil: the service implementation is a plain func
	// value, not a generated interface, so there is nothing for grpc to
	// type-assert ss against at registration time.
	HandlerType: nil,
	Streams: []grpc.StreamDesc{{
		StreamName:    methodName,
		Handler:       streamHandler,
		ServerStreams: true,
		ClientStreams: true,
	}},
}

func streamHandler(srv any, stream grpc.ServerStream) error {
	rh, ok := srv.(registeredHandler)
	if !ok {
		return fmt.Errorf("grpc: unexpected handler type %T", srv)
	}
	tr := &Transport{stream: stream, closed: make(chan struct{})}
	return rh.fn(tr)
}

// Transport implements transport.Transport over one gRPC bidirectional
// stream. SupportsBackgroundReceive always reports true: gRPC streams read
// and write independently over the same connection, same as the HTTP/2
// request/response streams SSE and Pulse's Redis streams already deliver
// concurrently with turn processing.
type Transport struct {
	stream grpc.ServerStream

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// SupportsBackgroundReceive implements transport.Transport.
func (t *Transport) SupportsBackgroundReceive() bool { return true }

// Receive implements transport.Transport, blocking for the next RunRequest
// delivered on the stream.
func (t *Transport) Receive(ctx context.Context) (transport.RunRequest, error) {
	type result struct {
		req transport.RunRequest
		err error
	}
	ch := make(chan result, 1)
	go func() {
		var msg structpb.Struct
		if err := t.stream.RecvMsg(&msg); err != nil {
			ch <- result{err: &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed, Cause: err}}
			return
		}
		req, err := decodeRequest(&msg)
		if err != nil {
			ch <- result{err: fmt.Errorf("grpc: decode run request: %w", err)}
			return
		}
		ch <- result{req: req}
	}()

	select {
	case res := <-ch:
		return res.req, res.err
	case <-ctx.Done():
		return transport.RunRequest{}, ctx.Err()
	case <-t.closed:
		return transport.RunRequest{}, &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed}
	}
}

// Send implements transport.Transport, writing event as a structpb.Struct
// message on the stream.
func (t *Transport) Send(_ context.Context, event *hooks.WireEvent) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("grpc: encode event: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	select {
	case <-t.closed:
		return &toolerrors.TransportError{Kind: toolerrors.TransportOutputClosed}
	default:
	}

	if err := t.stream.SendMsg(msg); err != nil {
		return &toolerrors.TransportError{Kind: toolerrors.TransportOutputClosed, Cause: err}
	}
	return nil
}

// CloseInput implements transport.Transport. gRPC streams only expose
// close-on-both-directions; the next RecvMsg after the client half-closes
// surfaces io.EOF as TransportInputClosed on its own, so this is a no-op.
func (t *Transport) CloseInput(context.Context) error { return nil }

// Close implements transport.Transport, idempotently stopping further
// Send/Receive calls. The underlying stream itself is torn down by the
// *grpc.Server once the Handler registered via RegisterService returns.
func (t *Transport) Close(context.Context) error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// decodeRequest converts a structpb.Struct message into a RunRequest by
// round-tripping it through the shared JSON wire format so both the gRPC
// and JSON-based transports agree on field names.
func decodeRequest(msg *structpb.Struct) (transport.RunRequest, error) {
	data, err := json.Marshal(msg.AsMap())
	if err != nil {
		return transport.RunRequest{}, err
	}
	return transport.DecodeWireRequest(data)
}

// encodeEvent converts a hooks.WireEvent into a structpb.Struct message by
// round-tripping it through JSON.
func encodeEvent(event *hooks.WireEvent) (*structpb.Struct, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}
