package grpc

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/transport"
)

const bufSize = 1 << 20

func startServer(t *testing.T, h Handler) *grpclib.ClientConn {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	srv := grpclib.NewServer()
	RegisterService(srv, h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(dialer),
		grpclib.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })
	return cc
}

func openClientStream(t *testing.T, cc *grpclib.ClientConn) grpclib.ClientStream {
	t.Helper()
	desc := &grpclib.StreamDesc{StreamName: methodName, ServerStreams: true, ClientStreams: true}
	stream, err := cc.NewStream(context.Background(), desc, "/"+serviceName+"/"+methodName)
	require.NoError(t, err)
	return stream
}

func structOf(t *testing.T, v any) *structpb.Struct {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestTransportReceivesRunRequestFromClientStream(t *testing.T) {
	received := make(chan transport.RunRequest, 1)
	cc := startServer(t, func(tr *Transport) error {
		req, err := tr.Receive(context.Background())
		require.NoError(t, err)
		received <- req
		return nil
	})

	stream := openClientStream(t, cc)
	wire, err := transport.EncodeWireRequest(transport.RunRequest{
		SessionID: "s1", TurnID: "t1",
		Input: transport.Input{Kind: transport.InputText, Text: "hi"},
	})
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(wire, &fields))
	msg, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(msg))

	select {
	case req := <-received:
		require.Equal(t, "s1", req.SessionID)
		require.Equal(t, "hi", req.Input.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for request")
	}
}

func TestTransportSendsEventToClientStream(t *testing.T) {
	ready := make(chan struct{})
	cc := startServer(t, func(tr *Transport) error {
		close(ready)
		return tr.Send(context.Background(), &hooks.WireEvent{Type: "assistant_reply", Payload: []byte(`{"chunk":"hi"}`)})
	})

	stream := openClientStream(t, cc)
	<-ready

	var msg structpb.Struct
	require.NoError(t, stream.RecvMsg(&msg))
	fields := msg.AsMap()
	require.Equal(t, "assistant_reply", fields["type"])
}

func TestCloseStopsFurtherSend(t *testing.T) {
	closed := make(chan *Transport, 1)
	cc := startServer(t, func(tr *Transport) error {
		require.NoError(t, tr.Close(context.Background()))
		closed <- tr
		return nil
	})
	_ = openClientStream(t, cc)

	tr := <-closed
	err := tr.Send(context.Background(), &hooks.WireEvent{Type: "assistant_reply"})
	require.Error(t, err)
}
