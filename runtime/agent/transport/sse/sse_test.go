package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transport"
)

func newTestTransport(t *testing.T) (*Transport, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/events", nil)
	tr, err := New(rec, r)
	require.NoError(t, err)
	return tr, rec
}

func TestNewWritesStreamingHeaders(t *testing.T) {
	tr, rec := newTestTransport(t)
	defer tr.Close(context.Background())

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSendWritesSSEFrame(t *testing.T) {
	tr, rec := newTestTransport(t)
	defer tr.Close(context.Background())

	err := tr.Send(context.Background(), &hooks.WireEvent{Type: "assistant_reply", Payload: []byte(`{"chunk":"hi"}`)})
	require.NoError(t, err)

	body := rec.Body.String()
	require.True(t, strings.Contains(body, "event: assistant_reply\n"))
	require.True(t, strings.Contains(body, `"chunk":"hi"`))
}

func TestHandlerDeliversRequestToReceive(t *testing.T) {
	tr, _ := newTestTransport(t)
	defer tr.Close(context.Background())

	wire, err := transport.EncodeWireRequest(transport.RunRequest{
		SessionID: "s1", TurnID: "t1",
		Input: transport.Input{Kind: transport.InputText, Text: "hi"},
	})
	require.NoError(t, err)

	postRec := httptest.NewRecorder()
	postReq := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(string(wire)))
	Handler(tr)(postRec, postReq)
	require.Equal(t, http.StatusAccepted, postRec.Code)

	req, err := tr.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, "s1", req.SessionID)
	require.Equal(t, "hi", req.Input.Text)
}

func TestReceiveReturnsInputClosedAfterCloseInput(t *testing.T) {
	tr, _ := newTestTransport(t)
	defer tr.Close(context.Background())

	require.NoError(t, tr.CloseInput(context.Background()))
	_, err := tr.Receive(context.Background())
	var transportErr *toolerrors.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, toolerrors.TransportInputClosed, transportErr.Kind)
}

func TestSendReturnsOutputClosedAfterClose(t *testing.T) {
	tr, _ := newTestTransport(t)
	require.NoError(t, tr.Close(context.Background()))

	err := tr.Send(context.Background(), &hooks.WireEvent{Type: "assistant_reply"})
	var transportErr *toolerrors.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, toolerrors.TransportOutputClosed, transportErr.Kind)
}
