package stdio

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/transport"
)

func frame(t *testing.T, payload string) string {
	t.Helper()
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(payload), payload)
}

func TestReceiveDecodesTextRequest(t *testing.T) {
	in := bytes.NewBufferString(frame(t, `{"sessionID":"s1","turnID":"t1","kind":"text","text":"hello"}`))
	out := &bytes.Buffer{}
	tr := New(in, out)

	req, err := tr.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, "s1", req.SessionID)
	require.Equal(t, "t1", req.TurnID)
	require.Equal(t, transport.InputText, req.Input.Kind)
	require.Equal(t, "hello", req.Input.Text)
}

func TestReceiveDecodesCancelAndApprovalResponse(t *testing.T) {
	in := bytes.NewBufferString(
		frame(t, `{"sessionID":"s1","turnID":"t1","kind":"cancel"}`) +
			frame(t, `{"sessionID":"s1","turnID":"t2","kind":"approval_response","approvalID":"a1","decision":"allow_once"}`),
	)
	out := &bytes.Buffer{}
	tr := New(in, out)

	req1, err := tr.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, transport.InputCancel, req1.Input.Kind)

	req2, err := tr.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, transport.InputApprovalResponse, req2.Input.Kind)
	require.Equal(t, "a1", req2.Input.Approval.ApprovalID)
}

func TestSendWritesFramedEvent(t *testing.T) {
	out := &bytes.Buffer{}
	tr := New(bytes.NewBufferString(""), out)

	wire, err := hooks.Encode(hooks.NewRunStartedEvent("s1", "t1"))
	require.NoError(t, err)
	require.NoError(t, tr.Send(context.Background(), wire))
	require.Contains(t, out.String(), "Content-Length:")
	require.Contains(t, out.String(), `"type":"run_started"`)
}

func TestReceiveReportsInputClosedOnEOF(t *testing.T) {
	in := bytes.NewBufferString("")
	tr := New(in, &bytes.Buffer{})

	_, err := tr.Receive(context.Background())
	require.Error(t, err)
}
