package transport

import (
	"encoding/json"
	"time"

	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

// WireRequest is the common JSON shape a RunRequest takes on every
// JSON-based transport (stdio, SSE, pulse). Binary transports (gRPC) define
// their own wire message instead.
type WireRequest struct {
	SessionID  string            `json:"sessionID"`
	TurnID     string            `json:"turnID"`
	Kind       string            `json:"kind"`
	Text       string            `json:"text,omitempty"`
	ApprovalID string            `json:"approvalID,omitempty"`
	Decision   string            `json:"decision,omitempty"`
	Steering   []string          `json:"steering,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`

	// TimeoutMS is Policy.Timeout in milliseconds (time.Duration marshals
	// awkwardly as nanoseconds for JSON clients). Zero means unset.
	TimeoutMS                int64 `json:"timeoutMS,omitempty"`
	MaxToolCalls             int   `json:"maxToolCalls,omitempty"`
	AllowInteractiveApproval bool  `json:"allowInteractiveApproval,omitempty"`
}

// DecodeWireRequest parses a JSON-encoded WireRequest into a RunRequest.
func DecodeWireRequest(data []byte) (RunRequest, error) {
	var wr WireRequest
	if err := json.Unmarshal(data, &wr); err != nil {
		return RunRequest{}, err
	}
	return wr.toRunRequest(), nil
}

// EncodeWireRequest is the inverse of DecodeWireRequest, used by transport
// test harnesses and loopback clients to construct wire payloads.
func EncodeWireRequest(req RunRequest) ([]byte, error) {
	return json.Marshal(fromRunRequest(req))
}

func (wr WireRequest) toRunRequest() RunRequest {
	req := RunRequest{
		SessionID: wr.SessionID,
		TurnID:    wr.TurnID,
		Steering:  wr.Steering,
		Metadata:  wr.Metadata,
		Policy: Policy{
			Timeout:                  time.Duration(wr.TimeoutMS) * time.Millisecond,
			MaxToolCalls:             wr.MaxToolCalls,
			AllowInteractiveApproval: wr.AllowInteractiveApproval,
		},
	}
	switch wr.Kind {
	case "approval_response":
		req.Input = Input{
			Kind: InputApprovalResponse,
			Approval: ApprovalResponse{
				ApprovalID: wr.ApprovalID,
				Decision:   turnctx.ApprovalDecision(wr.Decision),
			},
		}
	case "cancel":
		req.Input = Input{Kind: InputCancel}
	default:
		req.Input = Input{Kind: InputText, Text: wr.Text}
	}
	return req
}

func fromRunRequest(req RunRequest) WireRequest {
	wr := WireRequest{
		SessionID:                req.SessionID,
		TurnID:                   req.TurnID,
		Steering:                 req.Steering,
		Metadata:                 req.Metadata,
		TimeoutMS:                req.Policy.Timeout.Milliseconds(),
		MaxToolCalls:             req.Policy.MaxToolCalls,
		AllowInteractiveApproval: req.Policy.AllowInteractiveApproval,
	}
	switch req.Input.Kind {
	case InputApprovalResponse:
		wr.Kind = "approval_response"
		wr.ApprovalID = req.Input.Approval.ApprovalID
		wr.Decision = string(req.Input.Approval.Decision)
	case InputCancel:
		wr.Kind = "cancel"
	default:
		wr.Kind = "text"
		wr.Text = req.Input.Text
	}
	return wr
}
