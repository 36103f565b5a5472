// Package transport defines the wire-format-free boundary between a host
// process and the session orchestrator: RunRequest inbound, RunEvent
// outbound, and the lifecycle a Transport implementation must honour (§6).
package transport

import (
	"context"
	"time"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

// InputKind discriminates the three RunRequest input variants (§3).
type InputKind string

const (
	InputText             InputKind = "text"
	InputApprovalResponse InputKind = "approval_response"
	InputCancel           InputKind = "cancel"
)

// Policy carries optional per-turn overrides a client may request (§3).
type Policy struct {
	Timeout                  time.Duration
	MaxToolCalls             int
	AllowInteractiveApproval bool
}

// Input is the payload of a RunRequest, exactly one of Text, Approval, or
// Cancel populated according to Kind.
type Input struct {
	Kind     InputKind
	Text     string
	Approval ApprovalResponse
}

// ApprovalResponse answers a prior ApprovalRequired event.
type ApprovalResponse struct {
	ApprovalID string
	Decision   turnctx.ApprovalDecision
}

// RunRequest is one client message arriving over a Transport (§3). TurnID
// doubles as the idempotency key the orchestrator's completed-turn tracker
// keys off of.
type RunRequest struct {
	SessionID string
	TurnID    string
	Input     Input
	// Steering carries optional per-turn system overrides applied to the
	// conversation before the pipeline runs (§4.1 step 4).
	Steering []string
	Policy   Policy
	Metadata map[string]string
}

// Transport is the bidirectional boundary the orchestrator drives. It is
// wire-format-free: concrete adapters (stdio, SSE, pulse, gRPC) translate
// their transport's framing to and from RunRequest/RunEvent.
type Transport interface {
	// SupportsBackgroundReceive reports whether Receive may be called
	// concurrently with in-flight turn execution. When false, the
	// orchestrator serialises receive and turn execution through a TurnGate
	// (§4.1).
	SupportsBackgroundReceive() bool

	// Receive blocks for the next RunRequest. It returns a
	// *toolerrors.TransportError with Kind TransportInputClosed once no
	// further requests will arrive.
	Receive(ctx context.Context) (RunRequest, error)

	// Send delivers an encoded RunEvent to the client. It returns a
	// *toolerrors.TransportError with Kind TransportOutputClosed if the
	// output side has terminated; the turn itself is unaffected.
	Send(ctx context.Context, event *hooks.WireEvent) error

	// CloseInput signals that no further requests will be returned from
	// Receive; subsequent Send calls must still succeed.
	CloseInput(ctx context.Context) error

	// Close idempotently tears down both directions of the transport.
	Close(ctx context.Context) error
}
