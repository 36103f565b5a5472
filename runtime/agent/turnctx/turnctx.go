// Package turnctx carries the scoped bindings a turn's execution threads
// through context.Context: cancellation token, event sink, approval bridge,
// sandbox configuration, and session/turn identity. Every binding is
// installed once per turn and is visible to all descendants of that scope;
// none are mutated by children, matching the task-local binding contract of
// §9.
package turnctx

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/agentcore/runtime/runtime/agent/hooks"
)

type (
	// Identity is the (session_id, turn_id) pair installed at the top of
	// every turn's execution context.
	Identity struct {
		SessionID string
		TurnID    string
	}

	// EventSink publishes hooks.Events for the active turn. It is installed
	// once per turn and shared by every middleware/step that needs to emit
	// events.
	EventSink interface {
		Publish(ctx context.Context, event hooks.Event) error
	}

	// ApprovalDecision is the caller's response to an ApprovalRequest.
	ApprovalDecision string

	// Policy carries the per-turn overrides a client requested on the
	// originating RunRequest (timeout, tool-call budget, whether Ask-default
	// permission decisions may prompt interactively). It is installed once
	// per turn by WithPolicy, which also resets the tool-call counter
	// ConsumeToolCall reads.
	Policy struct {
		Timeout                  time.Duration
		MaxToolCalls             int
		AllowInteractiveApproval bool

		calls *int32
	}
)

const (
	DecisionAllowOnce    ApprovalDecision = "allow_once"
	DecisionAlwaysAllow  ApprovalDecision = "always_allow"
	DecisionDeny         ApprovalDecision = "deny"
	DecisionDenyAndBlock ApprovalDecision = "deny_and_block"
)

// ApprovalRequest describes a pending permission ask.
type ApprovalRequest struct {
	ToolName             string
	Arguments            string
	OperationDescription string
	RiskLevel            hooks.RiskLevel
}

// ApprovalHandler resolves an ApprovalRequest to a decision. Implementations
// must not emit ApprovalRequired/ApprovalResolved events themselves; the
// orchestrator's approval bridge (see Bridge) owns that so events are
// emitted exactly once per approval regardless of which handler answers it.
type ApprovalHandler interface {
	RequestApproval(ctx context.Context, req ApprovalRequest, approvalID string) (ApprovalDecision, error)
}

type key int

const (
	keyIdentity key = iota
	keySink
	keyCancelToken
	keyApprovalHandler
	keySandbox
	keyPolicy
)

// WithIdentity installs the session/turn identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, id)
}

// IdentityFrom retrieves the identity installed by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(keyIdentity).(Identity)
	return id, ok
}

// WithEventSink installs the turn's event sink in ctx.
func WithEventSink(ctx context.Context, sink EventSink) context.Context {
	return context.WithValue(ctx, keySink, sink)
}

// EventSinkFrom retrieves the event sink installed by WithEventSink.
func EventSinkFrom(ctx context.Context) (EventSink, bool) {
	s, ok := ctx.Value(keySink).(EventSink)
	return s, ok
}

// WithCancellationToken installs the turn's cancellation token in ctx.
func WithCancellationToken(ctx context.Context, tok *CancellationToken) context.Context {
	return context.WithValue(ctx, keyCancelToken, tok)
}

// CancellationTokenFrom retrieves the cancellation token installed by
// WithCancellationToken.
func CancellationTokenFrom(ctx context.Context) (*CancellationToken, bool) {
	t, ok := ctx.Value(keyCancelToken).(*CancellationToken)
	return t, ok
}

// WithApprovalHandler installs the turn's approval bridge in ctx.
func WithApprovalHandler(ctx context.Context, h ApprovalHandler) context.Context {
	return context.WithValue(ctx, keyApprovalHandler, h)
}

// ApprovalHandlerFrom retrieves the approval handler installed by
// WithApprovalHandler.
func ApprovalHandlerFrom(ctx context.Context) (ApprovalHandler, bool) {
	h, ok := ctx.Value(keyApprovalHandler).(ApprovalHandler)
	return h, ok
}

// WithSandboxConfig installs sandbox configuration in ctx. cfg is an `any`
// here to avoid an import cycle with the sandbox package; the sandbox
// middleware type-asserts it to sandbox.Config.
func WithSandboxConfig(ctx context.Context, cfg any) context.Context {
	return context.WithValue(ctx, keySandbox, cfg)
}

// SandboxConfigFrom retrieves the sandbox configuration installed by
// WithSandboxConfig.
func SandboxConfigFrom(ctx context.Context) (any, bool) {
	cfg := ctx.Value(keySandbox)
	return cfg, cfg != nil
}

// WithPolicy installs the turn's policy overrides in ctx, fitted with a
// fresh tool-call counter. Call once per turn; reinstalling mid-turn would
// reset the budget ConsumeToolCall enforces.
func WithPolicy(ctx context.Context, p Policy) context.Context {
	var n int32
	p.calls = &n
	return context.WithValue(ctx, keyPolicy, p)
}

// PolicyFrom retrieves the policy installed by WithPolicy.
func PolicyFrom(ctx context.Context) (Policy, bool) {
	p, ok := ctx.Value(keyPolicy).(Policy)
	return p, ok
}

// ConsumeToolCall records one tool invocation against the turn's budget and
// reports the call number together with whether it exceeds
// Policy.MaxToolCalls. A MaxToolCalls of zero means unlimited, and a Policy
// that was never installed via WithPolicy never reports exceeded. Safe for
// concurrent calls from parallel tool invocations within the same turn.
func (p Policy) ConsumeToolCall() (count int, exceeded bool) {
	if p.calls == nil || p.MaxToolCalls <= 0 {
		return 0, false
	}
	n := atomic.AddInt32(p.calls, 1)
	return int(n), int(n) > p.MaxToolCalls
}
