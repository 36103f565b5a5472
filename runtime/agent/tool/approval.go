package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

type (
	// InteractiveIO is the minimal surface an Interactive approval handler
	// needs from a transport's local I/O (stdio, a TUI).
	InteractiveIO interface {
		Prompt(ctx context.Context, req turnctx.ApprovalRequest) (turnctx.ApprovalDecision, error)
	}

	// Interactive prompts locally via the transport's interactive I/O.
	Interactive struct {
		IO InteractiveIO
	}

	// TransportApproval emits nothing itself; it suspends the caller on a
	// correlation-keyed wait map until the session orchestrator resolves the
	// approval_id via an ApprovalResponse RunRequest.
	TransportApproval struct {
		mu      sync.Mutex
		waiters map[string]chan transportApprovalResult
	}

	transportApprovalResult struct {
		decision turnctx.ApprovalDecision
		err      error
	}

	// AutoDeny immediately denies every request; used when
	// allow_interactive_approval is false or no handler is configured.
	AutoDeny struct{}

	// Bridge wraps a configured ApprovalHandler so that, for every request,
	// it emits ApprovalRequired before delegating and ApprovalResolved after
	// — exactly once per approval, regardless of which handler answers it
	// (§4.3).
	Bridge struct {
		Handler turnctx.ApprovalHandler
	}
)

// RequestApproval implements turnctx.ApprovalHandler.
func (h *Interactive) RequestApproval(ctx context.Context, req turnctx.ApprovalRequest, approvalID string) (turnctx.ApprovalDecision, error) {
	if h.IO == nil {
		return turnctx.DecisionDeny, fmt.Errorf("tool: interactive approval handler has no IO configured")
	}
	return h.IO.Prompt(ctx, req)
}

// NewTransportApproval returns an empty TransportApproval.
func NewTransportApproval() *TransportApproval {
	return &TransportApproval{waiters: make(map[string]chan transportApprovalResult)}
}

// RequestApproval implements turnctx.ApprovalHandler. It registers a waiter
// for approvalID and blocks until Resolve is called, RejectAllPending runs,
// or ctx is done.
func (h *TransportApproval) RequestApproval(ctx context.Context, _ turnctx.ApprovalRequest, approvalID string) (turnctx.ApprovalDecision, error) {
	ch := make(chan transportApprovalResult, 1)

	h.mu.Lock()
	h.waiters[approvalID] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.waiters, approvalID)
		h.mu.Unlock()
	}()

	select {
	case res := <-ch:
		return res.decision, res.err
	case <-ctx.Done():
		return turnctx.DecisionDeny, ctx.Err()
	}
}

// Resolve delivers decision to the waiter registered for approvalID, if any.
// It is called by the session orchestrator's receive loop when an
// ApprovalResponse RunRequest arrives. It reports false if no waiter is
// registered (the orchestrator then emits a Warning and drops the message).
func (h *TransportApproval) Resolve(approvalID string, decision turnctx.ApprovalDecision) bool {
	h.mu.Lock()
	ch, ok := h.waiters[approvalID]
	h.mu.Unlock()
	if !ok {
		return false
	}
	ch <- transportApprovalResult{decision: decision}
	return true
}

// RejectAllPending delivers a CancellationError to every approval currently
// suspended on this handler. Called during orchestrator shutdown (§4.1) so
// no caller is left blocked after the transport closes.
func (h *TransportApproval) RejectAllPending() {
	h.mu.Lock()
	waiters := make([]chan transportApprovalResult, 0, len(h.waiters))
	for _, ch := range h.waiters {
		waiters = append(waiters, ch)
	}
	h.mu.Unlock()

	for _, ch := range waiters {
		ch <- transportApprovalResult{decision: turnctx.DecisionDeny, err: &toolerrors.CancellationError{}}
	}
}

// RequestApproval implements turnctx.ApprovalHandler.
func (AutoDeny) RequestApproval(context.Context, turnctx.ApprovalRequest, string) (turnctx.ApprovalDecision, error) {
	return turnctx.DecisionDeny, nil
}

// RequestApproval implements turnctx.ApprovalHandler, emitting
// ApprovalRequired before delegating to Handler and ApprovalResolved after.
func (b *Bridge) RequestApproval(ctx context.Context, req turnctx.ApprovalRequest, approvalID string) (turnctx.ApprovalDecision, error) {
	sink, hasSink := turnctx.EventSinkFrom(ctx)
	sessionID, turnID := "", ""
	if id, ok := turnctx.IdentityFrom(ctx); ok {
		sessionID, turnID = id.SessionID, id.TurnID
	}

	if hasSink {
		_ = sink.Publish(ctx, hooks.NewApprovalRequiredEvent(
			sessionID, turnID, approvalID, req.ToolName, req.Arguments, req.OperationDescription, req.RiskLevel,
		))
	}

	handler := b.Handler
	if handler == nil {
		handler = AutoDeny{}
	}
	decision, err := handler.RequestApproval(ctx, req, approvalID)

	if hasSink {
		_ = sink.Publish(ctx, hooks.NewApprovalResolvedEvent(sessionID, turnID, approvalID, wireDecision(decision)))
	}
	return decision, err
}

func wireDecision(d turnctx.ApprovalDecision) hooks.ApprovalDecision {
	switch d {
	case turnctx.DecisionAllowOnce, turnctx.DecisionAlwaysAllow:
		return hooks.DecisionApproved
	default:
		return hooks.DecisionDenied
	}
}
