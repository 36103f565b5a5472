package tool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

type (
	// Context is the input to the middleware pipeline for one tool
	// invocation.
	Context struct {
		SessionID string
		TurnID    string
		ToolUseID string
		ToolName  string
		Arguments string // JSON-encoded
	}

	// Result is what a Tool (or any middleware short-circuiting the chain)
	// returns.
	Result struct {
		Output   string
		Success  bool
		ExitCode *int
	}

	// Decision is the terminal disposition recorded in a ToolTrace.
	Decision string

	// Trace is the audit record appended to the turn's trace buffer for every
	// terminal tool-call decision, regardless of whether the call ran.
	Trace struct {
		ToolUseID       string
		ToolName        string
		ArgumentsDigest string
		Decision        Decision
		Duration        *time.Duration
		ExitCode        *int
		Timestamp       time.Time
	}

	// Tool is the innermost link in the chain: the concrete implementation a
	// host registers.
	Tool interface {
		Name() string
		Call(ctx context.Context, arguments string) (Result, error)
	}

	// Next is what a Middleware calls to continue the chain.
	Next func(ctx context.Context, tc Context) (Result, error)

	// Middleware wraps a tool invocation. Implementations must call next
	// exactly once unless deliberately short-circuiting (denying, failing
	// fast).
	Middleware func(ctx context.Context, tc Context, next Next) (Result, error)

	// TraceSink receives one Trace per tool call, for accumulation into the
	// turn's RunResult.tool_trace.
	TraceSink interface {
		Append(trace Trace)
	}
)

const (
	DecisionAllowed         Decision = "allowed"
	DecisionDenied          Decision = "denied"
	DecisionFinalDenied     Decision = "finalDenied"
	DecisionApprovedByUser  Decision = "approvedByUser"
	DecisionDeniedByUser    Decision = "deniedByUser"
	DecisionTransportDenied Decision = "transportDenied"
)

// ArgumentsDigest returns the 16-hex-character SHA-256 digest of arguments,
// per §3's ToolTrace.arguments_digest.
func ArgumentsDigest(arguments string) string {
	sum := sha256.Sum256([]byte(arguments))
	return hex.EncodeToString(sum[:])[:16]
}

// Chain composes middleware outer-to-inner around a terminal Tool, returning
// a single Next suitable for invoking at the top of the pipeline. The
// standard ordering is EventEmitting, Permission, Sandbox, then the Tool
// itself (§4.3); callers pass middlewares in that order.
func Chain(tl Tool, middlewares ...Middleware) Next {
	var next Next = func(ctx context.Context, tc Context) (Result, error) {
		return tl.Call(ctx, tc.Arguments)
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw := middlewares[i]
		inner := next
		next = func(ctx context.Context, tc Context) (Result, error) {
			return mw(ctx, tc, inner)
		}
	}
	return next
}

// EventEmitting emits ToolCall before delegating to next and ToolResult
// after, including on error, per §4.3. It reads session/turn identity from
// the event sink installed in ctx by the orchestrator rather than from tc,
// since tc's SessionID/TurnID may be empty for hosts that don't populate
// them.
func EventEmitting(ctx context.Context, tc Context, next Next) (Result, error) {
	sink, hasSink := turnctx.EventSinkFrom(ctx)
	sessionID, turnID := identityFor(ctx, tc)

	if hasSink {
		_ = sink.Publish(ctx, hooks.NewToolCallEvent(sessionID, turnID, tc.ToolUseID, tc.ToolName, tc.Arguments))
	}

	start := time.Now()
	result, err := next(ctx, tc)
	duration := time.Since(start)

	if err != nil {
		if hasSink {
			_ = sink.Publish(ctx, hooks.NewToolResultEvent(sessionID, turnID, tc.ToolUseID, err.Error(), false, duration, nil))
		}
		return result, err
	}

	if hasSink {
		_ = sink.Publish(ctx, hooks.NewToolResultEvent(sessionID, turnID, tc.ToolUseID, result.Output, result.Success, duration, result.ExitCode))
	}
	return result, nil
}

func identityFor(ctx context.Context, tc Context) (sessionID, turnID string) {
	if id, ok := turnctx.IdentityFrom(ctx); ok {
		return id.SessionID, id.TurnID
	}
	return tc.SessionID, tc.TurnID
}
