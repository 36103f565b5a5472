package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

type recordingSink struct {
	events []hooks.Event
}

func (r *recordingSink) Publish(_ context.Context, e hooks.Event) error {
	r.events = append(r.events, e)
	return nil
}

type echoTool struct{}

func (echoTool) Name() string { return "Echo" }
func (echoTool) Call(_ context.Context, arguments string) (Result, error) {
	return Result{Output: arguments, Success: true}, nil
}

func TestChainEmitsToolCallAndResult(t *testing.T) {
	sink := &recordingSink{}
	ctx := turnctx.WithEventSink(context.Background(), sink)
	ctx = turnctx.WithIdentity(ctx, turnctx.Identity{SessionID: "s1", TurnID: "t1"})

	next := Chain(echoTool{}, EventEmitting)
	result, err := next(ctx, Context{ToolUseID: "tu1", ToolName: "Echo", Arguments: `{"x":1}`})
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Len(t, sink.events, 2)
	require.Equal(t, hooks.ToolCall, sink.events[0].Type())
	require.Equal(t, hooks.ToolResult, sink.events[1].Type())
}

type denyTool struct{ echoTool }

func TestChainPermissionDenyShortCircuitsBeforeTool(t *testing.T) {
	sink := &recordingSink{}
	ctx := turnctx.WithEventSink(context.Background(), sink)

	perm := &Permission{Config: PermissionConfiguration{DefaultAction: ActionDeny}}
	next := Chain(denyTool{}, EventEmitting, perm.Middleware())

	_, err := next(ctx, Context{ToolUseID: "tu1", ToolName: "Bash", Arguments: `{"command":"ls"}`})
	require.Error(t, err)
	require.Len(t, sink.events, 2) // ToolCall, then failing ToolResult.
	require.Equal(t, hooks.ToolResult, sink.events[1].Type())
	result := sink.events[1].(*hooks.ToolResultEvent)
	require.False(t, result.Success)
}
