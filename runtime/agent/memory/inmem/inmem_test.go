package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/runtime/agent/memory"
)

func TestStoreAppendAndLoad(t *testing.T) {
	store := New()
	ctx := context.Background()
	event := memory.Event{Type: memory.EventToolCall, Timestamp: time.Now(), Data: map[string]any{"tool": "foo"}}
	require.NoError(t, store.AppendEvents(ctx, "agent", "run", event))
	snap, err := store.LoadRun(ctx, "agent", "run")
	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	require.Equal(t, memory.EventToolCall, snap.Events[0].Type)
}

func TestStoreIsolatesCallerMutation(t *testing.T) {
	store := New()
	ctx := context.Background()
	first := memory.Event{Type: memory.EventToolCall}
	require.NoError(t, store.AppendEvents(ctx, "agent", "run", first))
	snap, err := store.LoadRun(ctx, "agent", "run")
	require.NoError(t, err)
	snap.Events[0].Type = memory.EventToolResult
	snap2, err := store.LoadRun(ctx, "agent", "run")
	require.NoError(t, err)
	require.Equal(t, memory.EventToolCall, snap2.Events[0].Type, "store mutated by caller")
}

func TestStoreIsolatesByAgentAndRun(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.AppendEvents(ctx, "agent-a", "run-1", memory.Event{Type: memory.EventUserMessage}))
	require.NoError(t, store.AppendEvents(ctx, "agent-b", "run-1", memory.Event{Type: memory.EventAssistantMessage}))

	snapA, err := store.LoadRun(ctx, "agent-a", "run-1")
	require.NoError(t, err)
	require.Len(t, snapA.Events, 1)
	require.Equal(t, memory.EventUserMessage, snapA.Events[0].Type)

	snapB, err := store.LoadRun(ctx, "agent-b", "run-1")
	require.NoError(t, err)
	require.Len(t, snapB.Events, 1)
	require.Equal(t, memory.EventAssistantMessage, snapB.Events[0].Type)
}

func TestLoadRunMissingReturnsEmptySnapshot(t *testing.T) {
	store := New()
	snap, err := store.LoadRun(context.Background(), "agent", "run")
	require.NoError(t, err)
	require.Equal(t, "agent", snap.AgentID)
	require.Equal(t, "run", snap.RunID)
	require.Empty(t, snap.Events)
	require.NotNil(t, snap.Meta)
}

func TestResetClearsAllRuns(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.AppendEvents(ctx, "agent", "run", memory.Event{Type: memory.EventToolCall}))
	store.Reset()
	snap, err := store.LoadRun(ctx, "agent", "run")
	require.NoError(t, err)
	require.Empty(t, snap.Events)
}
