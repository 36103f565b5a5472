package inmem

import (
	"context"
	"testing"

	"github.com/agentcore/runtime/runtime/agent/run"
	"github.com/stretchr/testify/require"
)

func TestStoreUpsertLoad(t *testing.T) {
	store := New()
	ctx := context.Background()
	r := run.Record{SessionID: "s", TurnID: "t1", Status: run.StatusRunning, Labels: map[string]string{"foo": "bar"}}
	require.NoError(t, store.Upsert(ctx, r))
	loaded, err := store.Load(ctx, "s", "t1")
	require.NoError(t, err)
	require.Equal(t, run.StatusRunning, loaded.Status)
	loaded.Labels["foo"] = "baz"
	reread, _ := store.Load(ctx, "s", "t1")
	require.Equal(t, "bar", reread.Labels["foo"], "expected defensive copy")
}

func TestStoreLoadMissing(t *testing.T) {
	store := New()
	_, err := store.Load(context.Background(), "s", "missing")
	require.ErrorIs(t, err, run.ErrNotFound)
}

func TestStoreReset(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, run.Record{SessionID: "s", TurnID: "t1"}))
	store.Reset()
	_, err := store.Load(ctx, "s", "t1")
	require.ErrorIs(t, err, run.ErrNotFound)
}
