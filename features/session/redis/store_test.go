package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	clientsredis "github.com/agentcore/runtime/features/session/redis/clients/redis"
	mockredis "github.com/agentcore/runtime/features/session/redis/clients/redis/mocks"
	"github.com/agentcore/runtime/runtime/agent/session"
)

func TestNewStoreRequiresClient(t *testing.T) {
	_, err := NewStore(nil)
	require.EqualError(t, err, "client is required")
}

func TestCreateSessionDelegatesToClient(t *testing.T) {
	mockClient := mockredis.NewClient(t)
	now := time.Now().UTC()
	expected := session.Session{ID: "sess-1", Status: session.StatusActive, CreatedAt: now}
	mockClient.AddCreateSession(func(ctx context.Context, id string, createdAt time.Time) (session.Session, error) {
		require.Equal(t, "sess-1", id)
		require.Equal(t, now, createdAt)
		return expected, nil
	})
	store, err := NewStore(mockClient)
	require.NoError(t, err)

	sess, err := store.CreateSession(context.Background(), "sess-1", now)
	require.NoError(t, err)
	require.Equal(t, expected, sess)
	require.False(t, mockClient.HasMore())
}

func TestLoadSessionDelegatesToClient(t *testing.T) {
	mockClient := mockredis.NewClient(t)
	expected := session.Session{ID: "sess-1", Status: session.StatusActive}
	mockClient.AddLoadSession(func(ctx context.Context, id string) (session.Session, error) {
		require.Equal(t, "sess-1", id)
		return expected, nil
	})
	store, err := NewStore(mockClient)
	require.NoError(t, err)

	actual, err := store.LoadSession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, expected, actual)
	require.False(t, mockClient.HasMore())
}

func TestEndSessionDelegatesToClient(t *testing.T) {
	mockClient := mockredis.NewClient(t)
	now := time.Now().UTC()
	expected := session.Session{ID: "sess-1", Status: session.StatusEnded, EndedAt: &now}
	mockClient.AddEndSession(func(ctx context.Context, id string, endedAt time.Time) (session.Session, error) {
		require.Equal(t, "sess-1", id)
		return expected, nil
	})
	store, err := NewStore(mockClient)
	require.NoError(t, err)

	actual, err := store.EndSession(context.Background(), "sess-1", now)
	require.NoError(t, err)
	require.Equal(t, expected, actual)
	require.False(t, mockClient.HasMore())
}

func TestUpsertRunDelegatesToClient(t *testing.T) {
	mockClient := mockredis.NewClient(t)
	run := session.RunMeta{TurnID: "turn-1", SessionID: "sess-1", Status: session.RunStatusRunning}
	mockClient.AddUpsertRun(func(ctx context.Context, r session.RunMeta) error {
		require.Equal(t, run, r)
		return nil
	})
	store, err := NewStore(mockClient)
	require.NoError(t, err)

	require.NoError(t, store.UpsertRun(context.Background(), run))
	require.False(t, mockClient.HasMore())
}

func TestLoadRunDelegatesToClient(t *testing.T) {
	mockClient := mockredis.NewClient(t)
	expected := session.RunMeta{TurnID: "turn-1", SessionID: "sess-1"}
	mockClient.AddLoadRun(func(ctx context.Context, turnID string) (session.RunMeta, error) {
		require.Equal(t, "turn-1", turnID)
		return expected, nil
	})
	store, err := NewStore(mockClient)
	require.NoError(t, err)

	actual, err := store.LoadRun(context.Background(), "turn-1")
	require.NoError(t, err)
	require.Equal(t, expected, actual)
	require.False(t, mockClient.HasMore())
}

func TestListRunsBySessionDelegatesToClient(t *testing.T) {
	mockClient := mockredis.NewClient(t)
	expected := []session.RunMeta{{TurnID: "turn-1", SessionID: "sess-1"}}
	statuses := []session.RunStatus{session.RunStatusRunning}
	mockClient.AddListRunsBySession(func(ctx context.Context, sessionID string, st []session.RunStatus) ([]session.RunMeta, error) {
		require.Equal(t, "sess-1", sessionID)
		require.Equal(t, statuses, st)
		return expected, nil
	})
	store, err := NewStore(mockClient)
	require.NoError(t, err)

	actual, err := store.ListRunsBySession(context.Background(), "sess-1", statuses)
	require.NoError(t, err)
	require.Equal(t, expected, actual)
	require.False(t, mockClient.HasMore())
}

func TestLoadMemorySnapshotDelegatesToClient(t *testing.T) {
	mockClient := mockredis.NewClient(t)
	expected := session.MemorySnapshot{SessionID: "sess-1", AlwaysAllowed: []string{"bash:ls"}}
	mockClient.AddLoadMemorySnapshot(func(ctx context.Context, sessionID string) (session.MemorySnapshot, error) {
		require.Equal(t, "sess-1", sessionID)
		return expected, nil
	})
	store, err := NewStore(mockClient)
	require.NoError(t, err)

	actual, err := store.LoadMemorySnapshot(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, expected, actual)
	require.False(t, mockClient.HasMore())
}

func TestSaveMemorySnapshotDelegatesToClient(t *testing.T) {
	mockClient := mockredis.NewClient(t)
	snap := session.MemorySnapshot{SessionID: "sess-1", Blocked: []string{"bash:rm"}}
	mockClient.AddSaveMemorySnapshot(func(ctx context.Context, s session.MemorySnapshot) error {
		require.Equal(t, snap, s)
		return nil
	})
	store, err := NewStore(mockClient)
	require.NoError(t, err)

	require.NoError(t, store.SaveMemorySnapshot(context.Background(), snap))
	require.False(t, mockClient.HasMore())
}

func TestNewStoreFromRedisValidatesOptions(t *testing.T) {
	_, err := NewStoreFromRedis(clientsredis.Options{})
	require.EqualError(t, err, "redis client is required")
}
