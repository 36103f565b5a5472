package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	clientsmongo "github.com/agentcore/runtime/features/memory/mongo/clients/mongo"
	mockmongo "github.com/agentcore/runtime/features/memory/mongo/clients/mongo/mocks"
	"github.com/agentcore/runtime/runtime/agent/session"
)

func TestNewStoreRequiresClient(t *testing.T) {
	_, err := NewStore(Options{})
	require.EqualError(t, err, "client is required")
}

func TestLoadMemorySnapshotDelegatesToClient(t *testing.T) {
	mockClient := mockmongo.NewClient(t)
	expected := session.MemorySnapshot{SessionID: "sess-1", AlwaysAllowed: []string{"bash:ls"}}
	mockClient.AddLoadMemorySnapshot(func(ctx context.Context, sessionID string) (session.MemorySnapshot, error) {
		require.Equal(t, "sess-1", sessionID)
		return expected, nil
	})

	store, err := NewStore(Options{Client: mockClient})
	require.NoError(t, err)

	actual, err := store.LoadMemorySnapshot(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, expected, actual)
	require.False(t, mockClient.HasMore())
}

func TestSaveMemorySnapshotDelegatesToClient(t *testing.T) {
	mockClient := mockmongo.NewClient(t)
	snap := session.MemorySnapshot{SessionID: "sess-1", Blocked: []string{"bash:rm"}}
	mockClient.AddSaveMemorySnapshot(func(ctx context.Context, s session.MemorySnapshot) error {
		require.Equal(t, snap, s)
		return nil
	})
	store, err := NewStore(Options{Client: mockClient})
	require.NoError(t, err)

	err = store.SaveMemorySnapshot(context.Background(), snap)
	require.NoError(t, err)
	require.False(t, mockClient.HasMore())
}

func TestNewStoreFromMongoValidatesOptions(t *testing.T) {
	_, err := NewStoreFromMongo(clientsmongo.Options{})
	require.EqualError(t, err, "mongo client is required")
}
