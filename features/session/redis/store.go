// Package redis wires session.Store and session.MemoryStore to the Redis client.
package redis

import (
	"context"
	"errors"
	"time"

	clientsredis "github.com/agentcore/runtime/features/session/redis/clients/redis"
	"github.com/agentcore/runtime/runtime/agent/session"
)

// Store adapts clientsredis.Client to session.Store and session.MemoryStore.
type Store struct {
	client clientsredis.Client
}

// NewStore builds a Store using the provided client.
func NewStore(client clientsredis.Client) (*Store, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	return &Store{client: client}, nil
}

// NewStoreFromRedis builds the low-level client from opts and wraps it in a
// Store, for callers who do not need direct access to the client.
func NewStoreFromRedis(opts clientsredis.Options) (*Store, error) {
	client, err := clientsredis.New(opts)
	if err != nil {
		return nil, err
	}
	return NewStore(client)
}

// CreateSession implements session.Store.
func (s *Store) CreateSession(ctx context.Context, sessionID string, createdAt time.Time) (session.Session, error) {
	return s.client.CreateSession(ctx, sessionID, createdAt)
}

// LoadSession implements session.Store.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (session.Session, error) {
	return s.client.LoadSession(ctx, sessionID)
}

// EndSession implements session.Store.
func (s *Store) EndSession(ctx context.Context, sessionID string, endedAt time.Time) (session.Session, error) {
	return s.client.EndSession(ctx, sessionID, endedAt)
}

// UpsertRun implements session.Store.
func (s *Store) UpsertRun(ctx context.Context, run session.RunMeta) error {
	return s.client.UpsertRun(ctx, run)
}

// LoadRun implements session.Store.
func (s *Store) LoadRun(ctx context.Context, turnID string) (session.RunMeta, error) {
	return s.client.LoadRun(ctx, turnID)
}

// ListRunsBySession implements session.Store.
func (s *Store) ListRunsBySession(ctx context.Context, sessionID string, statuses []session.RunStatus) ([]session.RunMeta, error) {
	return s.client.ListRunsBySession(ctx, sessionID, statuses)
}

// LoadMemorySnapshot implements session.MemoryStore.
func (s *Store) LoadMemorySnapshot(ctx context.Context, sessionID string) (session.MemorySnapshot, error) {
	return s.client.LoadMemorySnapshot(ctx, sessionID)
}

// SaveMemorySnapshot implements session.MemoryStore.
func (s *Store) SaveMemorySnapshot(ctx context.Context, snap session.MemorySnapshot) error {
	return s.client.SaveMemorySnapshot(ctx, snap)
}
