// Package mongo wires session.MemoryStore to the MongoDB client.
package mongo

import (
	"context"
	"errors"

	clientsmongo "github.com/agentcore/runtime/features/memory/mongo/clients/mongo"
	"github.com/agentcore/runtime/runtime/agent/session"
)

// Options configures the Store wrapper.
type Options struct {
	Client clientsmongo.Client
}

// Store implements session.MemoryStore by delegating to the Mongo client.
type Store struct {
	client clientsmongo.Client
}

// NewStore builds a Mongo-backed session-memory store using the provided client.
func NewStore(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("client is required")
	}
	return &Store{client: opts.Client}, nil
}

// NewStoreFromMongo is a helper that instantiates the underlying client using the given options.
func NewStoreFromMongo(opts clientsmongo.Options) (*Store, error) {
	client, err := clientsmongo.New(opts)
	if err != nil {
		return nil, err
	}
	return NewStore(Options{Client: client})
}

// LoadMemorySnapshot implements session.MemoryStore.
func (s *Store) LoadMemorySnapshot(ctx context.Context, sessionID string) (session.MemorySnapshot, error) {
	return s.client.LoadMemorySnapshot(ctx, sessionID)
}

// SaveMemorySnapshot implements session.MemoryStore.
func (s *Store) SaveMemorySnapshot(ctx context.Context, snap session.MemorySnapshot) error {
	return s.client.SaveMemorySnapshot(ctx, snap)
}
