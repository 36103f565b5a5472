// Package inmem provides an in-memory implementation of run.Store for testing
// and local development. The store holds run metadata in a map, keyed by
// (SessionID, TurnID), with no persistence across process restarts. Use this
// for unit tests or prototyping; hosts that need durability should use a
// persistent run.Store such as features/run/mongo instead.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/agentcore/runtime/runtime/agent/run"
)

// Store implements run.Store in memory with no durability. All operations are
// thread-safe via sync.RWMutex. Records are defensively copied on read and
// write to prevent accidental mutation of stored data.
type Store struct {
	mu      sync.RWMutex
	records map[string]run.Record
}

// New constructs an empty Store with no recorded runs.
func New() *Store {
	return &Store{records: make(map[string]run.Record)}
}

func key(sessionID, turnID string) string { return sessionID + "/" + turnID }

// Upsert inserts a new run record or updates an existing one, keyed by
// (SessionID, TurnID). If the record already exists and r.StartedAt is zero,
// the original StartedAt timestamp is preserved.
func (s *Store) Upsert(_ context.Context, r run.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(r.SessionID, r.TurnID)
	existing, ok := s.records[k]
	if ok && r.StartedAt.IsZero() {
		r.StartedAt = existing.StartedAt
	} else if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}
	copied := r
	copied.Labels = cloneLabels(r.Labels)
	copied.Metadata = cloneMetadata(r.Metadata)
	s.records[k] = copied
	return nil
}

// Load retrieves the run record for the given session/turn pair. Returns
// run.ErrNotFound when no such record exists.
func (s *Store) Load(_ context.Context, sessionID, turnID string) (run.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[key(sessionID, turnID)]
	if !ok {
		return run.Record{}, run.ErrNotFound
	}
	r.Labels = cloneLabels(r.Labels)
	r.Metadata = cloneMetadata(r.Metadata)
	return r, nil
}

// Reset clears all stored records. Useful for test isolation; not part of the
// run.Store interface.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]run.Record)
}

func cloneLabels(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
