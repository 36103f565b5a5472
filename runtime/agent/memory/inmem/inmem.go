// Package inmem provides an in-memory memory.Store for tests and local
// development. State lives only in process memory; production deployments
// should use a durable backend such as features/memory/mongo.
package inmem

import (
	"context"
	"sync"

	"github.com/agentcore/runtime/runtime/agent/memory"
)

// Store implements memory.Store with a two-level map keyed by agent ID then
// run ID, so agents and runs are isolated from one another. Safe for
// concurrent use; all operations defensively copy event slices.
type Store struct {
	mu   sync.RWMutex
	runs map[string]map[string][]memory.Event
}

// New returns an empty Store.
func New() *Store {
	return &Store{runs: make(map[string]map[string][]memory.Event)}
}

// LoadRun implements memory.Store.
func (s *Store) LoadRun(_ context.Context, agentID, runID string) (memory.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := s.runs[agentID]
	if runs == nil {
		return memory.Snapshot{AgentID: agentID, RunID: runID, Meta: make(map[string]any)}, nil
	}
	events := runs[runID]
	cloned := make([]memory.Event, len(events))
	copy(cloned, events)
	return memory.Snapshot{AgentID: agentID, RunID: runID, Events: cloned, Meta: make(map[string]any)}, nil
}

// AppendEvents implements memory.Store.
func (s *Store) AppendEvents(_ context.Context, agentID, runID string, events ...memory.Event) error {
	if len(events) == 0 {
		return nil
	}
	copied := make([]memory.Event, len(events))
	copy(copied, events)

	s.mu.Lock()
	defer s.mu.Unlock()
	runs := s.runs[agentID]
	if runs == nil {
		runs = make(map[string][]memory.Event)
		s.runs[agentID] = runs
	}
	runs[runID] = append(runs[runID], copied...)
	return nil
}

// Reset clears all stored events across all agents and runs. Intended for
// test teardown between cases.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]map[string][]memory.Event)
}
