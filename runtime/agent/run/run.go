// Package run defines the identity and attempt metadata threaded through a
// single turn's execution: the scoped (session_id, turn_id) pair installed by
// the orchestrator (§4.1) and visible to every step, tool, and model call
// executed on its behalf.
package run

import (
	"context"
	"errors"
	"time"
)

type (
	// Context carries execution identity for the turn currently running on a
	// session. It is installed into the execution context once per turn (see
	// agent's scoped-binding contract) and never mutated by descendants.
	Context struct {
		// SessionID groups related turns into a conversation.
		SessionID string
		// TurnID is the idempotency key for this turn; see the completed-turn
		// tracker in the orchestrator.
		TurnID string
		// Attempt counts how many times this TurnID has been submitted. A
		// cancelled turn may be retried with the same TurnID and a higher
		// Attempt.
		Attempt int
		// Labels carries caller-provided metadata forwarded from RunRequest.metadata.
		Labels map[string]string
		// StartedAt records when this attempt began.
		StartedAt time.Time
	}

	// Status represents the coarse-grained lifecycle state of a run/turn, as
	// persisted by an optional Store (§10.3 — the core never requires one).
	Status string
)

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusDenied    Status = "denied"
	StatusTimedOut  Status = "timed_out"
)

// Record captures persistent metadata associated with a turn, for hosts that
// opt into a Store implementation (such as the in-memory run/inmem).
type Record struct {
	SessionID string
	TurnID    string
	Status    Status
	StartedAt time.Time
	UpdatedAt time.Time
	Labels    map[string]string
	Metadata  map[string]any
}

// Store persists run/turn metadata for observability and lookup. The core
// orchestrator does not require a Store (§6 "Persisted state: none required
// by the core"); it is an optional collaborator a host may wire in.
type Store interface {
	Upsert(ctx context.Context, record Record) error
	Load(ctx context.Context, sessionID, turnID string) (Record, error)
}

// ErrNotFound indicates that no run record exists for the given identifier.
var ErrNotFound = errors.New("run not found")

type ctxKey struct{}

// WithContext installs rc into ctx as the scoped run identity for descendants.
func WithContext(ctx context.Context, rc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext retrieves the run identity installed by WithContext. ok is
// false when no turn is currently in scope (e.g. code running outside the
// orchestrator's turn execution, such as a unit test driving a step in
// isolation).
func FromContext(ctx context.Context) (Context, bool) {
	rc, ok := ctx.Value(ctxKey{}).(Context)
	return rc, ok
}
