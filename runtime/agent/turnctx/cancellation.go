package turnctx

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agentcore/runtime/runtime/agent/toolerrors"
)

// CancellationToken is a cooperative cancellation flag shared by every step
// and middleware executing within a turn. cancel() is idempotent; children
// spawned by Parallel, streaming, or tool middleware inherit the same token.
type CancellationToken struct {
	turnID    string
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}
}

// NewCancellationToken returns a fresh, uncancelled token for turnID.
func NewCancellationToken(turnID string) *CancellationToken {
	return &CancellationToken{turnID: turnID, done: make(chan struct{})}
}

// Cancel marks the token cancelled. Safe to call more than once or
// concurrently.
func (t *CancellationToken) Cancel() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
	t.once.Do(func() { close(t.done) })
}

// Cancelled reports whether Cancel has been called.
func (t *CancellationToken) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}

// Done returns a channel closed when the token is cancelled, for use in
// select statements racing a timer or channel read.
func (t *CancellationToken) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}

// Check returns a *toolerrors.CancellationError if the token is cancelled,
// nil otherwise. Callers invoke Check at every checkpoint named by §5:
// before/during Generate, per Loop iteration, before each Retry attempt, and
// inside the sandbox executor's monitor task.
func (t *CancellationToken) Check() error {
	if t.Cancelled() {
		return &toolerrors.CancellationError{TurnID: t.turnID}
	}
	return nil
}

// CheckContext is a convenience wrapper that also observes ctx cancellation
// (e.g. a parent deadline), surfacing it as the same CancellationError so
// callers have one error type to handle.
func (t *CancellationToken) CheckContext(ctx context.Context) error {
	if err := t.Check(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return &toolerrors.CancellationError{TurnID: t.turnID}
	default:
		return nil
	}
}
