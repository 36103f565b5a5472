package orchestrator

import (
	"sync"

	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

// defaultGenerationCapacity bounds each generation of the two-generation
// trackers below (§4.1 rule 4: "capacity N, approximately 10,000").
const defaultGenerationCapacity = 10000

// twoGen is a generic two-generation bounded set/map: a current generation
// and a previous one, each capped at capacity entries. Once current fills,
// it is promoted to previous and a fresh current is started; lookups check
// both, bounding total memory to ~2*capacity without a background sweeper
// (§4.1 rule 4).
type twoGen[V any] struct {
	mu       sync.Mutex
	capacity int
	current  map[string]V
	previous map[string]V
}

func newTwoGen[V any](capacity int) *twoGen[V] {
	if capacity <= 0 {
		capacity = defaultGenerationCapacity
	}
	return &twoGen[V]{
		capacity: capacity,
		current:  make(map[string]V, capacity),
		previous: make(map[string]V),
	}
}

func (t *twoGen[V]) get(key string) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.current[key]; ok {
		return v, true
	}
	v, ok := t.previous[key]
	return v, ok
}

func (t *twoGen[V]) put(key string, value V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.current[key]; !ok && len(t.current) >= t.capacity {
		t.previous = t.current
		t.current = make(map[string]V, t.capacity)
	}
	t.current[key] = value
}

func (t *twoGen[V]) delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.current, key)
	delete(t.previous, key)
}

// CompletedTracker records terminal-recorded turn IDs so the receive loop can
// drop duplicate RunRequests (§4.1 idempotency check).
type CompletedTracker struct {
	gen *twoGen[struct{}]
}

// NewCompletedTracker constructs a tracker with the given per-generation
// capacity (0 selects the spec default of ~10,000).
func NewCompletedTracker(capacity int) *CompletedTracker {
	return &CompletedTracker{gen: newTwoGen[struct{}](capacity)}
}

// Contains reports whether turnID has already been recorded terminal.
func (c *CompletedTracker) Contains(turnID string) bool {
	_, ok := c.gen.get(turnID)
	return ok
}

// Mark records turnID as terminal.
func (c *CompletedTracker) Mark(turnID string) {
	c.gen.put(turnID, struct{}{})
}

// preemptiveSet is a best-effort record of Cancel messages that arrived
// before any CancellationToken existed for their turn ID. It uses bulk
// eviction at capacity: losing entries only costs the optimisation of
// immediate cancellation, never correctness (§4.1 rule 4).
type preemptiveSet struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]struct{}
}

func newPreemptiveSet(capacity int) *preemptiveSet {
	if capacity <= 0 {
		capacity = defaultGenerationCapacity
	}
	return &preemptiveSet{capacity: capacity, entries: make(map[string]struct{}, capacity)}
}

func (p *preemptiveSet) add(turnID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) >= p.capacity {
		p.entries = make(map[string]struct{}, p.capacity)
	}
	p.entries[turnID] = struct{}{}
}

// takeIfPresent removes and reports whether turnID was pre-emptively cancelled.
func (p *preemptiveSet) takeIfPresent(turnID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entries[turnID]; ok {
		delete(p.entries, turnID)
		return true
	}
	return false
}

// CancellationRegistry implements the per-turn cancellation state machine of
// §4.1: at most one active CancellationToken per turn ID, held across two
// generations plus a pre-emptive-cancel set for cancels that race token
// creation.
type CancellationRegistry struct {
	tokens     *twoGen[*turnctx.CancellationToken]
	preemptive *preemptiveSet
}

// NewCancellationRegistry constructs a registry with the given per-generation
// capacity (0 selects the spec default).
func NewCancellationRegistry(capacity int) *CancellationRegistry {
	return &CancellationRegistry{
		tokens:     newTwoGen[*turnctx.CancellationToken](capacity),
		preemptive: newPreemptiveSet(capacity),
	}
}

// Cancel handles an inbound Cancel message for turnID (§4.1 rule 1). If a
// token already exists (active turn, or a sentinel left by a prior cancelled
// attempt) it is cancelled idempotently; otherwise the cancel is recorded as
// pre-emptive.
func (r *CancellationRegistry) Cancel(turnID string) {
	if tok, ok := r.tokens.get(turnID); ok {
		tok.Cancel()
		return
	}
	r.preemptive.add(turnID)
}

// StartTurn creates a fresh CancellationToken for turnID, overwriting any
// sentinel left by a previous cancelled attempt, and immediately cancels it
// if a pre-emptive cancel was recorded (§4.1 rule 2).
func (r *CancellationRegistry) StartTurn(turnID string) *turnctx.CancellationToken {
	tok := turnctx.NewCancellationToken(turnID)
	r.tokens.put(turnID, tok)
	if r.preemptive.takeIfPresent(turnID) {
		tok.Cancel()
	}
	return tok
}

// FinishTurn applies rule 3: non-cancelled terminal statuses drop the token
// entirely (late cancels are absorbed by the completed-turn tracker instead);
// a cancelled status retains the token as a sentinel so late cancels hit it
// rather than leaking into the pre-emptive set. A retry with the same turn ID
// calls StartTurn again, which overwrites the sentinel.
func (r *CancellationRegistry) FinishTurn(turnID string, cancelled bool) {
	if cancelled {
		return
	}
	r.tokens.delete(turnID)
}
