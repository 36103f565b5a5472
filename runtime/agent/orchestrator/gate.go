package orchestrator

import "sync"

// TurnGate serialises the receive loop against turn execution for
// transports that declare supports_background_receive = false, e.g. a
// single stdin/stdout pair shared with an interactive approval prompt
// (§4.1). When background receive is supported, the orchestrator does not
// construct a gate at all and out-of-band messages drain concurrently with
// turn execution.
type TurnGate struct {
	mu     sync.Mutex
	cond   *sync.Cond
	active bool
}

// NewTurnGate constructs a gate that starts open (no turn in progress).
func NewTurnGate() *TurnGate {
	g := &TurnGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// WaitIfNeeded blocks the receive loop while a turn is active.
func (g *TurnGate) WaitIfNeeded() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.active {
		g.cond.Wait()
	}
}

// EnterTurn marks a turn as active, called by the turn processor on dispatch.
func (g *TurnGate) EnterTurn() {
	g.mu.Lock()
	g.active = true
	g.mu.Unlock()
}

// LeaveTurn marks the turn as finished, called by the turn processor on its
// terminal event, and wakes any receive loop waiting in WaitIfNeeded.
func (g *TurnGate) LeaveTurn() {
	g.mu.Lock()
	g.active = false
	g.mu.Unlock()
	g.cond.Broadcast()
}
