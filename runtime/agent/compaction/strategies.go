package compaction

import (
	"sort"

	"github.com/agentcore/runtime/runtime/agent/transcript"
)

// Default type priorities used by Priority, per §4.4.
const (
	priorityInstructions   = 100
	priorityPrompt         = 50
	priorityResponse       = 40
	priorityToolCalls      = 30
	priorityToolOutput     = 20
	priorityPreservedBonus = 100
)

// NoOp never compacts. It is useful for tests that want to assert on
// uncompacted transcripts while still exercising the Manager's threshold
// logic.
type NoOp struct{}

// Compact implements Strategy.
func (NoOp) Compact(*transcript.Transcript, int, Context) error { return nil }

// Truncation keeps the last PreserveRecentCount entries (after the
// Instructions entry, if any), additionally retaining every tool-output
// entry when PreserveToolOutputs is set, and always retaining
// ctx.PreservedIndices.
type Truncation struct {
	PreserveRecentCount int
	PreserveToolOutputs bool
}

// Compact implements Strategy.
func (s Truncation) Compact(t *transcript.Transcript, _ int, ctx Context) error {
	entries := t.Entries()
	instr, hasInstr := t.Instructions()

	start := 0
	if hasInstr {
		start = 1
	}
	rest := entries[start:]

	keep := make([]bool, len(rest))
	recentFrom := len(rest) - s.PreserveRecentCount
	for i := range rest {
		if i >= recentFrom {
			keep[i] = true
		}
		if s.PreserveToolOutputs && rest[i].Kind == transcript.EntryToolOutput {
			keep[i] = true
		}
		if _, ok := ctx.PreservedIndices[i+start]; ok {
			keep[i] = true
		}
	}

	out := make([]transcript.Entry, 0, len(entries))
	if hasInstr {
		out = append(out, instr)
	}
	for i, e := range rest {
		if keep[i] {
			out = append(out, e)
		}
	}
	t.Replace(out)
	return nil
}

// SlidingWindow keeps the last WindowSize non-Instructions entries.
type SlidingWindow struct {
	WindowSize int
}

// Compact implements Strategy.
func (s SlidingWindow) Compact(t *transcript.Transcript, _ int, _ Context) error {
	entries := t.Entries()
	instr, hasInstr := t.Instructions()

	start := 0
	if hasInstr {
		start = 1
	}
	rest := entries[start:]

	window := s.WindowSize
	if window > len(rest) {
		window = len(rest)
	}
	kept := rest[len(rest)-window:]

	out := make([]transcript.Entry, 0, window+1)
	if hasInstr {
		out = append(out, instr)
	}
	out = append(out, kept...)
	t.Replace(out)
	return nil
}

// Priority scores every entry by type priority plus a recency weight plus a
// bonus for preserved indices, then keeps the highest-scoring entries that
// fit targetTokens, restoring original order.
type Priority struct {
	// RecencyWeight scales the contribution of recency_score (0..1, where 1
	// is the most recent entry) to each entry's score.
	RecencyWeight float64
}

// Compact implements Strategy.
func (s Priority) Compact(t *transcript.Transcript, targetTokens int, ctx Context) error {
	entries := t.Entries()
	n := len(entries)
	if n == 0 {
		return nil
	}

	type scored struct {
		idx   int
		entry transcript.Entry
		score float64
		cost  int
	}

	items := make([]scored, n)
	for i, e := range entries {
		recency := 0.0
		if n > 1 {
			recency = float64(i) / float64(n-1)
		}
		score := typePriority(e.Kind) + s.RecencyWeight*recency
		if _, ok := ctx.PreservedIndices[i]; ok {
			score += priorityPreservedBonus
		}
		if e.Kind == transcript.EntryInstructions {
			score += priorityPreservedBonus // Instructions is always effectively preserved.
		}
		items[i] = scored{idx: i, entry: e, score: score, cost: entryTokenCost(e)}
	}

	order := append([]scored(nil), items...)
	sort.SliceStable(order, func(a, b int) bool { return order[a].score > order[b].score })

	keep := make(map[int]struct{}, n)
	budget := targetTokens
	for _, it := range order {
		if budget-it.cost < 0 && len(keep) > 0 {
			continue
		}
		keep[it.idx] = struct{}{}
		budget -= it.cost
	}
	// Instructions and preserved indices are always retained regardless of
	// budget, per the strategy contract.
	for i, e := range entries {
		if e.Kind == transcript.EntryInstructions {
			keep[i] = struct{}{}
		}
		if _, ok := ctx.PreservedIndices[i]; ok {
			keep[i] = struct{}{}
		}
	}

	out := make([]transcript.Entry, 0, len(keep))
	for i, e := range entries {
		if _, ok := keep[i]; ok {
			out = append(out, e)
		}
	}
	t.Replace(out)
	return nil
}

func typePriority(k transcript.EntryKind) float64 {
	switch k {
	case transcript.EntryInstructions:
		return priorityInstructions
	case transcript.EntryPrompt:
		return priorityPrompt
	case transcript.EntryResponse:
		return priorityResponse
	case transcript.EntryToolCalls:
		return priorityToolCalls
	case transcript.EntryToolOutput:
		return priorityToolOutput
	default:
		return 0
	}
}

func entryTokenCost(e transcript.Entry) int {
	chars := len(e.Text)
	switch e.Kind {
	case transcript.EntryInstructions:
		chars += instructionsOverheadChars
	case transcript.EntryToolCalls:
		for _, tc := range e.ToolCalls {
			chars += len(tc.Name) + len(tc.Arguments) + toolCallOverheadChars
		}
	case transcript.EntryToolOutput:
		for _, to := range e.ToolOutputs {
			chars += len(to.Output)
		}
	}
	return chars / charsPerToken
}

// Hybrid applies its Strategies in sequence until the transcript is within
// budget (checked via EstimateTokens) or the strategy list is exhausted.
type Hybrid struct {
	Strategies []Strategy
}

// Compact implements Strategy.
func (s Hybrid) Compact(t *transcript.Transcript, targetTokens int, ctx Context) error {
	for _, strat := range s.Strategies {
		if EstimateTokens(t) <= targetTokens {
			return nil
		}
		if err := strat.Compact(t, targetTokens, ctx); err != nil {
			return err
		}
	}
	return nil
}
