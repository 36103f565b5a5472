// Package compaction bounds conversational transcript size. It estimates
// token usage and, once a configured threshold is crossed, hands the
// transcript to a pluggable Strategy that trims it back under budget while
// preserving the Instructions entry and any caller-marked indices.
package compaction

import (
	"fmt"
	"time"

	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transcript"
)

const (
	instructionsOverheadChars = 500
	toolCallOverheadChars     = 100
	charsPerToken             = 4
)

type (
	// Usage summarizes a transcript's estimated token footprint.
	Usage struct {
		EstimatedTokens   int
		ContextWindowSize int
		EntryCount        int
		ToolCallCount     int
		ResponseCount     int
		Timestamp         time.Time
	}

	// Statistics accumulates compaction history for a session's context
	// manager.
	Statistics struct {
		CompactionCount  int
		TotalTokensSaved int
		LastUsage        Usage
	}

	// Context is passed to a Strategy alongside the transcript and target
	// token budget.
	Context struct {
		SessionID        string
		Usage            Usage
		TriggerThreshold float64
		PreservedIndices map[int]struct{}
	}

	// Strategy reduces a transcript to fit within targetTokens. Implementations
	// must preserve the Instructions entry (if present) as the first entry,
	// and should honour ctx.PreservedIndices where feasible.
	Strategy interface {
		Compact(t *transcript.Transcript, targetTokens int, ctx Context) error
	}

	// Config configures a Manager. WarningThreshold and CompactionThreshold
	// are usage ratios in [0,1]; WarningThreshold <= CompactionThreshold.
	Config struct {
		ContextWindowSize      int
		ReservedResponseTokens int
		WarningThreshold       float64
		CompactionThreshold    float64
		Strategy               Strategy
	}

	// Manager monitors transcript usage and triggers compaction. A Manager is
	// not safe for concurrent use from multiple goroutines without external
	// synchronization; callers that share one Manager across goroutines
	// serialise their calls themselves.
	Manager struct {
		cfg   Config
		stats Statistics
	}
)

// UsageRatio returns EstimatedTokens / ContextWindowSize.
func (u Usage) UsageRatio() float64 {
	if u.ContextWindowSize <= 0 {
		return 0
	}
	return float64(u.EstimatedTokens) / float64(u.ContextWindowSize)
}

// EstimateTokens sums per-entry character counts (with per-variant overheads)
// and divides by charsPerToken, per §4.4.
func EstimateTokens(t *transcript.Transcript) int {
	chars := 0
	for _, e := range t.Entries() {
		switch e.Kind {
		case transcript.EntryInstructions:
			chars += len(e.Text) + instructionsOverheadChars
		case transcript.EntryToolCalls:
			chars += len(e.Text)
			for _, tc := range e.ToolCalls {
				chars += len(tc.Name) + len(tc.Arguments) + toolCallOverheadChars
			}
		case transcript.EntryToolOutput:
			chars += len(e.Text)
			for _, to := range e.ToolOutputs {
				chars += len(to.Output)
			}
		default:
			chars += len(e.Text)
		}
	}
	return chars / charsPerToken
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.ContextWindowSize <= 0 {
		return nil, fmt.Errorf("compaction: context_window_size must be positive")
	}
	if cfg.ReservedResponseTokens < 0 || cfg.ReservedResponseTokens >= cfg.ContextWindowSize {
		return nil, fmt.Errorf("compaction: reserved_response_tokens must be less than context_window_size")
	}
	if cfg.WarningThreshold < 0 || cfg.WarningThreshold > cfg.CompactionThreshold || cfg.CompactionThreshold > 1.0 {
		return nil, fmt.Errorf("compaction: thresholds must satisfy 0 <= warning_threshold <= compaction_threshold <= 1.0")
	}
	if cfg.Strategy == nil {
		cfg.Strategy = NoOp{}
	}
	return &Manager{cfg: cfg}, nil
}

// Usage computes the current usage snapshot for t.
func (m *Manager) Usage(t *transcript.Transcript) Usage {
	return Usage{
		EstimatedTokens:   EstimateTokens(t),
		ContextWindowSize: m.cfg.ContextWindowSize,
		EntryCount:        t.Len(),
		ToolCallCount:     t.ToolCallCount(),
		ResponseCount:     t.ResponseCount(),
		Timestamp:         time.Now(),
	}
}

// Statistics returns a copy of the manager's accumulated statistics.
func (m *Manager) Statistics() Statistics {
	return m.stats
}

// CompactIfNeeded computes usage and, if usage_ratio >= compaction_threshold,
// applies the configured strategy targeting 60% of the available window
// (context_window_size - reserved_response_tokens). It reports whether
// compaction ran.
func (m *Manager) CompactIfNeeded(t *transcript.Transcript, sessionID string, preservedIndices map[int]struct{}) (bool, error) {
	usage := m.Usage(t)
	if usage.UsageRatio() < m.cfg.CompactionThreshold {
		return false, nil
	}

	before := usage.EstimatedTokens
	targetTokens := int(0.6 * float64(m.cfg.ContextWindowSize-m.cfg.ReservedResponseTokens))

	ctx := Context{
		SessionID:        sessionID,
		Usage:            usage,
		TriggerThreshold: m.cfg.CompactionThreshold,
		PreservedIndices: preservedIndices,
	}
	if err := m.cfg.Strategy.Compact(t, targetTokens, ctx); err != nil {
		return false, err
	}

	after := EstimateTokens(t)
	m.stats.CompactionCount++
	if before > after {
		m.stats.TotalTokensSaved += before - after
	}
	m.stats.LastUsage = m.Usage(t)
	return true, nil
}

// compactionError is a small constructor helper for toolerrors.CompactionError.
func compactionError(kind toolerrors.CompactionKind, detail string) error {
	return &toolerrors.CompactionError{Kind: kind, Detail: detail}
}
