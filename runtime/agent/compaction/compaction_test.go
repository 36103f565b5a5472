package compaction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/runtime/agent/transcript"
)

func buildTranscript(t *testing.T, promptResponsePairs int) *transcript.Transcript {
	t.Helper()
	tr := transcript.New()
	require.NoError(t, tr.Append(transcript.Entry{Kind: transcript.EntryInstructions, Text: "be helpful"}))
	for i := 0; i < promptResponsePairs; i++ {
		require.NoError(t, tr.Append(transcript.Entry{Kind: transcript.EntryPrompt, Text: strings.Repeat("p", 400)}))
		require.NoError(t, tr.Append(transcript.Entry{Kind: transcript.EntryResponse, Text: strings.Repeat("r", 400)}))
	}
	return tr
}

func TestSlidingWindowCompaction(t *testing.T) {
	tr := buildTranscript(t, 100)

	mgr, err := NewManager(Config{
		ContextWindowSize:      10_000,
		ReservedResponseTokens: 0,
		WarningThreshold:       0.6,
		CompactionThreshold:    0.8,
		Strategy:               SlidingWindow{WindowSize: 20},
	})
	require.NoError(t, err)

	compacted, err := mgr.CompactIfNeeded(tr, "sess-1", nil)
	require.NoError(t, err)
	require.True(t, compacted)
	require.Equal(t, 21, tr.Len())
	require.Equal(t, transcript.EntryInstructions, tr.Entries()[0].Kind)
	require.Equal(t, 1, mgr.Statistics().CompactionCount)
}

func TestCompactIfNeededSkipsBelowThreshold(t *testing.T) {
	tr := buildTranscript(t, 2)

	mgr, err := NewManager(Config{
		ContextWindowSize:   10_000,
		WarningThreshold:    0.6,
		CompactionThreshold: 0.8,
		Strategy:            SlidingWindow{WindowSize: 1},
	})
	require.NoError(t, err)

	compacted, err := mgr.CompactIfNeeded(tr, "sess-1", nil)
	require.NoError(t, err)
	require.False(t, compacted)
	require.Equal(t, 5, tr.Len())
}

func TestPriorityStrategyHonoursPreservedIndices(t *testing.T) {
	tr := buildTranscript(t, 50)
	preserved := map[int]struct{}{3: {}}

	mgr, err := NewManager(Config{
		ContextWindowSize:      10_000,
		ReservedResponseTokens: 0,
		WarningThreshold:       0.6,
		CompactionThreshold:    0.8,
		Strategy:               Priority{RecencyWeight: 10},
	})
	require.NoError(t, err)

	compacted, err := mgr.CompactIfNeeded(tr, "sess-1", preserved)
	require.NoError(t, err)
	require.True(t, compacted)

	found := false
	for _, e := range tr.Entries() {
		if e.Kind == transcript.EntryPrompt && len(e.Text) > 0 {
			found = true
		}
	}
	require.True(t, found)
	require.Equal(t, transcript.EntryInstructions, tr.Entries()[0].Kind)
}

func TestTruncationPreservesToolOutputs(t *testing.T) {
	tr := transcript.New()
	require.NoError(t, tr.Append(transcript.Entry{Kind: transcript.EntryInstructions, Text: "sys"}))
	require.NoError(t, tr.Append(transcript.Entry{
		Kind:        transcript.EntryToolOutput,
		ToolOutputs: []transcript.ToolOutputEntry{{ToolUseID: "tu1", Output: "result", Success: true}},
	}))
	for i := 0; i < 30; i++ {
		require.NoError(t, tr.Append(transcript.Entry{Kind: transcript.EntryPrompt, Text: "filler"}))
	}

	s := Truncation{PreserveRecentCount: 5, PreserveToolOutputs: true}
	require.NoError(t, s.Compact(tr, 0, Context{}))

	hasToolOutput := false
	for _, e := range tr.Entries() {
		if e.Kind == transcript.EntryToolOutput {
			hasToolOutput = true
		}
	}
	require.True(t, hasToolOutput, "tool output entry must survive truncation")
	require.Equal(t, transcript.EntryInstructions, tr.Entries()[0].Kind)
}

func TestNewManagerValidatesThresholds(t *testing.T) {
	_, err := NewManager(Config{ContextWindowSize: 1000, WarningThreshold: 0.9, CompactionThreshold: 0.5})
	require.Error(t, err)

	_, err = NewManager(Config{ContextWindowSize: 0})
	require.Error(t, err)
}
