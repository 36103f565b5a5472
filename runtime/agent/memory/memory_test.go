package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReaderFilterByType(t *testing.T) {
	events := []Event{
		{Type: EventUserMessage, Timestamp: time.Unix(1, 0)},
		{Type: EventToolCall, Timestamp: time.Unix(2, 0)},
		{Type: EventToolCall, Timestamp: time.Unix(3, 0)},
	}
	r := NewReader(events)
	calls := r.FilterByType(EventToolCall)
	require.Len(t, calls, 2)
	require.Empty(t, r.FilterByType(EventAnnotation))
}

func TestReaderLatest(t *testing.T) {
	events := []Event{
		{Type: EventThinking, Data: "first"},
		{Type: EventThinking, Data: "second"},
	}
	r := NewReader(events)
	latest, ok := r.Latest(EventThinking)
	require.True(t, ok)
	require.Equal(t, "second", latest.Data)

	_, ok = r.Latest(EventToolResult)
	require.False(t, ok)
}

func TestReaderEventsReturnsCopy(t *testing.T) {
	events := []Event{{Type: EventUserMessage}}
	r := NewReader(events)
	out := r.Events()
	out[0].Type = EventToolResult
	require.Equal(t, EventUserMessage, r.Events()[0].Type)
}
