package transcript

import "github.com/agentcore/runtime/runtime/agent/model"

// NewLedger constructs an empty Ledger ready to record a turn transcript.
func NewLedger() *Ledger {
	return &Ledger{messages: make([]Message, 0, 8)}
}

// AppendThinking records a structured thinking block and ensures it appears at
// the head of the current assistant message. When a message is not yet open,
// a new assistant message is started.
func (l *Ledger) AppendThinking(tp ThinkingPart) {
	l.open()
	head := l.leadingThinkingRun()
	parts := make([]Part, 0, len(l.current.Parts)+1)
	parts = append(parts, l.current.Parts[:head]...)
	parts = append(parts, tp)
	parts = append(parts, l.current.Parts[head:]...)
	l.current.Parts = parts
}

// leadingThinkingRun returns the index just past the run of ThinkingPart
// values at the head of the current message's Parts (zero if none).
func (l *Ledger) leadingThinkingRun() int {
	i := 0
	for i < len(l.current.Parts) {
		if _, ok := l.current.Parts[i].(ThinkingPart); !ok {
			break
		}
		i++
	}
	return i
}

// AppendText appends assistant text to the current assistant message. When no
// assistant message is open, a new one is started.
func (l *Ledger) AppendText(text string) {
	if text == "" {
		return
	}
	l.open()
	l.current.Parts = append(l.current.Parts, TextPart{Text: text})
}

// DeclareToolUse appends a tool_use to the current assistant message. The
// caller is responsible for flushing the assistant message at the end of the
// turn so that subsequent user tool_result messages can correlate to the full
// set of tool_use blocks.
func (l *Ledger) DeclareToolUse(id, name string, args any) {
	l.open()
	l.current.Parts = append(l.current.Parts, ToolUsePart{ID: id, Name: name, Args: args})
}

// open starts a new pending assistant message if one is not already open.
func (l *Ledger) open() {
	if l.current == nil {
		l.current = &Message{Role: "assistant", Parts: make([]Part, 0, 2)}
	}
}

// FlushAssistant finalizes the current assistant message (if any) and appends
// it to the ledger. It is safe to call when no assistant message is open.
func (l *Ledger) FlushAssistant() {
	l.flushAssistant()
}

func (l *Ledger) flushAssistant() {
	if l.current == nil || len(l.current.Parts) == 0 {
		l.current = nil
		return
	}
	l.messages = append(l.messages, *l.current)
	l.current = nil
}

// AppendUserToolResults appends a single user message containing tool_result
// parts for the provided specs, preserving their order. Specs with empty
// ToolUseID are ignored.
func (l *Ledger) AppendUserToolResults(results []ToolResultSpec) {
	if len(results) == 0 {
		return
	}
	parts := make([]Part, 0, len(results))
	for _, r := range results {
		if r.ToolUseID == "" {
			continue
		}
		parts = append(parts, ToolResultPart(r))
	}
	if len(parts) == 0 {
		return
	}
	l.messages = append(l.messages, Message{Role: "user", Parts: parts})
}

// IsEmpty reports whether the ledger currently holds any committed or pending parts.
func (l *Ledger) IsEmpty() bool {
	if l == nil {
		return true
	}
	if l.current != nil && len(l.current.Parts) > 0 {
		return false
	}
	return len(l.messages) == 0
}

// BuildMessages flushes the current assistant (if any) and converts the ledger
// to provider-agnostic model messages suitable for provider adapters.
func (l *Ledger) BuildMessages() []*model.Message {
	l.flushAssistant()
	if len(l.messages) == 0 {
		return nil
	}
	out := make([]*model.Message, 0, len(l.messages))
	for i := range l.messages {
		msg := convertMessage(l.messages[i])
		if len(msg.Parts) > 0 {
			out = append(out, msg)
		}
	}
	return out
}

func convertMessage(m Message) *model.Message {
	msg := &model.Message{
		Role:  model.ConversationRole(m.Role),
		Parts: make([]model.Part, 0, len(m.Parts)),
		Meta:  m.Meta,
	}
	for _, p := range m.Parts {
		if converted, ok := convertPart(p); ok {
			msg.Parts = append(msg.Parts, converted)
		}
	}
	return msg
}

func convertPart(p Part) (model.Part, bool) {
	switch v := p.(type) {
	case ThinkingPart:
		return convertThinking(v)
	case TextPart:
		return model.TextPart{Text: v.Text}, true
	case ToolUsePart:
		return model.ToolUsePart{ID: v.ID, Name: v.Name, Input: v.Args}, true
	case ToolResultPart:
		return model.ToolResultPart(v), true
	default:
		return nil, false
	}
}

// convertThinking drops a ledger ThinkingPart that carries neither redacted
// bytes nor a signed plaintext pair: it has nothing provider-valid to emit.
func convertThinking(v ThinkingPart) (model.Part, bool) {
	if len(v.Redacted) > 0 {
		return model.ThinkingPart{
			Redacted: append([]byte(nil), v.Redacted...),
			Index:    v.Index,
			Final:    v.Final,
		}, true
	}
	if v.Text != "" && v.Signature != "" {
		return model.ThinkingPart{
			Text:      v.Text,
			Signature: v.Signature,
			Index:     v.Index,
			Final:     v.Final,
		}, true
	}
	return nil, false
}
