package transcript

import (
	"github.com/agentcore/runtime/runtime/agent/memory"
	"github.com/agentcore/runtime/runtime/agent/model"
)

// FromModelMessages constructs a ledger initialized with the provided assistant
// messages. Only assistant-role messages contribute to the transcript; other
// roles are ignored.
func FromModelMessages(msgs []*model.Message) *Ledger {
	led := NewLedger()
	for _, msg := range msgs {
		if msg == nil || msg.Role != model.ConversationRoleAssistant {
			continue
		}
		for _, p := range msg.Parts {
			appendModelPart(led, p)
		}
	}
	return led
}

func appendModelPart(led *Ledger, p model.Part) {
	switch v := p.(type) {
	case model.ThinkingPart:
		cp := ThinkingPart{Text: v.Text, Signature: v.Signature, Index: v.Index, Final: v.Final}
		if len(v.Redacted) > 0 {
			cp.Redacted = append([]byte(nil), v.Redacted...)
		}
		led.AppendThinking(cp)
	case model.TextPart:
		led.AppendText(v.Text)
	case model.ToolUsePart:
		// Tool results are not part of assistant messages; they are
		// reconstructed separately from events or planner results.
		led.DeclareToolUse(v.ID, v.Name, v.Input)
	}
}

// replay accumulates ledger state while walking a durable memory event log.
type replay struct {
	ledger         *Ledger
	pendingResults []ToolResultSpec
	toolOrder      []string
}

// BuildMessagesFromEvents reconstructs provider-ready messages from durable
// memory events by replaying them through a Ledger. It returns messages in the
// canonical provider order (assistant thinking -> text -> tool_use; user
// tool_result).
func BuildMessagesFromEvents(events []memory.Event) []*model.Message {
	r := &replay{ledger: NewLedger()}
	for _, e := range events {
		r.apply(e)
	}
	r.flushResults()
	return r.ledger.BuildMessages()
}

func (r *replay) apply(e memory.Event) {
	data, _ := e.Data.(map[string]any)
	switch e.Type {
	case memory.EventAssistantMessage:
		r.applyAssistantMessage(data)
	case memory.EventToolCall:
		r.applyToolCall(data)
	case memory.EventToolResult:
		r.applyToolResult(data)
	case memory.EventThinking:
		r.applyThinking(data)
	case memory.EventPlannerNote:
		// Planner notes are not part of provider messages; ignore.
	case memory.EventUserMessage:
		// User messages are not stored today by the runtime; ignore if present.
	}
}

func (r *replay) applyAssistantMessage(data map[string]any) {
	if s, ok := data["message"].(string); ok && s != "" {
		r.ledger.AppendText(s)
	}
}

func (r *replay) applyToolCall(data map[string]any) {
	id, _ := data["tool_call_id"].(string)
	name, _ := data["tool_name"].(string)
	if id == "" || name == "" {
		return
	}
	r.ledger.DeclareToolUse(id, name, data["payload"])
	r.toolOrder = append(r.toolOrder, id)
}

func (r *replay) applyToolResult(data map[string]any) {
	id, _ := data["tool_call_id"].(string)
	if id == "" {
		return
	}
	result := data["result"]
	terr, hasErr := data["error"]
	isErr := hasErr && terr != nil
	content := result
	switch {
	case isErr && result == nil:
		content = map[string]any{"error": terr}
	case isErr:
		content = map[string]any{"result": result, "error": terr}
	}
	r.pendingResults = append(r.pendingResults, ToolResultSpec{
		ToolUseID: id,
		Content:   content,
		IsError:   isErr,
	})
}

func (r *replay) applyThinking(data map[string]any) {
	var tp ThinkingPart
	if v, ok := data["text"].(string); ok && v != "" {
		tp.Text = v
	}
	if v, ok := data["signature"].(string); ok && v != "" {
		tp.Signature = v
	}
	if v, ok := data["redacted"].([]byte); ok && len(v) > 0 {
		tp.Redacted = append([]byte(nil), v...)
	}
	if v, ok := data["content_index"].(int); ok {
		tp.Index = v
	}
	if v, ok := data["final"].(bool); ok {
		tp.Final = v
	}
	r.ledger.AppendThinking(tp)
}

// flushResults orders the accumulated tool results to match the tool_use
// declaration order recorded in toolOrder, flushes the pending assistant
// message first so it precedes the user tool_result message, and appends the
// ordered results to the ledger.
func (r *replay) flushResults() {
	if len(r.pendingResults) == 0 {
		return
	}
	r.ledger.FlushAssistant()

	byID := make(map[string]ToolResultSpec, len(r.pendingResults))
	for _, res := range r.pendingResults {
		if res.ToolUseID != "" {
			byID[res.ToolUseID] = res
		}
	}
	ordered := make([]ToolResultSpec, 0, len(byID))
	for _, id := range r.toolOrder {
		if res, ok := byID[id]; ok {
			ordered = append(ordered, res)
			delete(byID, id)
		}
	}
	// Append any remaining results with unrecognized IDs at the end to
	// preserve observability; this should not happen in normal operation.
	for _, res := range byID {
		ordered = append(ordered, res)
	}
	r.ledger.AppendUserToolResults(ordered)
}
