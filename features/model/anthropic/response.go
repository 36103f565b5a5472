package anthropic

import (
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/agentcore/runtime/runtime/agent"
	"github.com/agentcore/runtime/runtime/agent/model"
)

// translateResponse converts a completed Anthropic message into the
// generic planner response shape: assistant text messages, tool calls, and
// token usage. nameMap translates sanitized provider tool names back to
// their canonical identifiers.
func translateResponse(msg *sdk.Message, nameMap map[string]string) (*model.Response, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	resp := &model.Response{}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			appendTextBlock(resp, block)
		case "tool_use":
			appendToolUseBlock(resp, block, nameMap)
		}
	}
	resp.Usage = translateUsage(msg.Usage)
	resp.StopReason = string(msg.StopReason)
	return resp, nil
}

func appendTextBlock(resp *model.Response, block sdk.ContentBlockUnion) {
	if block.Text == "" {
		return
	}
	resp.Content = append(resp.Content, model.Message{
		Role:  model.ConversationRoleAssistant,
		Parts: []model.Part{model.TextPart{Text: block.Text}},
	})
}

func appendToolUseBlock(resp *model.Response, block sdk.ContentBlockUnion, nameMap map[string]string) {
	name := ""
	if block.Name != "" {
		if canonical, ok := nameMap[block.Name]; ok {
			name = canonical
		} else {
			name = block.Name
		}
	}
	resp.ToolCalls = append(resp.ToolCalls, model.ToolCall{
		Name:    agent.Ident(name),
		Payload: block.Input,
		ID:      block.ID,
	})
}

func translateUsage(u sdk.Usage) model.TokenUsage {
	if u.InputTokens == 0 && u.OutputTokens == 0 && u.CacheReadInputTokens == 0 && u.CacheCreationInputTokens == 0 {
		return model.TokenUsage{}
	}
	return model.TokenUsage{
		InputTokens:      int(u.InputTokens),
		OutputTokens:     int(u.OutputTokens),
		TotalTokens:      int(u.InputTokens + u.OutputTokens),
		CacheReadTokens:  int(u.CacheReadInputTokens),
		CacheWriteTokens: int(u.CacheCreationInputTokens),
	}
}
