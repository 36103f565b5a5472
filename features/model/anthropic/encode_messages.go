package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/agentcore/runtime/runtime/agent"
	"github.com/agentcore/runtime/runtime/agent/model"
)

func encodeMessages(msgs []*model.Message, nameMap map[string]string) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(msgs))
	system := make([]sdk.TextBlockParam, 0, len(msgs))

	for _, m := range msgs {
		if m == nil {
			continue
		}
		if m.Role == model.ConversationRoleSystem {
			system = append(system, encodeSystemBlocks(m)...)
			continue
		}

		blocks, err := encodeContentBlocks(m, nameMap)
		if err != nil {
			return nil, nil, err
		}
		if len(blocks) == 0 {
			continue
		}
		switch m.Role { //nolint:exhaustive
		case model.ConversationRoleUser:
			conversation = append(conversation, sdk.NewUserMessage(blocks...))
		case model.ConversationRoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func encodeSystemBlocks(m *model.Message) []sdk.TextBlockParam {
	var blocks []sdk.TextBlockParam
	for _, p := range m.Parts {
		if v, ok := p.(model.TextPart); ok && v.Text != "" {
			blocks = append(blocks, sdk.TextBlockParam{Text: v.Text})
		}
	}
	return blocks
}

func encodeContentBlocks(m *model.Message, nameMap map[string]string) ([]sdk.ContentBlockParamUnion, error) {
	blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Parts))
	for _, part := range m.Parts {
		block, ok, err := encodeContentBlock(part, nameMap)
		if err != nil {
			return nil, err
		}
		if ok {
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

// encodeContentBlock translates a single message part into its Anthropic
// block form. Thinking and cache checkpoint parts are provider-specific and
// are not re-encoded for Anthropic here, so they report ok=false.
func encodeContentBlock(part model.Part, nameMap map[string]string) (sdk.ContentBlockParamUnion, bool, error) {
	switch v := part.(type) {
	case model.TextPart:
		if v.Text == "" {
			return sdk.ContentBlockParamUnion{}, false, nil
		}
		return sdk.NewTextBlock(v.Text), true, nil
	case model.ToolUsePart:
		return encodeToolUseBlock(v, nameMap)
	case model.ToolResultPart:
		return encodeToolResult(v), true, nil
	default:
		return sdk.ContentBlockParamUnion{}, false, nil
	}
}

func encodeToolUseBlock(v model.ToolUsePart, nameMap map[string]string) (sdk.ContentBlockParamUnion, bool, error) {
	if v.Name == "" {
		return sdk.ContentBlockParamUnion{}, false, errors.New("anthropic: tool_use part missing name")
	}
	if sanitized, ok := nameMap[v.Name]; ok && sanitized != "" {
		return sdk.NewToolUseBlock(v.ID, v.Input, sanitized), true, nil
	}
	unavailable := agent.ToolUnavailable.String()
	sanitized, ok := nameMap[unavailable]
	if !ok || sanitized == "" {
		return sdk.ContentBlockParamUnion{}, false, fmt.Errorf(
			"anthropic: tool_use in messages references %q which is not in the current tool configuration and tool_unavailable is not available",
			v.Name,
		)
	}
	return sdk.NewToolUseBlock(v.ID, map[string]any{
		"requested_tool":    v.Name,
		"requested_payload": v.Input,
	}, sanitized), true, nil
}

func encodeToolResult(v model.ToolResultPart) sdk.ContentBlockParamUnion {
	var content string
	switch c := v.Content.(type) {
	case nil:
		content = ""
	case string:
		content = c
	case []byte:
		content = string(c)
	default:
		if data, err := json.Marshal(c); err == nil {
			content = string(data)
		}
	}
	return sdk.NewToolResultBlock(v.ToolUseID, content, v.IsError)
}
