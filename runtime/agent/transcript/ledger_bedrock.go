package transcript

import (
	"errors"

	"github.com/agentcore/runtime/runtime/agent/model"
)

// ValidateBedrock verifies critical Bedrock constraints when thinking is enabled:
//   - Any assistant message that contains tool_use must start with thinking.
//   - For each user message containing tool_result, the immediately prior
//     assistant message must contain at least as many tool_use blocks.
//
// It returns a descriptive error when a constraint is violated.
func ValidateBedrock(messages []*model.Message, thinkingEnabled bool) error {
	for i, m := range messages {
		if m == nil || m.Role != model.ConversationRoleAssistant || !hasToolUse(m) {
			continue
		}
		if len(m.Parts) == 0 {
			return errors.New("bedrock: assistant message is empty where tool_use present")
		}
		if thinkingEnabled {
			if _, ok := m.Parts[0].(model.ThinkingPart); !ok {
				return errors.New("bedrock: assistant message with tool_use must start with thinking")
			}
		}
		if i+1 >= len(messages) || messages[i+1] == nil || messages[i+1].Role != model.ConversationRoleUser {
			return errors.New("bedrock: expected user tool_result following assistant tool_use")
		}
		if err := validateHandshake(m, messages[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func hasToolUse(m *model.Message) bool {
	for _, p := range m.Parts {
		if _, ok := p.(model.ToolUsePart); ok {
			return true
		}
	}
	return false
}

// validateHandshake checks that next's tool_result IDs are a subset of the
// tool_use IDs declared in assistantMsg, and do not outnumber them.
func validateHandshake(assistantMsg, next *model.Message) error {
	useIDs := toolUseIDs(assistantMsg)
	resIDs := toolResultIDs(next)
	if len(resIDs) > len(useIDs) {
		return errors.New("bedrock: tool_result count exceeds prior assistant tool_use count")
	}
	for id := range resIDs {
		if _, ok := useIDs[id]; !ok {
			return errors.New("bedrock: tool_result id does not match prior assistant tool_use id")
		}
	}
	return nil
}

func toolUseIDs(m *model.Message) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, p := range m.Parts {
		if tu, ok := p.(model.ToolUsePart); ok && tu.ID != "" {
			ids[tu.ID] = struct{}{}
		}
	}
	return ids
}

func toolResultIDs(m *model.Message) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, p := range m.Parts {
		if tr, ok := p.(model.ToolResultPart); ok && tr.ToolUseID != "" {
			ids[tr.ToolUseID] = struct{}{}
		}
	}
	return ids
}
