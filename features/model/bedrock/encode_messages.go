package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentcore/runtime/runtime/agent/model"
)

// toolUseIDRemap tracks a per-request mapping from canonical tool_use IDs used
// in transcripts (which may be long or contain slashes) to provider-safe IDs
// that conform to Bedrock constraints ([a-zA-Z0-9_-]+, <=64 chars). The
// mapping is local to one encode pass; it is not persisted or surfaced to
// callers. This ensures internal correlation IDs (for example, long
// RunID-based strings) are never sent as Bedrock toolUseId values.
type toolUseIDRemap struct {
	ids  map[string]string
	next int
}

func (r *toolUseIDRemap) resolve(canonical string) string {
	if canonical == "" {
		return ""
	}
	if isProviderSafeToolUseID(canonical) {
		return canonical
	}
	if id, ok := r.ids[canonical]; ok {
		return id
	}
	if r.ids == nil {
		r.ids = make(map[string]string)
	}
	r.next++
	id := fmt.Sprintf("t%d", r.next)
	r.ids[canonical] = id
	return id
}

func encodeMessages(ctx context.Context, msgs []*model.Message, nameMap map[string]string, cacheAfterSystem bool) ([]brtypes.Message, []brtypes.SystemContentBlock, error) {
	remap := &toolUseIDRemap{}
	conversation := make([]brtypes.Message, 0, len(msgs))
	system := make([]brtypes.SystemContentBlock, 0, len(msgs))

	for _, m := range msgs {
		if m.Role == "system" {
			system = append(system, encodeSystemBlocks(m)...)
			continue
		}
		blocks, err := encodeContentBlocks(ctx, m, nameMap, remap)
		if err != nil {
			return nil, nil, err
		}
		if len(blocks) == 0 {
			continue
		}
		conversation = append(conversation, brtypes.Message{
			Role:    conversationRole(m.Role),
			Content: blocks,
		})
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("bedrock: at least one user/assistant message is required")
	}
	// Policy-driven: append a cache checkpoint after system messages when requested.
	if cacheAfterSystem && len(system) > 0 {
		system = append(system, cachePointSystemBlock())
	}
	return conversation, system, nil
}

func conversationRole(role model.ConversationRole) brtypes.ConversationRole {
	if role == "user" {
		return brtypes.ConversationRoleUser
	}
	return brtypes.ConversationRoleAssistant
}

func encodeSystemBlocks(m *model.Message) []brtypes.SystemContentBlock {
	var blocks []brtypes.SystemContentBlock
	for _, p := range m.Parts {
		switch v := p.(type) {
		case model.TextPart:
			if v.Text != "" {
				blocks = append(blocks, &brtypes.SystemContentBlockMemberText{Value: v.Text})
			}
		case model.CacheCheckpointPart:
			blocks = append(blocks, cachePointSystemBlock())
		}
	}
	return blocks
}

func cachePointSystemBlock() brtypes.SystemContentBlock {
	return &brtypes.SystemContentBlockMemberCachePoint{
		Value: brtypes.CachePointBlock{Type: brtypes.CachePointTypeDefault},
	}
}

func cachePointContentBlock() brtypes.ContentBlock {
	return &brtypes.ContentBlockMemberCachePoint{
		Value: brtypes.CachePointBlock{Type: brtypes.CachePointTypeDefault},
	}
}

func encodeContentBlocks(ctx context.Context, m *model.Message, nameMap map[string]string, remap *toolUseIDRemap) ([]brtypes.ContentBlock, error) {
	blocks := make([]brtypes.ContentBlock, 0, len(m.Parts))
	for _, part := range m.Parts {
		block, ok, err := encodeContentBlock(ctx, part, nameMap, remap)
		if err != nil {
			return nil, err
		}
		if ok {
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

func encodeContentBlock(ctx context.Context, part model.Part, nameMap map[string]string, remap *toolUseIDRemap) (brtypes.ContentBlock, bool, error) {
	switch v := part.(type) {
	case model.ThinkingPart:
		return encodeThinkingBlock(v)
	case model.TextPart:
		if v.Text == "" {
			return nil, false, nil
		}
		return &brtypes.ContentBlockMemberText{Value: v.Text}, true, nil
	case model.ToolUsePart:
		return encodeToolUseBlock(ctx, v, nameMap, remap)
	case model.ToolResultPart:
		return encodeToolResultBlock(ctx, v, remap), true, nil
	case model.CacheCheckpointPart:
		return cachePointContentBlock(), true, nil
	default:
		return nil, false, nil
	}
}

// encodeThinkingBlock encodes only provider-valid reasoning variants: signed
// plaintext reasoning, or redacted reasoning bytes.
func encodeThinkingBlock(v model.ThinkingPart) (brtypes.ContentBlock, bool, error) {
	if v.Signature != "" && v.Text != "" {
		return &brtypes.ContentBlockMemberReasoningContent{
			Value: &brtypes.ReasoningContentBlockMemberReasoningText{
				Value: brtypes.ReasoningTextBlock{
					Text:      aws.String(v.Text),
					Signature: aws.String(v.Signature),
				},
			},
		}, true, nil
	}
	if len(v.Redacted) > 0 {
		return &brtypes.ContentBlockMemberReasoningContent{
			Value: &brtypes.ReasoningContentBlockMemberRedactedContent{
				Value: v.Redacted,
			},
		}, true, nil
	}
	return nil, false, nil
}

func encodeToolUseBlock(ctx context.Context, v model.ToolUsePart, nameMap map[string]string, remap *toolUseIDRemap) (brtypes.ContentBlock, bool, error) {
	tb := brtypes.ToolUseBlock{}
	if v.Name != "" {
		// Strong contract: tool_use names in messages must match tool
		// definitions in the current request. Fail fast when a tool_use
		// references an unknown tool - this indicates transcript
		// contamination (e.g., ledger key collision between agent runs)
		// or a missing tool definition.
		sanitized, ok := nameMap[v.Name]
		if !ok || sanitized == "" {
			return nil, false, fmt.Errorf(
				"bedrock: tool_use in messages references %q which is not in "+
					"the current tool configuration; ensure transcript and "+
					"tool definitions are aligned (possible ledger contamination)",
				v.Name,
			)
		}
		tb.Name = aws.String(sanitized)
	}
	if v.ID != "" {
		if id := remap.resolve(v.ID); id != "" {
			tb.ToolUseId = aws.String(id)
		}
	}
	tb.Input = toDocument(ctx, v.Input)
	return &brtypes.ContentBlockMemberToolUse{Value: tb}, true, nil
}

// encodeToolResultBlock encodes a tool_result block. Bedrock expects these in
// user messages, correlated to a prior tool_use; content is encoded as text
// when Content is a string, otherwise as a JSON document.
func encodeToolResultBlock(ctx context.Context, v model.ToolResultPart, remap *toolUseIDRemap) brtypes.ContentBlock {
	tr := brtypes.ToolResultBlock{}
	if id := remap.resolve(v.ToolUseID); id != "" {
		tr.ToolUseId = aws.String(id)
	}
	if s, ok := v.Content.(string); ok {
		tr.Content = []brtypes.ToolResultContentBlock{
			&brtypes.ToolResultContentBlockMemberText{Value: s},
		}
	} else {
		tr.Content = []brtypes.ToolResultContentBlock{
			&brtypes.ToolResultContentBlockMemberJson{Value: toDocument(ctx, v.Content)},
		}
	}
	return &brtypes.ContentBlockMemberToolResult{Value: tr}
}
