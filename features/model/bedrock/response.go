package bedrock

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentcore/runtime/runtime/agent"
	"github.com/agentcore/runtime/runtime/agent/model"
)

func translateResponse(output *bedrockruntime.ConverseOutput, nameMap map[string]string) (*model.Response, error) {
	if output == nil {
		return nil, errors.New("bedrock: response is nil")
	}
	resp := &model.Response{}
	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if err := appendResponseBlock(resp, block, nameMap); err != nil {
				return nil, err
			}
		}
	}
	resp.Usage = translateUsage(output.Usage)
	resp.StopReason = string(output.StopReason)
	return resp, nil
}

func appendResponseBlock(resp *model.Response, block brtypes.ContentBlock, nameMap map[string]string) error {
	switch v := block.(type) {
	case *brtypes.ContentBlockMemberText:
		appendTextBlock(resp, v)
	case *brtypes.ContentBlockMemberToolUse:
		return appendToolUseBlock(resp, v, nameMap)
	}
	return nil
}

func appendTextBlock(resp *model.Response, v *brtypes.ContentBlockMemberText) {
	if v.Value == "" {
		return
	}
	resp.Content = append(resp.Content, model.Message{
		Role:  "assistant",
		Parts: []model.Part{model.TextPart{Text: v.Value}},
	})
}

func appendToolUseBlock(resp *model.Response, v *brtypes.ContentBlockMemberToolUse, nameMap map[string]string) error {
	payload := decodeDocument(v.Value.Input)
	name := ""
	if v.Value.Name != nil {
		raw := *v.Value.Name
		key := normalizeToolName(raw)
		canonical, ok := nameMap[key]
		if !ok {
			return fmt.Errorf(
				"bedrock: tool name %q not in reverse map (raw: %q); expected canonical tool ID: %s",
				key, raw, reverseToolNameDiagnostics(nameMap, raw),
			)
		}
		name = canonical
	}
	var id string
	if v.Value.ToolUseId != nil {
		id = *v.Value.ToolUseId
	}
	resp.ToolCalls = append(resp.ToolCalls, model.ToolCall{
		Name:    agent.Ident(name),
		Payload: payload,
		ID:      id,
	})
	return nil
}

func translateUsage(usage *brtypes.TokenUsage) model.TokenUsage {
	if usage == nil {
		return model.TokenUsage{}
	}
	return model.TokenUsage{
		InputTokens:      int(ptrValue(usage.InputTokens)),
		OutputTokens:     int(ptrValue(usage.OutputTokens)),
		TotalTokens:      int(ptrValue(usage.TotalTokens)),
		CacheReadTokens:  int(ptrValue(usage.CacheReadInputTokens)),
		CacheWriteTokens: int(ptrValue(usage.CacheWriteInputTokens)),
	}
}
