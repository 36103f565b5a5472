package anthropic

import (
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/agentcore/runtime/runtime/agent"
	"github.com/agentcore/runtime/runtime/agent/model"
)

// anthropicChunkProcessor converts Anthropic streaming events into model.Chunks.
type anthropicChunkProcessor struct {
	emit        func(model.Chunk) error
	recordUsage func(model.TokenUsage)

	toolBlocks     map[int]*toolBuffer
	thinkingBlocks map[int]*thinkingBuffer

	toolNameMap map[string]string

	stopReason string
}

func newAnthropicChunkProcessor(emit func(model.Chunk) error, recordUsage func(model.TokenUsage), nameMap map[string]string) *anthropicChunkProcessor {
	return &anthropicChunkProcessor{
		emit:           emit,
		recordUsage:    recordUsage,
		toolBlocks:     make(map[int]*toolBuffer),
		thinkingBlocks: make(map[int]*thinkingBuffer),
		toolNameMap:    nameMap,
	}
}

func (p *anthropicChunkProcessor) Handle(event sdk.MessageStreamEventUnion) error {
	switch ev := event.AsAny().(type) {
	case sdk.MessageStartEvent:
		return p.handleMessageStart()
	case sdk.ContentBlockStartEvent:
		return p.handleBlockStart(ev)
	case sdk.ContentBlockDeltaEvent:
		return p.handleBlockDelta(ev)
	case sdk.ContentBlockStopEvent:
		return p.handleBlockStop(ev)
	case sdk.MessageDeltaEvent:
		return p.handleMessageDelta(ev)
	case sdk.MessageStopEvent:
		return p.handleMessageStop()
	default:
		return nil
	}
}

func (p *anthropicChunkProcessor) handleMessageStart() error {
	p.toolBlocks = make(map[int]*toolBuffer)
	p.thinkingBlocks = make(map[int]*thinkingBuffer)
	p.stopReason = ""
	return nil
}

func (p *anthropicChunkProcessor) handleBlockStart(ev sdk.ContentBlockStartEvent) error {
	toolUse, ok := ev.ContentBlock.AsAny().(sdk.ToolUseBlock)
	if !ok {
		return nil
	}
	if toolUse.ID == "" {
		return fmt.Errorf("anthropic stream: tool use block missing id")
	}
	if toolUse.Name == "" {
		return fmt.Errorf("anthropic stream: tool use block %q missing name", toolUse.ID)
	}
	tb := &toolBuffer{id: toolUse.ID}
	// Anthropic echoes the provider-visible tool name in tool_use blocks.
	// When the model hallucinates a tool name that was not advertised in this
	// request, the reverse map will not contain it. Surface the tool call
	// as-is and let the runtime convert it into an "unknown tool" result so
	// the model can recover on the next resume turn.
	if canonical, ok := p.toolNameMap[toolUse.Name]; ok {
		tb.name = canonical
	} else {
		tb.name = toolUse.Name
	}
	p.toolBlocks[int(ev.Index)] = tb
	return nil
}

func (p *anthropicChunkProcessor) handleBlockDelta(ev sdk.ContentBlockDeltaEvent) error {
	idx := int(ev.Index)
	switch delta := ev.Delta.AsAny().(type) {
	case sdk.TextDelta:
		return p.handleTextDelta(idx, delta)
	case sdk.InputJSONDelta:
		return p.handleToolJSONDelta(idx, delta)
	case sdk.ThinkingDelta:
		return p.handleThinkingDelta(idx, delta)
	case sdk.SignatureDelta:
		return p.handleSignatureDelta(idx, delta)
	default:
		return nil
	}
}

func (p *anthropicChunkProcessor) handleTextDelta(idx int, delta sdk.TextDelta) error {
	if delta.Text == "" {
		return nil
	}
	return p.emit(model.Chunk{
		Type: model.ChunkTypeText,
		Message: &model.Message{
			Role: model.ConversationRoleAssistant,
			Parts: []model.Part{
				model.TextPart{Text: delta.Text},
			},
			Meta: map[string]any{"content_index": idx},
		},
	})
}

func (p *anthropicChunkProcessor) handleToolJSONDelta(idx int, delta sdk.InputJSONDelta) error {
	if delta.PartialJSON == "" {
		return nil
	}
	tb := p.toolBlocks[idx]
	if tb == nil {
		return nil
	}
	tb.fragments = append(tb.fragments, delta.PartialJSON)
	if tb.id == "" {
		return fmt.Errorf("anthropic stream: tool JSON delta missing tool call id")
	}
	if tb.name == "" {
		return fmt.Errorf("anthropic stream: tool JSON delta missing tool name for id %q", tb.id)
	}
	return p.emit(model.Chunk{
		Type: model.ChunkTypeToolCallDelta,
		ToolCallDelta: &model.ToolCallDelta{
			Name:  agent.Ident(tb.name),
			ID:    tb.id,
			Delta: delta.PartialJSON,
		},
	})
}

func (p *anthropicChunkProcessor) handleThinkingDelta(idx int, delta sdk.ThinkingDelta) error {
	if delta.Thinking == "" {
		return nil
	}
	tb := p.thinkingBuffer(idx)
	tb.text.WriteString(delta.Thinking)
	return p.emit(model.Chunk{
		Type:     model.ChunkTypeThinking,
		Thinking: delta.Thinking,
		Message: &model.Message{
			Role: model.ConversationRoleAssistant,
			Parts: []model.Part{
				model.ThinkingPart{
					Text:  delta.Thinking,
					Index: idx,
					Final: false,
				},
			},
		},
	})
}

func (p *anthropicChunkProcessor) handleSignatureDelta(idx int, delta sdk.SignatureDelta) error {
	if delta.Signature == "" {
		return nil
	}
	p.thinkingBuffer(idx).signature = delta.Signature
	return nil
}

func (p *anthropicChunkProcessor) thinkingBuffer(idx int) *thinkingBuffer {
	tb := p.thinkingBlocks[idx]
	if tb == nil {
		tb = &thinkingBuffer{}
		p.thinkingBlocks[idx] = tb
	}
	return tb
}

func (p *anthropicChunkProcessor) handleBlockStop(ev sdk.ContentBlockStopEvent) error {
	idx := int(ev.Index)
	if err := p.flushThinkingBlock(idx); err != nil {
		return err
	}
	return p.flushToolBlock(idx)
}

func (p *anthropicChunkProcessor) flushThinkingBlock(idx int) error {
	tb := p.thinkingBlocks[idx]
	if tb == nil {
		return nil
	}
	delete(p.thinkingBlocks, idx)
	part := tb.finalize(idx)
	if part == nil {
		return nil
	}
	if part.Text == "" && len(part.Redacted) == 0 {
		return nil
	}
	return p.emit(model.Chunk{
		Type:     model.ChunkTypeThinking,
		Thinking: part.Text,
		Message: &model.Message{
			Role:  model.ConversationRoleAssistant,
			Parts: []model.Part{*part},
		},
	})
}

func (p *anthropicChunkProcessor) flushToolBlock(idx int) error {
	tb := p.toolBlocks[idx]
	if tb == nil {
		return nil
	}
	payload := decodeToolPayload(tb.finalInput())
	delete(p.toolBlocks, idx)
	return p.emit(model.Chunk{
		Type: model.ChunkTypeToolCall,
		ToolCall: &model.ToolCall{
			Name:    agent.Ident(tb.name),
			Payload: payload,
			ID:      tb.id,
		},
	})
}

func (p *anthropicChunkProcessor) handleMessageDelta(ev sdk.MessageDeltaEvent) error {
	p.stopReason = string(ev.Delta.StopReason)
	usage := model.TokenUsage{
		InputTokens:      int(ev.Usage.InputTokens),
		OutputTokens:     int(ev.Usage.OutputTokens),
		TotalTokens:      int(ev.Usage.InputTokens + ev.Usage.OutputTokens),
		CacheReadTokens:  int(ev.Usage.CacheReadInputTokens),
		CacheWriteTokens: int(ev.Usage.CacheCreationInputTokens),
	}
	if p.recordUsage != nil {
		p.recordUsage(usage)
	}
	return p.emit(model.Chunk{Type: model.ChunkTypeUsage, UsageDelta: &usage})
}

func (p *anthropicChunkProcessor) handleMessageStop() error {
	chunk := model.Chunk{Type: model.ChunkTypeStop}
	if p.stopReason != "" {
		chunk.StopReason = p.stopReason
	}
	p.toolBlocks = make(map[int]*toolBuffer)
	p.thinkingBlocks = make(map[int]*thinkingBuffer)
	return p.emit(chunk)
}
