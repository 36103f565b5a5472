package bedrock

import (
	"fmt"

	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentcore/runtime/runtime/agent"
	"github.com/agentcore/runtime/runtime/agent/model"
)

// chunkProcessor converts Bedrock streaming events into model.Chunks.
type chunkProcessor struct {
	emit        func(model.Chunk) error
	recordUsage func(model.TokenUsage)
	recordCites func([]model.Citation)

	toolBlocks      map[int]*toolBuffer
	reasoningBlocks map[int]*reasoningBuffer

	toolNameMap map[string]string
}

func newChunkProcessor(
	emit func(model.Chunk) error,
	recordUsage func(model.TokenUsage),
	recordCites func([]model.Citation),
	nameMap map[string]string,
) *chunkProcessor {
	return &chunkProcessor{
		emit:            emit,
		recordUsage:     recordUsage,
		recordCites:     recordCites,
		toolBlocks:      make(map[int]*toolBuffer),
		reasoningBlocks: make(map[int]*reasoningBuffer),
		toolNameMap:     nameMap,
	}
}

func (p *chunkProcessor) Handle(event any) error {
	switch ev := event.(type) {
	case *brtypes.ConverseStreamOutputMemberMessageStart:
		return p.handleMessageStart()
	case *brtypes.ConverseStreamOutputMemberContentBlockStart:
		return p.handleBlockStart(ev)
	case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
		return p.handleBlockDelta(ev)
	case *brtypes.ConverseStreamOutputMemberContentBlockStop:
		return p.handleBlockStop(ev)
	case *brtypes.ConverseStreamOutputMemberMessageStop:
		return p.handleMessageStop(ev)
	case *brtypes.ConverseStreamOutputMemberMetadata:
		return p.handleMetadata(ev)
	default:
		return nil
	}
}

func (p *chunkProcessor) handleMessageStart() error {
	p.toolBlocks = make(map[int]*toolBuffer)
	return nil
}

func (p *chunkProcessor) handleBlockStart(ev *brtypes.ConverseStreamOutputMemberContentBlockStart) error {
	idx, err := contentIndex(ev.Value.ContentBlockIndex)
	if err != nil {
		return err
	}
	start := ev.Value.Start
	if start == nil {
		return nil
	}
	toolUse, ok := start.(*brtypes.ContentBlockStartMemberToolUse)
	if !ok {
		return nil
	}
	if toolUse.Value.ToolUseId == nil || *toolUse.Value.ToolUseId == "" {
		return fmt.Errorf("bedrock stream: tool use block missing tool_use_id")
	}
	tb := &toolBuffer{id: *toolUse.Value.ToolUseId}
	if toolUse.Value.Name == nil || *toolUse.Value.Name == "" {
		return fmt.Errorf("bedrock stream: tool use block %q missing name", tb.id)
	}
	raw := *toolUse.Value.Name
	name := normalizeToolName(raw)
	canonical, ok := p.toolNameMap[name]
	if !ok {
		return fmt.Errorf(
			"bedrock stream: tool name %q not in reverse map (raw: %q); expected canonical tool ID: %s",
			name, raw, reverseToolNameDiagnostics(p.toolNameMap, raw),
		)
	}
	tb.name = canonical
	p.toolBlocks[idx] = tb
	return nil
}

func (p *chunkProcessor) handleBlockDelta(ev *brtypes.ConverseStreamOutputMemberContentBlockDelta) error {
	idx, err := contentIndex(ev.Value.ContentBlockIndex)
	if err != nil {
		return err
	}
	switch delta := ev.Value.Delta.(type) {
	case *brtypes.ContentBlockDeltaMemberText:
		return p.handleTextDelta(idx, delta)
	case *brtypes.ContentBlockDeltaMemberCitation:
		return p.handleCitationDelta(delta)
	case *brtypes.ContentBlockDeltaMemberReasoningContent:
		return p.handleReasoningDelta(idx, delta)
	case *brtypes.ContentBlockDeltaMemberToolUse:
		return p.handleToolUseDelta(idx, delta)
	default:
		return nil
	}
}

func (p *chunkProcessor) handleTextDelta(idx int, delta *brtypes.ContentBlockDeltaMemberText) error {
	if delta.Value == "" {
		return nil
	}
	return p.emit(model.Chunk{
		Type: model.ChunkTypeText,
		Message: &model.Message{
			Role:  "assistant",
			Parts: []model.Part{model.TextPart{Text: delta.Value}},
			Meta:  map[string]any{"content_index": idx},
		},
	})
}

func (p *chunkProcessor) handleCitationDelta(delta *brtypes.ContentBlockDeltaMemberCitation) error {
	if p.recordCites == nil {
		return nil
	}
	citation := translateCitationDelta(delta.Value)
	if citation.Title == "" && citation.Source == "" && citation.Location == (model.CitationLocation{}) && len(citation.SourceContent) == 0 {
		return nil
	}
	p.recordCites([]model.Citation{citation})
	return nil
}

func (p *chunkProcessor) handleReasoningDelta(idx int, delta *brtypes.ContentBlockDeltaMemberReasoningContent) error {
	rb := p.reasoningBlocks[idx]
	if rb == nil {
		rb = &reasoningBuffer{}
		p.reasoningBlocks[idx] = rb
	}
	switch v := delta.Value.(type) {
	case *brtypes.ReasoningContentBlockDeltaMemberText:
		if v.Value == "" {
			return nil
		}
		rb.text.WriteString(v.Value)
		// Stream incremental thinking text for UX; final part is emitted on stop.
		return p.emit(model.Chunk{
			Type:     model.ChunkTypeThinking,
			Thinking: v.Value,
			Message: &model.Message{
				Role: "assistant",
				Parts: []model.Part{model.ThinkingPart{
					Text:  v.Value,
					Index: idx,
					Final: false,
				}},
			},
		})
	case *brtypes.ReasoningContentBlockDeltaMemberRedactedContent:
		if len(v.Value) > 0 {
			rb.redacted = append(rb.redacted, v.Value...)
		}
		return nil
	case *brtypes.ReasoningContentBlockDeltaMemberSignature:
		if v.Value != "" {
			rb.signature = v.Value
		}
		return nil
	default:
		return nil
	}
}

func (p *chunkProcessor) handleToolUseDelta(idx int, delta *brtypes.ContentBlockDeltaMemberToolUse) error {
	tb := p.toolBlocks[idx]
	if tb == nil || delta.Value.Input == nil {
		return nil
	}
	fragment := *delta.Value.Input
	tb.fragments = append(tb.fragments, fragment)
	if tb.id == "" {
		return fmt.Errorf("bedrock stream: tool JSON delta missing tool call id")
	}
	if tb.name == "" {
		return fmt.Errorf("bedrock stream: tool JSON delta missing tool name for id %q", tb.id)
	}
	return p.emit(model.Chunk{
		Type: model.ChunkTypeToolCallDelta,
		ToolCallDelta: &model.ToolCallDelta{
			Name:  agent.Ident(tb.name),
			ID:    tb.id,
			Delta: fragment,
		},
	})
}

func (p *chunkProcessor) handleBlockStop(ev *brtypes.ConverseStreamOutputMemberContentBlockStop) error {
	idx, err := contentIndex(ev.Value.ContentBlockIndex)
	if err != nil {
		return err
	}
	if err := p.flushReasoningBlock(idx); err != nil {
		return err
	}
	return p.flushToolBlock(idx)
}

func (p *chunkProcessor) flushReasoningBlock(idx int) error {
	rb := p.reasoningBlocks[idx]
	if rb == nil {
		return nil
	}
	delete(p.reasoningBlocks, idx)
	part := rb.finalize()
	if part == nil {
		return nil
	}
	part.Index = idx
	part.Final = true
	if part.Text == "" && len(part.Redacted) == 0 {
		return nil
	}
	return p.emit(model.Chunk{
		Type:     model.ChunkTypeThinking,
		Thinking: part.Text,
		Message: &model.Message{
			Role:  "assistant",
			Parts: []model.Part{*part},
		},
	})
}

func (p *chunkProcessor) flushToolBlock(idx int) error {
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

func (p *chunkProcessor) handleMessageStop(ev *brtypes.ConverseStreamOutputMemberMessageStop) error {
	chunk := model.Chunk{Type: model.ChunkTypeStop}
	if ev.Value.StopReason != "" {
		chunk.StopReason = string(ev.Value.StopReason)
	}
	p.toolBlocks = make(map[int]*toolBuffer)
	p.reasoningBlocks = make(map[int]*reasoningBuffer)
	return p.emit(chunk)
}

func (p *chunkProcessor) handleMetadata(ev *brtypes.ConverseStreamOutputMemberMetadata) error {
	if ev.Value.Usage == nil {
		return nil
	}
	usage := model.TokenUsage{
		InputTokens:      int32Value(ev.Value.Usage.InputTokens),
		OutputTokens:     int32Value(ev.Value.Usage.OutputTokens),
		TotalTokens:      int32Value(ev.Value.Usage.TotalTokens),
		CacheReadTokens:  int32Value(ev.Value.Usage.CacheReadInputTokens),
		CacheWriteTokens: int32Value(ev.Value.Usage.CacheWriteInputTokens),
	}
	if p.recordUsage != nil {
		p.recordUsage(usage)
	}
	return p.emit(model.Chunk{Type: model.ChunkTypeUsage, UsageDelta: &usage})
}
