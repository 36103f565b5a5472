package model

import (
	"encoding/json"

	"github.com/agentcore/runtime/runtime/agent"
)

// ModelClass identifies the model family.
//
// Providers map these classes to concrete model identifiers.
type ModelClass string

const (
	ModelClassHighReasoning ModelClass = "high-reasoning"
	ModelClassDefault       ModelClass = "default"
	ModelClassSmall         ModelClass = "small"
)

// ToolDefinition describes a tool exposed to the model.
//
// Definitions are derived from Goa tool specifications and include the
// name, description, and JSON Schema input.
type ToolDefinition struct {
	// Name is the tool identifier as seen by the model.
	Name string

	// Description is a concise summary presented to the model to decide
	// when to call the tool.
	Description string

	// InputSchema is a JSON Schema describing the tool input payload.
	InputSchema any
}

// ToolCall is a requested tool invocation from the model.
//
// Tool calls capture the tool identity, raw arguments, and an optional
// provider-issued call identifier.
type ToolCall struct {
	// Name is the tool identifier requested by the model.
	Name agent.Ident

	// Payload is the canonical JSON arguments supplied by the model.
	//
	// Provider adapters MUST populate this as a canonical json.RawMessage;
	// planners and runtimes treat it as opaque JSON and rely on codecs for
	// any schema-aware decoding.
	Payload json.RawMessage

	// ID is an optional provider-issued identifier for the tool call.
	ID string
}

// ToolCallDelta is an incremental tool-call payload fragment streamed by
// providers while they are still constructing the full tool input JSON.
//
// Contract:
//   - This is a best-effort UX signal. Consumers may ignore it entirely.
//   - The canonical tool payload remains ToolCall.Payload in the final
//     ChunkTypeToolCall emitted once the provider closes the tool block.
//   - Delta is not guaranteed to be valid JSON on its own; callers must treat
//     it as an opaque fragment suitable only for progressive UI previews.
type ToolCallDelta struct {
	// Name is the canonical tool identifier for this delta stream.
	//
	// Provider adapters MUST populate Name for every emitted delta so
	// downstream consumers can render tool-specific previews deterministically.
	Name agent.Ident

	// ID is the provider-issued tool call identifier used to correlate all
	// deltas and the final ToolCall payload.
	ID string

	// Delta is a raw JSON fragment emitted by the provider.
	Delta string
}

// ToolChoiceMode controls how the model uses tools for a request.
//
// Not all providers support all modes. Provider adapters fail fast when a
// mode is not supported rather than silently degrading behavior.
type ToolChoiceMode string

const (
	// ToolChoiceModeAuto lets the provider decide whether to call tools or
	// respond with text. This is the default when ToolChoice is nil.
	ToolChoiceModeAuto ToolChoiceMode = "auto"

	// ToolChoiceModeNone disables tool use for the request when supported by
	// the provider.
	ToolChoiceModeNone ToolChoiceMode = "none"

	// ToolChoiceModeAny forces the model to request at least one tool when
	// supported by the provider.
	ToolChoiceModeAny ToolChoiceMode = "any"

	// ToolChoiceModeTool forces the model to request the specific tool
	// identified by ToolChoice.Name when supported by the provider.
	ToolChoiceModeTool ToolChoiceMode = "tool"
)

// ToolChoice configures optional tool-use behavior for a Request.
//
// When ToolChoice is nil, providers use their default tool behavior
// (typically auto-selection). When non-nil, providers apply the requested
// mode or fail fast if the mode is not supported.
type ToolChoice struct {
	// Mode selects the desired tool behavior for the request.
	Mode ToolChoiceMode

	// Name identifies the tool to request when Mode is ToolChoiceModeTool.
	// It must match the Name of one of the tool definitions in Request.Tools.
	Name string
}

// TokenUsage tracks token counts for a model call.
type TokenUsage struct {
	InputTokens      int
	OutputTokens     int
	TotalTokens      int
	CacheReadTokens  int
	CacheWriteTokens int
}

// ThinkingOptions configures provider thinking behavior.
type ThinkingOptions struct {
	// Enable turns provider thinking features on when supported.
	Enable bool

	// Interleaved requests interleaved thinking and assistant content when
	// supported.
	Interleaved bool

	// BudgetTokens caps the number of thinking tokens when supported.
	BudgetTokens int
}

// CacheOptions configures prompt caching behavior for a request. Provider
// adapters translate these flags to provider-specific caching directives.
// Providers that do not support caching ignore these options. When Cache is
// nil on a Request, the runtime may populate it from the agent RunPolicy
// (CachePolicy) so callers do not need to thread CacheOptions through every
// call site. Explicit Request.Cache values always take precedence.
type CacheOptions struct {
	// AfterSystem places a checkpoint after all system messages.
	AfterSystem bool

	// AfterTools places a checkpoint after tool definitions. Not all
	// providers support tool-level checkpoints (e.g., Nova does not).
	AfterTools bool
}

// Request captures inputs for a model invocation.
type Request struct {
	// RunID identifies the logical run for this request when available.
	RunID string

	// Model is the provider-specific model identifier when specified.
	Model string

	// ModelClass selects a model family when Model is not specified.
	ModelClass ModelClass

	// Messages is the ordered transcript provided to the model.
	Messages []*Message

	// Temperature controls sampling when supported by the provider.
	Temperature float32

	// Tools lists the tool definitions available to the model.
	Tools []*ToolDefinition

	// ToolChoice optionally constrains how the model uses tools.
	ToolChoice *ToolChoice

	// MaxTokens caps the number of output tokens when supported.
	MaxTokens int

	// Stream requests streaming responses when true and supported.
	Stream bool

	// Thinking configures provider-specific reasoning behavior.
	Thinking *ThinkingOptions

	// Cache configures prompt caching behavior. Nil means no caching.
	Cache *CacheOptions

	// Sampling carries the provider-agnostic sampling strategy requested by
	// a Generate stage's GenerationOptions, if any. Providers that do not
	// support explicit sampling control may ignore it.
	Sampling *Sampling
}

// Response is the result of a non-streaming invocation.
//
// Content carries assistant messages; ToolCalls holds any tool invocations
// requested by the model; Usage and StopReason mirror provider metadata.
type Response struct {
	// Content is the ordered list of assistant messages produced.
	Content []Message

	// ToolCalls lists tool invocations requested by the model.
	ToolCalls []ToolCall

	// Usage reports token consumption for the request.
	Usage TokenUsage

	// StopReason records why generation stopped (provider-specific).
	StopReason string
}

const (
	// ChunkTypeText identifies a chunk carrying assistant text.
	ChunkTypeText = "text"

	// ChunkTypeToolCall identifies a chunk carrying a tool invocation.
	ChunkTypeToolCall = "tool_call"

	// ChunkTypeToolCallDelta identifies a chunk carrying an incremental tool-call
	// input JSON fragment.
	//
	// Naming note: this is a *delta* because fragments are not guaranteed to be
	// valid JSON boundaries. It exists solely for progressive UI previews and is
	// safe to ignore; the canonical tool payload is still emitted as
	// ChunkTypeToolCall.
	ChunkTypeToolCallDelta = "tool_call_delta"

	// ChunkTypeThinking identifies a chunk carrying thinking content.
	ChunkTypeThinking = "thinking"

	// ChunkTypeUsage identifies a chunk carrying a usage delta.
	ChunkTypeUsage = "usage"

	// ChunkTypeStop identifies the terminal chunk carrying a stop reason.
	ChunkTypeStop = "stop"
)

// Chunk is a streaming event from the model.
//
// Chunks are classified by Type and may carry partial messages, tool calls,
// usage deltas, or a final stop reason.
type Chunk struct {
	// Type identifies the kind of streaming event.
	Type string

	// Message carries incremental assistant content for text or thinking
	// chunks when present.
	Message *Message

	// Thinking carries incremental reasoning text for providers that surface
	// it out-of-band from Message.
	Thinking string

	// ToolCall carries a single tool invocation when Type is ChunkTypeToolCall.
	ToolCall *ToolCall

	// ToolCallDelta carries an incremental tool-call payload fragment when Type
	// is ChunkTypeToolCallDelta. It is strictly optional and may be ignored.
	ToolCallDelta *ToolCallDelta

	// UsageDelta reports incremental token usage when available.
	UsageDelta *TokenUsage

	// StopReason records why streaming stopped when Type is ChunkTypeStop.
	StopReason string
}
