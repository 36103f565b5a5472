// Package transcript provides a minimal, provider-precise ledger that records
// the canonical conversation needed to rebuild provider payloads (e.g.,
// Bedrock, Anthropic) without leaking provider SDK types into orchestrator
// state. The ledger stores only the essential, JSON-friendly parts in the
// exact order in which they must be presented to the provider (thinking ->
// tool_use -> tool_result).
//
// Design goals:
//   - Provider fidelity: preserve ordering/shape required by providers.
//   - Minimalism: store only what is needed to rebuild payloads exactly.
//   - Stateless API: pure methods safe to call during turn replay.
//   - Provider-agnostic at rest: convert to/from provider formats at edges.
package transcript

// Part is the canonical provider-precise content fragment stored by the
// ledger. Implementations must be one of ThinkingPart, TextPart, ToolUsePart,
// or ToolResultPart.
type Part interface {
	isPart()
}

// ThinkingPart carries provider reasoning. Exactly one variant must be set:
// either signed plaintext (Text+Signature) or Redacted bytes. Index tracks
// the provider content block index when available; Final indicates
// finalization.
type ThinkingPart struct {
	// Text is provider-issued plaintext reasoning when available.
	Text string
	// Signature is the provider signature that authenticates Text.
	Signature string
	// Redacted holds provider opaque redacted reasoning bytes.
	Redacted []byte
	// Index is the provider content block index (negative if unknown).
	Index int
	// Final marks the finalization of this reasoning block.
	Final bool
}

// TextPart carries assistant or user visible text.
type TextPart struct {
	Text string
}

// ToolUsePart declares a tool invocation by the assistant.
type ToolUsePart struct {
	// ID is the provider tool_use identifier (for correlating tool_result).
	ID string
	// Name is the provider-visible tool name (sanitized as required).
	Name string
	// Args are the JSON-encodable tool arguments.
	Args any
}

// ToolResultPart communicates a tool result by the user back to the model,
// correlated via ToolUseID.
type ToolResultPart struct {
	ToolUseID string
	Content   any
	IsError   bool
}

// ToolResultSpec describes a single tool_result block for appending user
// messages in a turn. It is used by AppendUserToolResults to build a single
// user message containing multiple tool_result parts.
type ToolResultSpec struct {
	ToolUseID string
	Content   any
	IsError   bool
}

// Message groups ordered parts under a role for the provider conversation.
type Message struct {
	// Role is one of "assistant", "user", or "system".
	Role string
	// Parts must be in final provider order for this message.
	Parts []Part
	// Meta carries optional provider-agnostic metadata for diagnostics.
	Meta map[string]any
}

// Ledger holds the ordered transcript for the current turn. It records only
// the minimal set of parts required to rebuild provider payloads with exact
// ordering (thinking -> tool_use -> tool_result).
type Ledger struct {
	messages []Message
	// current accumulates the pending assistant message so thinking/text/
	// tool_use can be coalesced before flushing to messages.
	current *Message
}

func (ThinkingPart) isPart()   {}
func (TextPart) isPart()       {}
func (ToolUsePart) isPart()    {}
func (ToolResultPart) isPart() {}
