// Package agent provides the shared identifier and truncation-metadata types
// used across the session orchestrator, step pipeline, and tool middleware.
package agent

// Ident is the strong type for opaque identifiers (session, turn, tool-use,
// approval). Use this type instead of bare strings to avoid accidental mixing
// across identifier spaces in maps or APIs.
type Ident string

// String satisfies fmt.Stringer so Ident values print without a conversion.
func (i Ident) String() string { return string(i) }

// ToolUnavailable is a sentinel tool name substituted into a model adapter's
// tool configuration when the conversation replays a ToolUsePart whose real
// tool is no longer registered (for example, after a host removes a tool
// between turns). Adapters that support it map any unknown tool_use name to
// this placeholder so the provider's message validation still accepts the
// transcript.
const ToolUnavailable Ident = "tool_unavailable"
