// Package toolerrors provides structured error types for tool invocation failures.
// ToolError preserves error chains and supports errors.Is/As while maintaining
// serialization compatibility for agent-as-tool scenarios.
package toolerrors

import (
	"errors"
	"fmt"
	"time"
)

// ToolError represents a structured tool failure that preserves message and causal
// context while still implementing the standard error interface. Tool errors may be
// nested via Cause to retain rich diagnostics across retries and agent-as-tool hops.
type ToolError struct {
	// Message is the human-readable summary of the failure.
	Message string
	// Cause links to the underlying tool error, enabling error chains with errors.Is/As.
	Cause *ToolError
}

// New constructs a ToolError with the provided message. Use when the failure does not
// wrap an underlying error but still requires structured reporting.
func New(message string) *ToolError {
	if message == "" {
		message = "tool error"
	}
	return &ToolError{Message: message}
}

// NewWithCause constructs a ToolError that wraps an underlying error. The cause is
// converted into a ToolError chain so error metadata survives serialization while still
// supporting errors.Is/As through Unwrap.
func NewWithCause(message string, cause error) *ToolError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &ToolError{
		Message: message,
		Cause:   FromError(cause),
	}
}

// FromError converts an arbitrary error into a ToolError chain.
func FromError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{
		Message: err.Error(),
		Cause:   FromError(errors.Unwrap(err)),
	}
}

// Errorf formats according to a format specifier and returns the string as a ToolError.
func Errorf(format string, args ...any) *ToolError {
	return New(fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying tool error to support errors.Is/As.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// PermissionDeniedError is raised by the permission middleware (tool/permission.go)
// when a tool context is denied. MatchedRule is empty when the denial came from
// default_action=Deny rather than an explicit rule.
type PermissionDeniedError struct {
	Tool        string
	Reason      string
	MatchedRule string
}

func (e *PermissionDeniedError) Error() string {
	if e.MatchedRule != "" {
		return fmt.Sprintf("permission denied for tool %q: %s (matched %q)", e.Tool, e.Reason, e.MatchedRule)
	}
	return fmt.Sprintf("permission denied for tool %q: %s", e.Tool, e.Reason)
}

// CancellationError signals that a turn was cancelled via its CancellationToken.
// It propagates past every pipeline combinator, including Retry and Try.
type CancellationError struct {
	TurnID string
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("turn %q cancelled", e.TurnID)
}

// TimeoutError is raised by the Timeout combinator when the body loses the race
// against the timer.
type TimeoutError struct {
	Duration time.Duration
	StepName string
}

func (e *TimeoutError) Error() string {
	if e.StepName != "" {
		return fmt.Sprintf("step %q timed out after %v", e.StepName, e.Duration)
	}
	return fmt.Sprintf("timed out after %v", e.Duration)
}

// TransportKind distinguishes the two terminal transport failures of §6/§7.
type TransportKind int

const (
	// TransportInputClosed means the orchestrator's receive loop should shut
	// down cleanly; no more RunRequests will arrive.
	TransportInputClosed TransportKind = iota
	// TransportOutputClosed means event forwarding for the current turn has
	// terminated; the turn itself continues, but its result may go unobserved.
	TransportOutputClosed
)

func (k TransportKind) String() string {
	switch k {
	case TransportInputClosed:
		return "input_closed"
	case TransportOutputClosed:
		return "output_closed"
	default:
		return "unknown"
	}
}

// TransportError reports a terminal condition on the transport boundary.
type TransportError struct {
	Kind  TransportKind
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("transport: %s", e.Kind)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// SandboxError is surfaced to the tool caller when the OS sandbox profile cannot
// be constructed or the sandboxed subprocess fails for sandbox-specific reasons.
type SandboxError struct {
	Reason string
	Cause  error
}

func (e *SandboxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sandbox error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("sandbox error: %s", e.Reason)
}

func (e *SandboxError) Unwrap() error { return e.Cause }

// CompactionKind enumerates the context-manager failure modes of §7.
type CompactionKind int

const (
	CompactionAlreadyBelowTarget CompactionKind = iota
	CompactionCannotCompactFurther
	CompactionSummarizationFailed
	CompactionStrategyNotApplicable
)

func (k CompactionKind) String() string {
	switch k {
	case CompactionAlreadyBelowTarget:
		return "already_below_target"
	case CompactionCannotCompactFurther:
		return "cannot_compact_further"
	case CompactionSummarizationFailed:
		return "summarization_failed"
	case CompactionStrategyNotApplicable:
		return "strategy_not_applicable"
	default:
		return "unknown"
	}
}

// CompactionError is returned by the context manager; the orchestrator may
// downgrade it to a Warning event rather than failing the turn.
type CompactionError struct {
	Kind   CompactionKind
	Detail string
}

func (e *CompactionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("compaction error: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("compaction error: %s", e.Kind)
}

// ModelErrorKind enumerates the provider-error taxonomy of §6/§7.
type ModelErrorKind int

const (
	ModelGenerationFailed ModelErrorKind = iota
	ModelInvalidInput
	ModelToolExecutionFailed
	ModelUnavailable
	ModelConfigurationError
	ModelNetworkError
	ModelDecodingFailure
	ModelRateLimited
	ModelConcurrentRequests
	ModelExceededContextWindow
	ModelGuardrailViolation
	ModelRefusal
	ModelAssetsUnavailable
	ModelUnsupportedGuide
	ModelUnsupportedLocale
)

func (k ModelErrorKind) String() string {
	switch k {
	case ModelGenerationFailed:
		return "generation_failed"
	case ModelInvalidInput:
		return "invalid_input"
	case ModelToolExecutionFailed:
		return "tool_execution_failed"
	case ModelUnavailable:
		return "model_unavailable"
	case ModelConfigurationError:
		return "configuration_error"
	case ModelNetworkError:
		return "network_error"
	case ModelDecodingFailure:
		return "decoding_failure"
	case ModelRateLimited:
		return "rate_limited"
	case ModelConcurrentRequests:
		return "concurrent_requests"
	case ModelExceededContextWindow:
		return "exceeded_context_window"
	case ModelGuardrailViolation:
		return "guardrail_violation"
	case ModelRefusal:
		return "refusal"
	case ModelAssetsUnavailable:
		return "assets_unavailable"
	case ModelUnsupportedGuide:
		return "unsupported_guide"
	case ModelUnsupportedLocale:
		return "unsupported_language_or_locale"
	default:
		return "unknown"
	}
}

// Retryable reports whether Generate should retry on this error kind. Only
// decoding failures are retried by the Generate stage itself (§4.2); network
// and model-unavailable errors are marked recoverable but are retried, if at
// all, by an outer Retry combinator supplied by the pipeline author.
func (k ModelErrorKind) Retryable() bool {
	return k == ModelDecodingFailure
}

// Recoverable reports whether the error kind is, in principle, transient.
func (k ModelErrorKind) Recoverable() bool {
	switch k {
	case ModelNetworkError, ModelUnavailable, ModelDecodingFailure:
		return true
	default:
		return false
	}
}

// ModelError wraps a provider-specific failure with its classified kind.
type ModelError struct {
	Kind   ModelErrorKind
	Detail string
	Cause  error
}

func (e *ModelError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("model error (%s): %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("model error (%s)", e.Kind)
}

func (e *ModelError) Unwrap() error { return e.Cause }
