package hooks

import "github.com/agentcore/runtime/runtime/agent/toolerrors"

// This file defines the user-facing error messages rendered in ErrorEvent
// and RunCompleted{status: failed} payloads.
//
// Callers may override these variables at process startup (before any turn
// begins) to customize UX text.
//
// Contract:
// - These messages are intended to be rendered directly in UIs.
// - Do not mutate these values concurrently with active turns.
var (
	PublicErrorTimeout     = "The request timed out. Please retry."
	PublicErrorCancelled   = "The request was cancelled."
	PublicErrorPermission  = "The request was denied by a permission rule."
	PublicErrorInternal    = "The request failed. Please retry."
	PublicErrorRateLimited = "The model provider is rate-limiting requests. Please wait a moment and retry."
	PublicErrorUnavailable = "The model provider is temporarily unavailable. Please retry."
	PublicErrorInvalid     = "The model provider rejected the request."
	PublicErrorGuardrail   = "The request was blocked by a provider guardrail."
	PublicErrorDefault     = "The request failed with an unexpected error. Please retry."
)

// PublicMessageForModelError maps a ModelErrorKind to the user-facing
// message rendered in an ErrorEvent, without leaking provider internals.
func PublicMessageForModelError(kind toolerrors.ModelErrorKind) string {
	switch kind {
	case toolerrors.ModelRateLimited:
		return PublicErrorRateLimited
	case toolerrors.ModelUnavailable, toolerrors.ModelNetworkError:
		return PublicErrorUnavailable
	case toolerrors.ModelInvalidInput, toolerrors.ModelConfigurationError,
		toolerrors.ModelUnsupportedGuide, toolerrors.ModelUnsupportedLocale:
		return PublicErrorInvalid
	case toolerrors.ModelGuardrailViolation, toolerrors.ModelRefusal:
		return PublicErrorGuardrail
	default:
		return PublicErrorDefault
	}
}
