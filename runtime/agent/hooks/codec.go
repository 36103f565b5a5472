package hooks

import (
	"encoding/json"
	"fmt"
	"time"
)

// WireEvent is the serialised form of an Event crossing a transport boundary:
// a tagged union `{ "type": <tag>, "payload": { ... } }` where every payload
// carries sessionID, turnID, and an ISO-8601 timestamp (§6).
type WireEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type envelope struct {
	SessionID string `json:"sessionID"`
	TurnID    string `json:"turnID"`
	Timestamp string `json:"timestamp"`
}

func stamp(e Event) envelope {
	return envelope{
		SessionID: e.SessionID(),
		TurnID:    e.TurnID(),
		Timestamp: time.UnixMilli(e.Timestamp()).UTC().Format(time.RFC3339Nano),
	}
}

// Encode marshals an Event to its wire representation.
func Encode(evt Event) (*WireEvent, error) {
	var payload any
	switch e := evt.(type) {
	case *RunStartedEvent:
		payload = struct {
			envelope
		}{stamp(e)}
	case *TokenDeltaEvent:
		payload = struct {
			envelope
			Delta       string `json:"delta"`
			Accumulated string `json:"accumulated"`
			IsComplete  bool   `json:"isComplete"`
		}{stamp(e), e.Delta, e.Accumulated, e.IsComplete}
	case *ToolCallEvent:
		payload = struct {
			envelope
			ToolUseID string `json:"toolUseID"`
			ToolName  string `json:"toolName"`
			Arguments string `json:"arguments"`
		}{stamp(e), e.ToolUseID, e.ToolName, e.Arguments}
	case *ToolResultEvent:
		payload = struct {
			envelope
			ToolUseID string        `json:"toolUseID"`
			Output    string        `json:"output"`
			Success   bool          `json:"success"`
			Duration  time.Duration `json:"duration"`
			ExitCode  *int          `json:"exitCode,omitempty"`
		}{stamp(e), e.ToolUseID, e.Output, e.Success, e.Duration, e.ExitCode}
	case *ApprovalRequiredEvent:
		payload = struct {
			envelope
			ApprovalID           string    `json:"approvalID"`
			ToolName             string    `json:"toolName"`
			Arguments            string    `json:"arguments"`
			OperationDescription string    `json:"operationDescription"`
			RiskLevel            RiskLevel `json:"riskLevel"`
		}{stamp(e), e.ApprovalID, e.ToolName, e.Arguments, e.OperationDescription, e.RiskLevel}
	case *ApprovalResolvedEvent:
		payload = struct {
			envelope
			ApprovalID string           `json:"approvalID"`
			Decision   ApprovalDecision `json:"decision"`
		}{stamp(e), e.ApprovalID, e.Decision}
	case *WarningEvent:
		payload = struct {
			envelope
			Message string `json:"message"`
		}{stamp(e), e.Message}
	case *ErrorEvent:
		payload = struct {
			envelope
			Message string `json:"message"`
			IsFatal bool   `json:"isFatal"`
		}{stamp(e), e.Message, e.IsFatal}
	case *RunCompletedEvent:
		payload = struct {
			envelope
			Status RunStatus `json:"status"`
		}{stamp(e), e.Status}
	default:
		return nil, fmt.Errorf("hooks: unsupported event type %T", evt)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("hooks: marshal %s payload: %w", evt.Type(), err)
	}
	return &WireEvent{Type: evt.Type(), Payload: b}, nil
}

// Decode reconstructs an Event from its wire representation.
func Decode(w *WireEvent) (Event, error) {
	switch w.Type {
	case RunStarted:
		var p envelope
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, fmt.Errorf("hooks: decode %s: %w", RunStarted, err)
		}
		return NewRunStartedEvent(p.SessionID, p.TurnID), nil

	case TokenDelta:
		var p struct {
			envelope
			Delta       string `json:"delta"`
			Accumulated string `json:"accumulated"`
			IsComplete  bool   `json:"isComplete"`
		}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, fmt.Errorf("hooks: decode %s: %w", TokenDelta, err)
		}
		return NewTokenDeltaEvent(p.SessionID, p.TurnID, p.Delta, p.Accumulated, p.IsComplete), nil

	case ToolCall:
		var p struct {
			envelope
			ToolUseID string `json:"toolUseID"`
			ToolName  string `json:"toolName"`
			Arguments string `json:"arguments"`
		}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, fmt.Errorf("hooks: decode %s: %w", ToolCall, err)
		}
		return NewToolCallEvent(p.SessionID, p.TurnID, p.ToolUseID, p.ToolName, p.Arguments), nil

	case ToolResult:
		var p struct {
			envelope
			ToolUseID string        `json:"toolUseID"`
			Output    string        `json:"output"`
			Success   bool          `json:"success"`
			Duration  time.Duration `json:"duration"`
			ExitCode  *int          `json:"exitCode,omitempty"`
		}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, fmt.Errorf("hooks: decode %s: %w", ToolResult, err)
		}
		return NewToolResultEvent(p.SessionID, p.TurnID, p.ToolUseID, p.Output, p.Success, p.Duration, p.ExitCode), nil

	case ApprovalRequired:
		var p struct {
			envelope
			ApprovalID           string    `json:"approvalID"`
			ToolName             string    `json:"toolName"`
			Arguments            string    `json:"arguments"`
			OperationDescription string    `json:"operationDescription"`
			RiskLevel            RiskLevel `json:"riskLevel"`
		}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, fmt.Errorf("hooks: decode %s: %w", ApprovalRequired, err)
		}
		return NewApprovalRequiredEvent(p.SessionID, p.TurnID, p.ApprovalID, p.ToolName, p.Arguments, p.OperationDescription, p.RiskLevel), nil

	case ApprovalResolved:
		var p struct {
			envelope
			ApprovalID string           `json:"approvalID"`
			Decision   ApprovalDecision `json:"decision"`
		}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, fmt.Errorf("hooks: decode %s: %w", ApprovalResolved, err)
		}
		return NewApprovalResolvedEvent(p.SessionID, p.TurnID, p.ApprovalID, p.Decision), nil

	case Warning:
		var p struct {
			envelope
			Message string `json:"message"`
		}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, fmt.Errorf("hooks: decode %s: %w", Warning, err)
		}
		return NewWarningEvent(p.SessionID, p.TurnID, p.Message), nil

	case Error:
		var p struct {
			envelope
			Message string `json:"message"`
			IsFatal bool   `json:"isFatal"`
		}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, fmt.Errorf("hooks: decode %s: %w", Error, err)
		}
		return NewErrorEvent(p.SessionID, p.TurnID, p.Message, p.IsFatal), nil

	case RunCompleted:
		var p struct {
			envelope
			Status RunStatus `json:"status"`
		}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, fmt.Errorf("hooks: decode %s: %w", RunCompleted, err)
		}
		return NewRunCompletedEvent(p.SessionID, p.TurnID, p.Status), nil

	default:
		return nil, fmt.Errorf("hooks: unsupported wire event type %q", w.Type)
	}
}
