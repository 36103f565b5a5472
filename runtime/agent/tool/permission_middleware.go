package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

type (
	// PermissionConfiguration is the full permission surface for a session
	// (§3). Handler and EnableSessionMemory may be overridden per request by
	// a DynamicRulesProvider.
	PermissionConfiguration struct {
		Rules               RuleSet
		DefaultAction       Action
		Handler             turnctx.ApprovalHandler
		EnableSessionMemory bool
		AllowInteractive    bool
	}

	// DynamicRulesProvider supplies rules computed at call time (e.g. from a
	// guardrail context) that are prepended to allow; they can only widen
	// permissions, never bypass deny/finalDeny (§4.3).
	DynamicRulesProvider func(ctx context.Context, tc Context) []string

	// Memory is the pair of string sets described by §3: always_allowed and
	// blocked, keyed by (tool_name, first_word_of_command | directory_of_path).
	// It is shared across a session's turns and guarded by a mutex, per the
	// shared-state policy of §5.
	Memory struct {
		mu            sync.Mutex
		alwaysAllowed map[string]struct{}
		blocked       map[string]struct{}
	}

	// Permission evaluates PermissionConfiguration against a Context,
	// implementing the fixed six-step order of §4.3.
	Permission struct {
		Config       PermissionConfiguration
		Memory       *Memory
		DynamicRules DynamicRulesProvider
		// Trace, when set, receives one Trace per evaluated call (§4.3 audit
		// trace). Duration/ExitCode are left nil; EventEmitting's wrapping
		// middleware fills in the terminal duration separately via its own
		// ToolResult event.
		Trace TraceSink
	}
)

// NewMemory returns an empty session-memory pair.
func NewMemory() *Memory {
	return &Memory{alwaysAllowed: make(map[string]struct{}), blocked: make(map[string]struct{})}
}

func (m *Memory) allow(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alwaysAllowed[key] = struct{}{}
	delete(m.blocked, key)
}

func (m *Memory) block(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked[key] = struct{}{}
	delete(m.alwaysAllowed, key)
}

func (m *Memory) isAlwaysAllowed(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.alwaysAllowed[key]
	return ok
}

func (m *Memory) isBlocked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blocked[key]
	return ok
}

// Export returns the current allow/block sets for persistence by a host that
// opts into a durable session.MemoryStore. The returned slices are copies.
func (m *Memory) Export() (alwaysAllowed, blocked []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alwaysAllowed = make([]string, 0, len(m.alwaysAllowed))
	for k := range m.alwaysAllowed {
		alwaysAllowed = append(alwaysAllowed, k)
	}
	blocked = make([]string, 0, len(m.blocked))
	for k := range m.blocked {
		blocked = append(blocked, k)
	}
	return alwaysAllowed, blocked
}

// RestoreMemory builds a Memory pre-populated from a previously persisted
// snapshot, for hosts that rehydrate session memory at session start.
func RestoreMemory(alwaysAllowed, blocked []string) *Memory {
	m := NewMemory()
	for _, k := range alwaysAllowed {
		m.alwaysAllowed[k] = struct{}{}
	}
	for _, k := range blocked {
		m.blocked[k] = struct{}{}
	}
	return m
}

// memoryKey derives the session-memory key for tc: tool_name + ":" +
// (first word of arguments.command for shell tools, directory of
// arguments.file_path|arguments.path for file tools, or empty). When
// neither field is present, it falls back to tool_name alone (§9 Open
// Question 2): a documented coarseness that can over-match across calls
// with different arguments.
func memoryKey(tc Context) string {
	firstArg, _ := extractFirstArg(tc.Arguments)
	if firstArg == "" {
		return tc.ToolName
	}
	return tc.ToolName + ":" + firstArg
}

// extractFirstArg returns the string memoryKey appends to the tool name: the
// first word of the shell command, or the normalised directory of a file
// path. Rule matching uses matchValue instead.
func extractFirstArg(arguments string) (value string, isPath bool) {
	if arguments == "" {
		return "", false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(arguments), &fields); err != nil {
		return "", false
	}
	if cmd, ok := fields["command"].(string); ok && cmd != "" {
		first, _, _ := strings.Cut(strings.TrimSpace(cmd), " ")
		return first, false
	}
	for _, key := range []string{"file_path", "path"} {
		if p, ok := fields[key].(string); ok && p != "" {
			return path.Dir(normalizePath(p)), true
		}
	}
	return "", false
}

// matchValue returns the value permission rules are matched against: the
// whole shell command for shell tools, or the normalised path for file
// tools.
func matchValue(arguments string) string {
	if arguments == "" {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(arguments), &fields); err != nil {
		return ""
	}
	if cmd, ok := fields["command"].(string); ok {
		return cmd
	}
	for _, key := range []string{"file_path", "path"} {
		if p, ok := fields[key].(string); ok {
			return normalizePath(p)
		}
	}
	return ""
}

// Evaluate runs the six-step permission evaluation order of §4.3 and returns
// the decision recorded in the resulting ToolTrace. A nil error with
// DecisionAllowed/DecisionApprovedByUser means the caller may proceed; any
// other outcome returns a non-nil error (typically
// *toolerrors.PermissionDeniedError).
func (p *Permission) Evaluate(ctx context.Context, tc Context) (Decision, error) {
	value := matchValue(tc.Arguments)
	key := memoryKey(tc)

	// Step 0: the per-turn tool-call budget (transport.RunRequest.Policy),
	// when set, is absolute and checked before any rule.
	if policy, ok := turnctx.PolicyFrom(ctx); ok {
		if count, exceeded := policy.ConsumeToolCall(); exceeded {
			return DecisionDenied, &toolerrors.PermissionDeniedError{
				Tool:   tc.ToolName,
				Reason: fmt.Sprintf("tool call %d exceeds the turn's budget of %d", count, policy.MaxToolCalls),
			}
		}
	}

	// Step 1: finalDeny is absolute.
	if rule, ok := matchAny(p.Config.Rules.FinalDeny, tc.ToolName, value); ok {
		return DecisionFinalDenied, &toolerrors.PermissionDeniedError{Tool: tc.ToolName, Reason: "matched final deny", MatchedRule: rule}
	}

	// Step 2: session memory.
	if p.Config.EnableSessionMemory && p.Memory != nil {
		if p.Memory.isAlwaysAllowed(key) {
			return DecisionAllowed, nil
		}
		if p.Memory.isBlocked(key) {
			return DecisionDenied, &toolerrors.PermissionDeniedError{Tool: tc.ToolName, Reason: "blocked by session memory"}
		}
	}

	// Step 3: overrides widen scope past deny, but never past finalDeny.
	_, overridden := matchAny(p.Config.Rules.Overrides, tc.ToolName, value)

	// Step 4: deny (unless overridden).
	if !overridden {
		if rule, ok := matchAny(p.Config.Rules.Deny, tc.ToolName, value); ok {
			return DecisionDenied, &toolerrors.PermissionDeniedError{Tool: tc.ToolName, Reason: "matched deny", MatchedRule: rule}
		}
	}

	// Step 5: allow, with dynamic rules prepended (widen only).
	allow := p.Config.Rules.Allow
	if p.DynamicRules != nil {
		allow = append(append([]string(nil), p.DynamicRules(ctx, tc)...), allow...)
	}
	if _, ok := matchAny(allow, tc.ToolName, value); ok {
		return DecisionAllowed, nil
	}

	// Step 6: default_action. Being overridden only exempted this call from
	// the step-4 deny check; it does not imply an allow decision on its own.
	switch p.Config.DefaultAction {
	case ActionAllow:
		return DecisionAllowed, nil
	case ActionDeny:
		return DecisionDenied, &toolerrors.PermissionDeniedError{Tool: tc.ToolName, Reason: "default action is deny"}
	case ActionAsk:
		return p.ask(ctx, tc, key)
	default:
		return DecisionDenied, &toolerrors.PermissionDeniedError{Tool: tc.ToolName, Reason: "no default action configured"}
	}
}

func (p *Permission) ask(ctx context.Context, tc Context, key string) (Decision, error) {
	handler, ok := turnctx.ApprovalHandlerFrom(ctx)
	if !ok || handler == nil || !p.Config.AllowInteractive || !p.turnAllowsInteractive(ctx) {
		return DecisionDenied, &toolerrors.PermissionDeniedError{Tool: tc.ToolName, Reason: "interactive approval unavailable"}
	}

	req := turnctx.ApprovalRequest{
		ToolName:             tc.ToolName,
		Arguments:            tc.Arguments,
		OperationDescription: tc.ToolName,
		RiskLevel:            "",
	}
	decision, err := handler.RequestApproval(ctx, req, tc.ToolUseID)
	if err != nil {
		return DecisionDenied, err
	}

	switch decision {
	case turnctx.DecisionAllowOnce:
		return DecisionApprovedByUser, nil
	case turnctx.DecisionAlwaysAllow:
		if p.Config.EnableSessionMemory && p.Memory != nil {
			p.Memory.allow(key)
		}
		return DecisionApprovedByUser, nil
	case turnctx.DecisionDenyAndBlock:
		if p.Config.EnableSessionMemory && p.Memory != nil {
			p.Memory.block(key)
		}
		return DecisionDeniedByUser, &toolerrors.PermissionDeniedError{Tool: tc.ToolName, Reason: "denied by user"}
	default:
		return DecisionDeniedByUser, &toolerrors.PermissionDeniedError{Tool: tc.ToolName, Reason: "denied by user"}
	}
}

// turnAllowsInteractive reports whether the active turn's policy permits
// AutoAsk to prompt interactively (§4.3's AutoDeny triggers when
// allow_interactive_approval is false). A turn with no policy installed
// (e.g. a direct unit test, or a host that never threads transport.Policy)
// defers entirely to p.Config.AllowInteractive.
func (p *Permission) turnAllowsInteractive(ctx context.Context) bool {
	policy, ok := turnctx.PolicyFrom(ctx)
	if !ok {
		return true
	}
	return policy.AllowInteractiveApproval
}

// Middleware adapts Permission to the tool.Middleware signature, recording a
// Trace for every terminal decision when p.Trace is set.
func (p *Permission) Middleware() Middleware {
	return func(ctx context.Context, tc Context, next Next) (Result, error) {
		decision, err := p.Evaluate(ctx, tc)
		if p.Trace != nil {
			p.Trace.Append(Trace{
				ToolUseID:       tc.ToolUseID,
				ToolName:        tc.ToolName,
				ArgumentsDigest: ArgumentsDigest(tc.Arguments),
				Decision:        decision,
				Timestamp:       time.Now(),
			})
		}
		if err != nil {
			return Result{}, err
		}
		return next(ctx, tc)
	}
}
