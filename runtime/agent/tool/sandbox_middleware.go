package tool

import (
	"context"

	"github.com/agentcore/runtime/runtime/agent/sandbox"
	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

// Sandbox injects sandbox configuration via a task-local binding for
// shell-class tools only, identified by ShellTools. The effective config
// comes from GuardrailConfig when set, falling back to Default; when the
// effective config is disabled, Sandbox passes through unchanged (§4.3).
type Sandbox struct {
	ShellTools      map[string]struct{}
	Default         sandbox.Config
	GuardrailConfig func(ctx context.Context, tc Context) (sandbox.Config, bool)
}

// Middleware adapts Sandbox to the tool.Middleware signature.
func (s *Sandbox) Middleware() Middleware {
	return func(ctx context.Context, tc Context, next Next) (Result, error) {
		if _, ok := s.ShellTools[tc.ToolName]; !ok {
			return next(ctx, tc)
		}

		effective := s.Default
		if s.GuardrailConfig != nil {
			if cfg, ok := s.GuardrailConfig(ctx, tc); ok {
				effective = cfg
			}
		}
		if effective.Disabled() {
			return next(ctx, tc)
		}

		ctx = turnctx.WithSandboxConfig(ctx, effective)
		return next(ctx, tc)
	}
}

// ConfigFrom retrieves the sandbox.Config installed by Sandbox.Middleware,
// for the concrete tool implementation to honour when it executes a
// subprocess.
func ConfigFrom(ctx context.Context) (sandbox.Config, bool) {
	v, ok := turnctx.SandboxConfigFrom(ctx)
	if !ok {
		return sandbox.Config{}, false
	}
	cfg, ok := v.(sandbox.Config)
	return cfg, ok
}
