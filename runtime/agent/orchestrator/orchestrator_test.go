package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/pipeline"
	"github.com/agentcore/runtime/runtime/agent/tool"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transport"
	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

func echoPipeline() pipeline.Step[string, string] {
	return pipeline.Func[string, string](func(_ context.Context, in string) (string, error) {
		return "done:" + in, nil
	})
}

func runOrchestrator(t *testing.T, ft *fakeTransport, cfg Config) chan error {
	t.Helper()
	cfg.Transport = ft
	o, err := New(cfg)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- o.Run(context.Background()) }()
	return errCh
}

func TestOrchestratorCompletedTurn(t *testing.T) {
	ft := newFakeTransport(true)
	errCh := runOrchestrator(t, ft, Config{Pipeline: echoPipeline()})

	ft.submit(transport.RunRequest{SessionID: "s1", TurnID: "t1", Input: transport.Input{Kind: transport.InputText, Text: "hi"}})

	require.Eventually(t, func() bool {
		return len(ft.eventTypes()) >= 3
	}, time.Second, time.Millisecond)

	_ = ft.CloseInput(context.Background())
	require.NoError(t, <-errCh)

	types := ft.eventTypes()
	require.Equal(t, hooks.RunStarted, types[0])
	require.Contains(t, types, hooks.TokenDelta)
	require.Equal(t, hooks.RunCompleted, types[len(types)-1])
}

func TestTurnPipelineWrapsWithTimeoutWhenPolicySet(t *testing.T) {
	o := &Orchestrator{cfg: Config{Pipeline: echoPipeline()}}
	step := o.turnPipeline(transport.Policy{Timeout: 5 * time.Millisecond}, "t1")
	_, ok := step.(pipeline.Timeout[string, string])
	require.True(t, ok)
}

func TestTurnPipelineReturnsConfiguredPipelineWithoutTimeoutPolicy(t *testing.T) {
	base := echoPipeline()
	o := &Orchestrator{cfg: Config{Pipeline: base}}
	step := o.turnPipeline(transport.Policy{}, "t1")
	require.Equal(t, base, step)
}

func TestOrchestratorPolicyTimeoutFailsSlowTurn(t *testing.T) {
	slow := pipeline.Func[string, string](func(ctx context.Context, in string) (string, error) {
		select {
		case <-time.After(time.Second):
			return "done:" + in, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	ft := newFakeTransport(true)
	errCh := runOrchestrator(t, ft, Config{Pipeline: slow})

	ft.submit(transport.RunRequest{
		SessionID: "s1",
		TurnID:    "t1",
		Input:     transport.Input{Kind: transport.InputText, Text: "hi"},
		Policy:    transport.Policy{Timeout: 5 * time.Millisecond},
	})

	require.Eventually(t, func() bool {
		types := ft.eventTypes()
		return len(types) > 0 && types[len(types)-1] == hooks.RunCompleted
	}, time.Second, time.Millisecond)

	_ = ft.CloseInput(context.Background())
	require.NoError(t, <-errCh)

	wire := ft.lastSent()
	evt, err := hooks.Decode(wire)
	require.NoError(t, err)
	completed, ok := evt.(*hooks.RunCompletedEvent)
	require.True(t, ok)
	require.Equal(t, hooks.StatusTimedOut, completed.Status)
}

func TestOrchestratorCancellationDuringTurn(t *testing.T) {
	ft := newFakeTransport(true)
	started := make(chan struct{})
	blocking := pipeline.Func[string, string](func(ctx context.Context, in string) (string, error) {
		close(started)
		tok, _ := turnctx.CancellationTokenFrom(ctx)
		<-tok.Done()
		return "", tok.Check()
	})
	errCh := runOrchestrator(t, ft, Config{Pipeline: blocking})

	ft.submit(transport.RunRequest{SessionID: "s1", TurnID: "t1", Input: transport.Input{Kind: transport.InputText, Text: "hi"}})
	<-started
	ft.submit(transport.RunRequest{SessionID: "s1", TurnID: "t1", Input: transport.Input{Kind: transport.InputCancel}})

	require.Eventually(t, func() bool {
		types := ft.eventTypes()
		return len(types) > 0 && types[len(types)-1] == hooks.RunCompleted
	}, time.Second, time.Millisecond)

	_ = ft.CloseInput(context.Background())
	require.NoError(t, <-errCh)
}

func TestOrchestratorApprovalResponseWarningWithoutHandler(t *testing.T) {
	ft := newFakeTransport(true)
	errCh := runOrchestrator(t, ft, Config{Pipeline: echoPipeline()})

	ft.submit(transport.RunRequest{
		SessionID: "s1", TurnID: "t1",
		Input: transport.Input{Kind: transport.InputApprovalResponse, Approval: transport.ApprovalResponse{ApprovalID: "a1", Decision: turnctx.DecisionAllowOnce}},
	})

	require.Eventually(t, func() bool {
		types := ft.eventTypes()
		return len(types) == 1 && types[0] == hooks.Warning
	}, time.Second, time.Millisecond)

	_ = ft.CloseInput(context.Background())
	require.NoError(t, <-errCh)
}

func TestOrchestratorApprovalResponseResolvesTransportApproval(t *testing.T) {
	ft := newFakeTransport(true)
	ta := tool.NewTransportApproval()

	resolved := make(chan turnctx.ApprovalDecision, 1)
	approvalStep := pipeline.Func[string, string](func(ctx context.Context, in string) (string, error) {
		decision, err := ta.RequestApproval(ctx, turnctx.ApprovalRequest{ToolName: "ExecuteCommand"}, "a1")
		if err != nil {
			return "", err
		}
		resolved <- decision
		return "ok", nil
	})

	errCh := runOrchestrator(t, ft, Config{Pipeline: approvalStep, TransportApproval: ta})
	ft.submit(transport.RunRequest{SessionID: "s1", TurnID: "t1", Input: transport.Input{Kind: transport.InputText, Text: "hi"}})

	// Give the pipeline a moment to register its waiter before resolving.
	time.Sleep(20 * time.Millisecond)
	ft.submit(transport.RunRequest{
		SessionID: "s1", TurnID: "t2",
		Input: transport.Input{Kind: transport.InputApprovalResponse, Approval: transport.ApprovalResponse{ApprovalID: "a1", Decision: turnctx.DecisionAlwaysAllow}},
	})

	select {
	case d := <-resolved:
		require.Equal(t, turnctx.DecisionAlwaysAllow, d)
	case <-time.After(time.Second):
		t.Fatal("approval was never resolved")
	}

	_ = ft.CloseInput(context.Background())
	require.NoError(t, <-errCh)
}

func TestOrchestratorIdempotencyDropsDuplicateTurn(t *testing.T) {
	ft := newFakeTransport(true)
	errCh := runOrchestrator(t, ft, Config{Pipeline: echoPipeline()})

	req := transport.RunRequest{SessionID: "s1", TurnID: "t1", Input: transport.Input{Kind: transport.InputText, Text: "hi"}}
	ft.submit(req)
	require.Eventually(t, func() bool {
		types := ft.eventTypes()
		return len(types) > 0 && types[len(types)-1] == hooks.RunCompleted
	}, time.Second, time.Millisecond)

	before := len(ft.eventTypes())
	ft.submit(req) // duplicate turn_id, already terminal-recorded

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, before, len(ft.eventTypes()))

	_ = ft.CloseInput(context.Background())
	require.NoError(t, <-errCh)
}

func TestTwoGenCompletedTrackerBoundsMemory(t *testing.T) {
	tracker := NewCompletedTracker(2)
	tracker.Mark("a")
	tracker.Mark("b")
	tracker.Mark("c") // promotes current->previous, fresh current holding only "c"

	require.True(t, tracker.Contains("a")) // still visible via previous generation
	require.True(t, tracker.Contains("c"))
}

func TestCancellationRegistryPreemptiveCancel(t *testing.T) {
	reg := NewCancellationRegistry(10)
	reg.Cancel("t1") // arrives before any token exists

	tok := reg.StartTurn("t1")
	require.True(t, tok.Cancelled())
}

func TestCancellationRegistrySentinelAbsorbsLateCancel(t *testing.T) {
	reg := NewCancellationRegistry(10)
	tok := reg.StartTurn("t1")
	reg.FinishTurn("t1", true) // cancelled: retain as sentinel

	reg.Cancel("t1") // late cancel hits the sentinel, not pre-emptive set
	require.True(t, tok.Cancelled())

	retry := reg.StartTurn("t1") // retry overwrites the sentinel
	require.False(t, retry.Cancelled())
}

func TestTurnGateSerialisesReceiveAndTurn(t *testing.T) {
	gate := NewTurnGate()
	gate.EnterTurn()

	waited := make(chan struct{})
	go func() {
		gate.WaitIfNeeded()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("WaitIfNeeded returned while a turn was active")
	case <-time.After(30 * time.Millisecond):
	}

	gate.LeaveTurn()
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("WaitIfNeeded never returned after LeaveTurn")
	}
}

func TestTransportErrorKindsRoundTrip(t *testing.T) {
	err := &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed}
	require.Contains(t, err.Error(), "input_closed")
}
