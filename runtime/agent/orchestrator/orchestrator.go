// Package orchestrator implements the Session Orchestrator of §4.1: a
// two-task architecture (receive loop, turn processor) that converts a
// stream of transport.RunRequests into serially-executed turns, driving the
// user's pipeline.Step and emitting hooks.Events for every turn to
// completion.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/pipeline"
	"github.com/agentcore/runtime/runtime/agent/run"
	"github.com/agentcore/runtime/runtime/agent/tool"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transport"
	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

// Config wires an Orchestrator's collaborators. Transport and Pipeline are
// required; everything else has a usable zero value or default.
type Config struct {
	Transport transport.Transport
	// Pipeline is the user-defined step pipeline invoked with a turn's text
	// payload (§4.1 step 5); its output becomes the turn's final output.
	Pipeline pipeline.Step[string, string]

	// ApprovalHandler answers Ask-default-action permission prompts that
	// arrive during tool execution, wrapped in a tool.Bridge so
	// ApprovalRequired/ApprovalResolved are emitted exactly once regardless
	// of which concrete handler answers (§4.3). May be nil, in which case no
	// approval bridge is installed and Ask decisions are handled by the
	// permission middleware's own configuration.
	ApprovalHandler turnctx.ApprovalHandler
	// TransportApproval, if set, is resolved by inbound ApprovalResponse
	// requests (§4.1). Leave nil when the host has no transport-routed
	// approvals; inbound ApprovalResponse messages then produce a Warning
	// event and are dropped (§4.1, documented open question).
	TransportApproval *tool.TransportApproval

	// QueueCapacity bounds the turn processor's channel. Default 64.
	QueueCapacity int
	// TrackerCapacity bounds each generation of the completed-turn tracker
	// and cancellation-token registry. Default ~10,000 (§4.1 rule 4).
	TrackerCapacity int
	// SinkBufferSize bounds the per-turn event forwarding buffer. Default 64.
	SinkBufferSize int

	// RunStore optionally persists turn metadata (§10.3); the orchestrator
	// itself requires none.
	RunStore run.Store
}

// Orchestrator is the Session Orchestrator of §4.1.
type Orchestrator struct {
	cfg Config

	gate       *TurnGate
	completed  *CompletedTracker
	cancel     *CancellationRegistry
	queue      chan transport.RunRequest
	attemptsMu sync.Mutex
	attempts   map[string]int
}

// New constructs an Orchestrator. cfg.Transport and cfg.Pipeline must be set.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Transport == nil {
		return nil, errors.New("orchestrator: Transport is required")
	}
	if cfg.Pipeline == nil {
		return nil, errors.New("orchestrator: Pipeline is required")
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 64
	}

	o := &Orchestrator{
		cfg:       cfg,
		completed: NewCompletedTracker(cfg.TrackerCapacity),
		cancel:    NewCancellationRegistry(cfg.TrackerCapacity),
		queue:     make(chan transport.RunRequest, cfg.QueueCapacity),
		attempts:  make(map[string]int),
	}
	if !cfg.Transport.SupportsBackgroundReceive() {
		o.gate = NewTurnGate()
	}
	return o, nil
}

// Run drives the receive loop and turn processor until the transport's input
// side closes and the turn queue drains, or ctx is cancelled (§4.1 shutdown).
func (o *Orchestrator) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	var recvErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		recvErr = o.receiveLoop(ctx)
		close(o.queue)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		o.turnProcessor(ctx)
	}()

	wg.Wait()
	o.shutdown(ctx)
	return recvErr
}

func (o *Orchestrator) receiveLoop(ctx context.Context) error {
	for {
		if o.gate != nil {
			o.gate.WaitIfNeeded()
		}

		req, err := o.cfg.Transport.Receive(ctx)
		if err != nil {
			var te *toolerrors.TransportError
			if errors.As(err, &te) && te.Kind == toolerrors.TransportInputClosed {
				return nil
			}
			return err
		}

		if o.completed.Contains(req.TurnID) {
			continue
		}

		switch req.Input.Kind {
		case transport.InputText:
			select {
			case o.queue <- req:
			case <-ctx.Done():
				return ctx.Err()
			}
		case transport.InputApprovalResponse:
			o.handleApprovalResponse(ctx, req)
		case transport.InputCancel:
			o.cancel.Cancel(req.TurnID)
		}
	}
}

func (o *Orchestrator) handleApprovalResponse(ctx context.Context, req transport.RunRequest) {
	if o.cfg.TransportApproval == nil {
		warn := hooks.NewWarningEvent(req.SessionID, req.TurnID,
			"approval response received but no transport approval handler is configured")
		if wire, err := hooks.Encode(warn); err == nil {
			_ = o.cfg.Transport.Send(ctx, wire)
		}
		return
	}
	o.cfg.TransportApproval.Resolve(req.Input.Approval.ApprovalID, req.Input.Approval.Decision)
}

func (o *Orchestrator) turnProcessor(ctx context.Context) {
	for req := range o.queue {
		if o.gate != nil {
			o.gate.EnterTurn()
		}
		o.runTurn(ctx, req)
		if o.gate != nil {
			o.gate.LeaveTurn()
		}
	}
}

// runTurn implements the nine-step turn execution algorithm of §4.1.
func (o *Orchestrator) runTurn(ctx context.Context, req transport.RunRequest) {
	// Step 1: event sink forwarding to the transport on a background task.
	sink := newTurnSink(ctx, o.cfg.Transport, o.cfg.SinkBufferSize)

	turnCtx := turnctx.WithEventSink(ctx, sink)
	turnCtx = turnctx.WithIdentity(turnCtx, turnctx.Identity{SessionID: req.SessionID, TurnID: req.TurnID})

	// Step 3: install the cancellation token, approval bridge, event sink,
	// and identity (identity and sink are already installed above).
	token := o.cancel.StartTurn(req.TurnID)
	turnCtx = turnctx.WithCancellationToken(turnCtx, token)
	if o.cfg.ApprovalHandler != nil {
		turnCtx = turnctx.WithApprovalHandler(turnCtx, &tool.Bridge{Handler: o.cfg.ApprovalHandler})
	}
	turnCtx = turnctx.WithPolicy(turnCtx, turnctx.Policy{
		Timeout:                  req.Policy.Timeout,
		MaxToolCalls:             req.Policy.MaxToolCalls,
		AllowInteractiveApproval: req.Policy.AllowInteractiveApproval,
	})

	attempt := o.nextAttempt(req.TurnID)
	runRecord := run.Context{
		SessionID: req.SessionID,
		TurnID:    req.TurnID,
		Attempt:   attempt,
		Labels:    req.Metadata,
		StartedAt: time.Now(),
	}
	turnCtx = run.WithContext(turnCtx, runRecord)
	o.persistRun(turnCtx, runRecord.SessionID, runRecord.TurnID, run.StatusRunning, req.Metadata)

	// Step 2: emit RunStarted.
	_ = sink.Publish(turnCtx, hooks.NewRunStartedEvent(req.SessionID, req.TurnID))

	// Step 4: apply steering strings from the request context.
	text := req.Input.Text
	if len(req.Steering) > 0 {
		text = strings.Join(append(append([]string{}, req.Steering...), text), "\n")
	}

	// Step 5: invoke the user-defined step pipeline, honouring the per-turn
	// timeout override from req.Policy if the client requested one.
	output, err := o.turnPipeline(req.Policy, req.TurnID).Run(turnCtx, text)

	switch {
	case err == nil:
		// Step 6.
		if output != "" {
			_ = sink.Publish(turnCtx, hooks.NewTokenDeltaEvent(req.SessionID, req.TurnID, output, output, true))
		}
		_ = sink.Publish(turnCtx, hooks.NewRunCompletedEvent(req.SessionID, req.TurnID, hooks.StatusCompleted))
		o.completed.Mark(req.TurnID)
		o.cancel.FinishTurn(req.TurnID, false)
		o.persistRun(turnCtx, req.SessionID, req.TurnID, run.StatusCompleted, req.Metadata)

	case isCancellation(err):
		// Step 7: do not record the turn id; retry is permitted.
		_ = sink.Publish(turnCtx, hooks.NewRunCompletedEvent(req.SessionID, req.TurnID, hooks.StatusCancelled))
		o.cancel.FinishTurn(req.TurnID, true)
		o.persistRun(turnCtx, req.SessionID, req.TurnID, run.StatusCancelled, req.Metadata)

	default:
		// Step 8.
		_ = sink.Publish(turnCtx, hooks.NewErrorEvent(req.SessionID, req.TurnID, err.Error(), true))
		_ = sink.Publish(turnCtx, hooks.NewRunCompletedEvent(req.SessionID, req.TurnID, o.failureStatus(err)))
		o.completed.Mark(req.TurnID)
		o.cancel.FinishTurn(req.TurnID, false)
		o.persistRun(turnCtx, req.SessionID, req.TurnID, o.runStoreStatus(err), req.Metadata)
	}

	// Step 9: close the sink and await event-forwarding drain.
	sink.close()
}

func isCancellation(err error) bool {
	var cancelErr *toolerrors.CancellationError
	return errors.As(err, &cancelErr)
}

func (o *Orchestrator) failureStatus(err error) hooks.RunStatus {
	var denied *toolerrors.PermissionDeniedError
	if errors.As(err, &denied) {
		return hooks.StatusDenied
	}
	var timeout *toolerrors.TimeoutError
	if errors.As(err, &timeout) {
		return hooks.StatusTimedOut
	}
	return hooks.StatusFailed
}

func (o *Orchestrator) runStoreStatus(err error) run.Status {
	switch o.failureStatus(err) {
	case hooks.StatusDenied:
		return run.StatusDenied
	case hooks.StatusTimedOut:
		return run.StatusTimedOut
	default:
		return run.StatusFailed
	}
}

// turnPipeline returns the pipeline to run for this turn, wrapped in
// pipeline.Timeout when the request's policy requested an override. Without
// an override, the configured pipeline runs unmodified and is bounded only
// by ctx cancellation.
func (o *Orchestrator) turnPipeline(policy transport.Policy, turnID string) pipeline.Step[string, string] {
	if policy.Timeout <= 0 {
		return o.cfg.Pipeline
	}
	return pipeline.Timeout[string, string]{
		Body:     o.cfg.Pipeline,
		Duration: policy.Timeout,
		StepName: "turn:" + turnID,
	}
}

func (o *Orchestrator) nextAttempt(turnID string) int {
	o.attemptsMu.Lock()
	defer o.attemptsMu.Unlock()
	o.attempts[turnID]++
	return o.attempts[turnID]
}

func (o *Orchestrator) persistRun(ctx context.Context, sessionID, turnID string, status run.Status, labels map[string]string) {
	if o.cfg.RunStore == nil {
		return
	}
	_ = o.cfg.RunStore.Upsert(ctx, run.Record{
		SessionID: sessionID,
		TurnID:    turnID,
		Status:    status,
		UpdatedAt: time.Now(),
		Labels:    labels,
	})
}

// shutdown drains the turn queue (already closed by receiveLoop's exit),
// rejects any approvals still pending on the transport-approval wait map
// with a cancellation error, and closes the transport (§4.1 shutdown).
func (o *Orchestrator) shutdown(ctx context.Context) {
	if o.cfg.TransportApproval != nil {
		o.cfg.TransportApproval.RejectAllPending()
	}
	_ = o.cfg.Transport.Close(ctx)
}
