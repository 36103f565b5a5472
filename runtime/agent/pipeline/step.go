// Package pipeline implements the Step combinator set of §4.2: a composable,
// typed pipeline of asynchronous stages (chain, loop, try/catch, retry,
// timeout, parallel, conditional) from which an agent's behaviour is built.
package pipeline

import (
	"context"
	"errors"

	"github.com/agentcore/runtime/runtime/agent/turnctx"
)

// Step is an asynchronous function from input to output that may fail. It is
// the pipeline's one abstraction; every combinator below both implements
// Step and is built from other Steps.
type Step[I, O any] interface {
	Run(ctx context.Context, in I) (O, error)
}

// Func adapts a plain function to Step, analogous to http.HandlerFunc.
type Func[I, O any] func(ctx context.Context, in I) (O, error)

// Run implements Step.
func (f Func[I, O]) Run(ctx context.Context, in I) (O, error) { return f(ctx, in) }

// Transform is a pure input-to-output mapping with no failure mode.
func Transform[I, O any](f func(I) O) Step[I, O] {
	return Func[I, O](func(_ context.Context, in I) (O, error) {
		return f(in), nil
	})
}

// checkCancelled consults the turn's cancellation token, if one is installed
// in ctx, returning its CancellationError when cancelled.
func checkCancelled(ctx context.Context) error {
	tok, ok := turnctx.CancellationTokenFrom(ctx)
	if !ok {
		return nil
	}
	return tok.CheckContext(ctx)
}

// errNilBody is returned by combinators constructed without a body step,
// which is always a caller bug rather than a runtime condition.
var errNilBody = errors.New("pipeline: body step is required")
