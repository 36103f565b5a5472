package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/agentcore/runtime/runtime/agent/toolerrors"
)

// Loop repeats Body on its own output until ExitWhen holds or MaxIterations
// is reached, checking cancellation at every iteration boundary (§4.2, §5).
type Loop[T any] struct {
	Body          Step[T, T]
	ExitWhen      func(T) bool
	MaxIterations int
}

// Run implements Step.
func (l Loop[T]) Run(ctx context.Context, in T) (T, error) {
	if l.Body == nil {
		var zero T
		return zero, errNilBody
	}
	cur := in
	for i := 0; l.MaxIterations <= 0 || i < l.MaxIterations; i++ {
		if err := checkCancelled(ctx); err != nil {
			return cur, err
		}
		next, err := l.Body.Run(ctx, cur)
		if err != nil {
			return cur, err
		}
		cur = next
		if l.ExitWhen != nil && l.ExitWhen(cur) {
			return cur, nil
		}
	}
	return cur, nil
}

// Try runs Body; if it fails, Catch receives the error and produces a
// fallback Step of the same I/O type, whose output becomes the result
// (§4.2). A CancellationError always propagates unchanged, bypassing Catch.
type Try[I, O any] struct {
	Body  Step[I, O]
	Catch func(error) Step[I, O]
}

// Run implements Step.
func (t Try[I, O]) Run(ctx context.Context, in I) (O, error) {
	out, err := t.Body.Run(ctx, in)
	if err == nil {
		return out, nil
	}
	var cancel *toolerrors.CancellationError
	if errors.As(err, &cancel) {
		return out, err
	}
	if t.Catch == nil {
		return out, err
	}
	fallback := t.Catch(err)
	if fallback == nil {
		return out, err
	}
	return fallback.Run(ctx, in)
}

// Retry runs Body; on failure it waits Delay and retries, up to
// max(1, Attempts) total attempts. It immediately propagates
// CancellationError without retrying, and checks cancellation before every
// attempt (§4.2, §5).
type Retry[I, O any] struct {
	Body     Step[I, O]
	Attempts int
	Delay    time.Duration
}

// Run implements Step.
func (r Retry[I, O]) Run(ctx context.Context, in I) (O, error) {
	var zero O
	if r.Body == nil {
		return zero, errNilBody
	}
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastOut O
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := checkCancelled(ctx); err != nil {
			return lastOut, err
		}
		if i > 0 && r.Delay > 0 {
			timer := time.NewTimer(r.Delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return lastOut, ctx.Err()
			}
		}
		lastOut, lastErr = r.Body.Run(ctx, in)
		if lastErr == nil {
			return lastOut, nil
		}
		var cancel *toolerrors.CancellationError
		if errors.As(lastErr, &cancel) {
			return lastOut, lastErr
		}
	}
	return lastOut, lastErr
}

// Timeout races Body against a timer of Duration; whichever finishes first
// wins. On timeout, the loser is considered cancelled and a TimeoutError is
// raised (§4.2).
type Timeout[I, O any] struct {
	Body     Step[I, O]
	Duration time.Duration
	StepName string
}

// Run implements Step.
func (t Timeout[I, O]) Run(ctx context.Context, in I) (O, error) {
	var zero O
	if t.Body == nil {
		return zero, errNilBody
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		out O
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := t.Body.Run(runCtx, in)
		done <- outcome{out: out, err: err}
	}()

	timer := time.NewTimer(t.Duration)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.out, res.err
	case <-timer.C:
		cancel()
		return zero, &toolerrors.TimeoutError{Duration: t.Duration, StepName: t.StepName}
	case <-ctx.Done():
		cancel()
		return zero, ctx.Err()
	}
}

// MapError runs Body and transforms any returned error through F before
// re-raising it. It never suppresses an error (§4.2).
type MapError[I, O any] struct {
	Body Step[I, O]
	F    func(error) error
}

// Run implements Step.
func (m MapError[I, O]) Run(ctx context.Context, in I) (O, error) {
	out, err := m.Body.Run(ctx, in)
	if err == nil {
		return out, nil
	}
	if m.F == nil {
		return out, err
	}
	mapped := m.F(err)
	if mapped == nil {
		mapped = err
	}
	return out, mapped
}

// Gate short-circuits with a reported reason if Predicate blocks; otherwise
// it delegates to Body (§4.2).
type Gate[I, O any] struct {
	Predicate func(I) (blocked bool, reason string)
	Body      Step[I, O]
}

// BlockedError is returned by Gate when Predicate blocks the input.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string { return "gate blocked: " + e.Reason }

// Run implements Step.
func (g Gate[I, O]) Run(ctx context.Context, in I) (O, error) {
	var zero O
	if g.Predicate != nil {
		if blocked, reason := g.Predicate(in); blocked {
			return zero, &BlockedError{Reason: reason}
		}
	}
	if g.Body == nil {
		return zero, errNilBody
	}
	return g.Body.Run(ctx, in)
}

// Conditional runs Then when Predicate(in) is true, Else otherwise. Else may
// be nil, in which case the zero value of O is returned with no error when
// the predicate is false.
type Conditional[I, O any] struct {
	Predicate func(I) bool
	Then      Step[I, O]
	Else      Step[I, O]
}

// Run implements Step.
func (c Conditional[I, O]) Run(ctx context.Context, in I) (O, error) {
	var zero O
	if c.Predicate != nil && c.Predicate(in) {
		if c.Then == nil {
			return zero, errNilBody
		}
		return c.Then.Run(ctx, in)
	}
	if c.Else == nil {
		return zero, nil
	}
	return c.Else.Run(ctx, in)
}

// Optional runs Body and swallows any non-cancellation error, returning the
// zero value of O and a nil error instead.
type Optional[I, O any] struct {
	Body Step[I, O]
}

// Run implements Step.
func (o Optional[I, O]) Run(ctx context.Context, in I) (O, error) {
	var zero O
	if o.Body == nil {
		return zero, nil
	}
	out, err := o.Body.Run(ctx, in)
	if err == nil {
		return out, nil
	}
	var cancel *toolerrors.CancellationError
	if errors.As(err, &cancel) {
		return zero, err
	}
	return zero, nil
}

// WaitForInput reads a line of text from the operator via Read, used inside
// Loop for interactive steps (§4.2).
type WaitForInput struct {
	Prompt string
	Read   func(ctx context.Context, prompt string) (string, error)
}

// Run implements Step.
func (w WaitForInput) Run(ctx context.Context, _ struct{}) (string, error) {
	if w.Read == nil {
		return "", errors.New("pipeline: WaitForInput requires a Read function")
	}
	return w.Read(ctx, w.Prompt)
}
