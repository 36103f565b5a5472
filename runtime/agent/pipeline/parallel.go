package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Parallel runs every step in Steps concurrently against the same input,
// collecting results in declaration order. The first error cancels the
// remaining siblings' context and is returned; results for steps that never
// completed are left as the zero value (§4.2).
type Parallel[I, O any] struct {
	Steps []Step[I, O]
}

// Run implements Step.
func (p Parallel[I, O]) Run(ctx context.Context, in I) ([]O, error) {
	results := make([]O, len(p.Steps))
	if len(p.Steps) == 0 {
		return results, nil
	}

	g, runCtx := errgroup.WithContext(ctx)
	for i, s := range p.Steps {
		i, s := i, s
		g.Go(func() error {
			out, err := s.Run(runCtx, in)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
