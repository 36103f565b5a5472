package pipeline

import "context"

// chain2 composes two steps left to right with a typed edge, short-circuiting
// on the first error. Chain builds n-ary pipelines out of these.
type chain2[I, M, O any] struct {
	first  Step[I, M]
	second Step[M, O]
}

// Run implements Step.
func (c chain2[I, M, O]) Run(ctx context.Context, in I) (O, error) {
	var zero O
	mid, err := c.first.Run(ctx, in)
	if err != nil {
		return zero, err
	}
	return c.second.Run(ctx, mid)
}

// Chain composes first and second into a single Step, short-circuiting on
// the first error (§4.2). Longer pipelines nest calls to Chain, e.g.
// Chain(Chain(a, b), c).
func Chain[I, M, O any](first Step[I, M], second Step[M, O]) Step[I, O] {
	return chain2[I, M, O]{first: first, second: second}
}

// Same composes steps that share one input/output type, for the common case
// of an n-ary homogeneous pipeline (§4.2's "Chain (n-ary)"). Steps run in
// slice order; the first error short-circuits the rest.
func Same[T any](steps ...Step[T, T]) Step[T, T] {
	return Func[T, T](func(ctx context.Context, in T) (T, error) {
		cur := in
		for _, s := range steps {
			var err error
			cur, err = s.Run(ctx, cur)
			if err != nil {
				return cur, err
			}
		}
		return cur, nil
	})
}
