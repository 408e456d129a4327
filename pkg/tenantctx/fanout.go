package tenantctx

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantscope/pkg/async"
)

// All runs ops concurrently under the frame current in ctx.
//
// Each op gets its own scope pinned to that frame, so a ClearTenant in one op
// is not seen by the others. The first error returned by any op cancels the
// context shared by the rest and is returned; otherwise results are in the
// order of ops. A nil ctx is treated as context.Background().
func All[T any](ctx context.Context, s *Store, ops ...func(context.Context) (T, error)) ([]T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	pinned, _ := s.Current(ctx)
	results := make([]T, len(ops))

	g, gctx := errgroup.WithContext(ctx)
	for i, op := range ops {
		g.Go(func() error {
			return s.Push(gctx, pinned, func(ctx context.Context) error {
				res, err := op(ctx)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Go starts fn asynchronously in its own scope pinned to the frame current
// in ctx.
func Go[T any](ctx context.Context, s *Store, fn func(context.Context) (T, error)) *async.Future[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	pinned, _ := s.Current(ctx)
	return async.Async(ctx, pinned, func(ctx context.Context, f *Frame) (T, error) {
		var res T
		err := s.Push(ctx, f, func(ctx context.Context) error {
			var err error
			res, err = fn(ctx)
			return err
		})
		return res, err
	})
}

// Await waits for futures started with Go.
// It returns the first error to complete; otherwise all results in order.
func Await[T any](futures ...*async.Future[T]) ([]T, error) {
	return async.WaitAll(futures...)
}
