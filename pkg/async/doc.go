// Package async provides generic futures for running computations in
// goroutines and waiting for them.
//
// Async starts a function in its own goroutine with the caller's context and
// returns a *Future. Because the context is passed through unchanged, any
// request-scoped values it carries, including the tenant frame managed by
// package tenantctx, are visible to the computation.
//
// WaitAll collects every result in input order and fails fast on the first
// future to complete with an error. WaitAny returns the first future to
// complete.
//
// # Usage
//
//	f := async.Async(ctx, 42, func(ctx context.Context, v int) (string, error) {
//		return strconv.Itoa(v), nil
//	})
//	res, err := f.Await()
package async
