// Package httpserver runs an http.Handler until its context is cancelled and
// then shuts it down gracefully.
//
// Run blocks, which makes it a natural errgroup member next to a queue worker:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(func() error { return srv.Run(ctx, router) })
//	g.Go(worker.Run(ctx))
//
// Request contexts derive from the context passed to Run with its cancellation
// removed, so a shutdown lets in-flight requests finish within the configured
// shutdown timeout.
package httpserver
