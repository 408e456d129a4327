// Package tenantctx makes the active tenant implicitly available to all code
// running within one request or job.
//
// A Frame is an immutable snapshot of the tenant identifier, its creation and
// optional expiry time, and ordered metadata. A Store carries the current
// frame through context.Context: Run establishes a scope, and every function
// and goroutine that receives the derived context observes the frame until
// the scope's function returns. Nested scopes shadow outer ones and the
// caller's context is never modified, so the previous frame is restored on
// every exit path.
//
// # Usage
//
//	store := tenantctx.NewStore()
//
//	err := store.Run(ctx, "acme", func(ctx context.Context) error {
//		id, _ := store.TenantID(ctx) // "acme"
//		return repo.List(ctx)
//	}, tenantctx.WithMetadata("user_id", "u1"), tenantctx.WithTTL(time.Minute))
//
// # Observers and accessors
//
// TenantID is a best-effort observer: it reports false when there is no
// scope, the tenant was cleared, or the frame has expired, and never fails.
// Frame is strict and returns ErrContextNotFound or ErrContextExpired.
// Expiry is observational only; it never ends a scope or cancels ctx.
//
// # Crossing boundaries
//
// Serialize, Encode, Restore and RestoreBytes carry a frame across a queue
// or process boundary without renewing its expiry. Wrap binds a callback to
// the frame current at wrap time for timers and event handlers. All and Go
// fan work out to goroutines pinned to one frame.
package tenantctx
