// Package queue is a small repository-agnostic task queue whose tasks keep
// the tenant they were enqueued for.
//
// An Enqueuer serializes a payload into a Task. When configured with a
// TenantEncoder (usually a *tenantctx.Store) it also captures the tenant frame
// current in the caller's context and stores it in Task.TenantContext. A
// Worker claims tasks and dispatches them to the Handler registered under the
// task name; with a TenantRestorer it restores the stored frame around the
// handler, so code inside the handler sees the same tenant, metadata, and
// expiry as the code that enqueued it. Restoring never renews expiry.
//
// A task whose tenant frame cannot be decoded is moved to the dead letter
// queue without retries.
//
// Usage:
//
//	store := tenantctx.NewStore()
//	storage := queue.NewMemoryStorage()
//	defer storage.Close()
//
//	enq, _ := queue.NewEnqueuer(storage, queue.WithTenantEncoder(store))
//	worker, _ := queue.NewWorker(storage, queue.WithTenantRestorer(store))
//	worker.RegisterHandlers(queue.NewTaskHandler(func(ctx context.Context, p SendInvoice) error {
//	    id, _ := store.TenantID(ctx)
//	    return send(ctx, id, p)
//	}))
//
//	_ = store.Run(ctx, "acme", func(ctx context.Context) error {
//	    return enq.Enqueue(ctx, SendInvoice{Number: 42})
//	})
//
// MemoryStorage implements every repository interface and is meant for tests
// and local development.
package queue
