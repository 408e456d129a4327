// Package pg connects to PostgreSQL with pgx/v5 and scopes database work to
// the current tenant.
//
// Connect opens a *pgxpool.Pool from a Config populated through
// github.com/caarlos0/env, retrying until the database answers a ping.
//
// TenantSession bridges tenantctx and row-level security. InTx begins a
// transaction, runs set_config(setting, tenant, true) for the tenant current
// in the context, and then hands the transaction to the caller:
//
//	sess, _ := pg.NewTenantSessionFromConfig(store, cfg)
//	err := sess.InTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
//	    _, err := tx.Exec(ctx, "insert into invoices (number) values ($1)", 42)
//	    return err
//	})
//
// Policies then filter on current_setting('app.tenant_id'). Because the
// setting is transaction-local it never leaks to the next user of a pooled
// connection. InTx refuses to run when the context has no frame or the frame
// has expired, returning tenantctx.ErrContextNotFound or
// tenantctx.ErrContextExpired.
package pg
