// Package logger builds slog loggers that enrich every record with values
// carried by the context, such as the current tenant.
//
// New creates a *slog.Logger from functional options selecting format, level,
// output and static attributes. ContextExtractor callbacks registered with
// WithContextExtractors run on each record logged through the *Context
// methods:
//
//	store := tenantctx.NewStore()
//	log := logger.New(
//		logger.WithEnvironment("production", "billing"),
//		logger.WithContextExtractors(tenantctx.LoggerExtractor(store)),
//	)
//	log.InfoContext(ctx, "invoice sent") // includes tenant_id when in scope
//
// NewFromConfig reads the same settings from an env-loaded Config.
package logger
