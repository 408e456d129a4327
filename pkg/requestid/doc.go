// Package requestid attaches a correlation id to each HTTP request.
//
// Middleware reuses a valid client supplied X-Request-ID header or generates
// a UUIDv4, stores the id in the request context and echoes it back in the
// response header. The tenant middleware calls Ensure, so a request scope's
// frame carries the same id under "request_id" whether or not Middleware
// ran first.
//
//	log := slog.New(logger.NewLogHandlerDecorator(handler,
//		requestid.LoggerExtractor(),
//		tenantctx.LoggerExtractor(store),
//	))
//
// Invalid or empty ids are silently replaced; the package returns no errors.
package requestid
