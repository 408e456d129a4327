// Package tenant establishes the tenant scope for incoming HTTP requests.
//
// A Resolver extracts the tenant identifier from a request (header,
// subdomain, path segment, chi route parameter, or a composite of those).
// Middleware runs the remaining handler chain inside tenantctx.Store.Run so
// that handlers, repositories and loggers can read the tenant from the
// request context:
//
//	store := tenantctx.NewStore()
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(store, tenant.NewHeaderResolver(""),
//		tenant.WithSkipPaths("/health"),
//	))
//	r.With(tenant.RequireTenant(store, nil)).Get("/invoices", listInvoices)
//
// Which tenant a request belongs to, and whether the caller may act for it,
// is decided by the resolver and the application, not by this package.
package tenant
