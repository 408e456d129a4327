package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tenantscope/pkg/requestid"
	"github.com/dmitrymomot/tenantscope/pkg/tenantctx"
)

// Middleware resolves the tenant of each request and runs the rest of the
// chain inside a tenant scope of store. The frame carries the request id
// from requestid.Ensure under "request_id". Requests naming no tenant pass
// through without a scope.
func Middleware(store *tenantctx.Store, resolve Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier, err := resolve(r)
			if err != nil {
				cfg.logger.DebugContext(r.Context(), "tenant resolution failed", slog.Any("error", err))
				cfg.errorHandler(w, r, fmt.Errorf("%w: %w", ErrInvalidIdentifier, err))
				return
			}
			if identifier == "" {
				next.ServeHTTP(w, r)
				return
			}

			r = requestid.Ensure(w, r)
			requestID := requestid.FromContext(r.Context())

			frameOpts := []tenantctx.FrameOption{tenantctx.WithMetadata("request_id", requestID)}
			for _, fn := range cfg.metadata {
				frameOpts = append(frameOpts, tenantctx.WithMetadataMap(fn(r)))
			}
			if cfg.ttl > 0 {
				frameOpts = append(frameOpts, tenantctx.WithTTL(cfg.ttl))
			}

			_ = store.Run(r.Context(), identifier, func(ctx context.Context) error {
				next.ServeHTTP(w, r.WithContext(ctx))
				return nil
			}, frameOpts...)
		})
	}
}

// RequireTenant rejects requests without a valid tenant scope.
// It uses the strict accessor, so expired frames are rejected too.
func RequireTenant(store *tenantctx.Store, errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f, err := store.Frame(r.Context())
			if err != nil {
				errorHandler(w, r, err)
				return
			}
			if _, ok := f.TenantID(); !ok {
				errorHandler(w, r, ErrTenantRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
