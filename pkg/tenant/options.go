package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/tenantscope/pkg/requestid"
	"github.com/dmitrymomot/tenantscope/pkg/tenantctx"
)

// DefaultHeader is the header read by NewHeaderResolver by default.
const DefaultHeader = "X-Tenant-ID"

// RequestIDHeader carries the request correlation id stored in frame metadata.
const RequestIDHeader = requestid.Header

// Config holds env-driven resolver settings.
type Config struct {
	Header       string `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`
	DomainSuffix string `env:"TENANT_DOMAIN_SUFFIX" envDefault:""`
}

// ErrorHandler handles errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// MetadataFunc returns extra frame metadata for a request.
type MetadataFunc func(r *http.Request) tenantctx.Metadata

type config struct {
	errorHandler ErrorHandler
	skipPaths    []string
	ttl          time.Duration
	metadata     []MetadataFunc
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithTTL bounds the logical lifetime of the request's tenant frame.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithMetadataFunc adds request-derived metadata to the tenant frame.
func WithMetadataFunc(fn MetadataFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.metadata = append(c.metadata, fn)
		}
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, tenantctx.ErrContextExpired):
		http.Error(w, "Tenant context expired", http.StatusUnauthorized)
	case errors.Is(err, ErrTenantRequired), errors.Is(err, tenantctx.ErrContextNotFound):
		http.Error(w, "Tenant required", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
