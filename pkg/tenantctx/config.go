package tenantctx

import "time"

// Config holds the store configuration.
type Config struct {
	DefaultTTL time.Duration `env:"TENANT_CONTEXT_DEFAULT_TTL" envDefault:"0s"`
}
