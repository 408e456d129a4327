package tenantctx

import (
	"context"
	"log/slog"
)

// LoggerExtractor returns a logger.ContextExtractor that adds the current
// tenant as "tenant_id". Expired or cleared frames add nothing.
func LoggerExtractor(s *Store) func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := s.TenantID(ctx); ok {
			return slog.String("tenant_id", id), true
		}
		return slog.Attr{}, false
	}
}
