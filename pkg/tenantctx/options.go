package tenantctx

import (
	"log/slog"
	"time"
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for frame creation and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultTTL sets the TTL applied to frames created without WithTTL.
// Zero or negative disables the default.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// FrameOption configures a frame created by Run or NewFrame.
type FrameOption func(*frameOptions)

type frameOptions struct {
	metadata Metadata
	ttl      time.Duration
	ttlSet   bool
}

// WithMetadata adds a single metadata entry to the frame.
func WithMetadata(key string, value any) FrameOption {
	return func(o *frameOptions) {
		o.metadata = o.metadata.With(key, value)
	}
}

// WithMetadataMap merges all entries of m into the frame metadata, in order.
func WithMetadataMap(m Metadata) FrameOption {
	return func(o *frameOptions) {
		for _, key := range m.keys {
			o.metadata = o.metadata.With(key, m.values[key])
		}
	}
}

// WithTTL sets the frame's logical lifetime.
// Zero or negative means the frame never expires, overriding the store default.
func WithTTL(ttl time.Duration) FrameOption {
	return func(o *frameOptions) {
		o.ttl = ttl
		o.ttlSet = true
	}
}
