package tenantctx

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Run executes fn in a new scope whose current tenant is tenantID.
// The error returned by fn is passed through unchanged.
func (s *Store) Run(ctx context.Context, tenantID string, fn func(context.Context) error, opts ...FrameOption) error {
	return s.Push(ctx, s.NewFrame(tenantID, opts...), fn)
}

// RunWithResult is Run for functions producing a value.
func RunWithResult[T any](ctx context.Context, s *Store, tenantID string, fn func(context.Context) (T, error), opts ...FrameOption) (T, error) {
	var result T
	err := s.Run(ctx, tenantID, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	}, opts...)
	return result, err
}

// TenantID returns the current tenant identifier.
//
// It is the best-effort observer: "", false is returned when there is no
// scope, when the tenant was cleared, and when the frame has expired.
// It never fails.
func (s *Store) TenantID(ctx context.Context) (string, bool) {
	f, ok := s.Current(ctx)
	if !ok || f.Expired(s.now()) {
		return "", false
	}
	return f.TenantID()
}

// Frame returns the current frame, strictly.
// Returns ErrContextNotFound without a scope and ErrContextExpired when the
// frame's expiry lies in the past.
func (s *Store) Frame(ctx context.Context) (*Frame, error) {
	f, ok := s.Current(ctx)
	if !ok {
		return nil, ErrContextNotFound
	}
	if f.Expired(s.now()) {
		return nil, fmt.Errorf("%w: expired at %s", ErrContextExpired, f.expiresAt.Format(time.RFC3339Nano))
	}
	return f, nil
}

// ClearTenant replaces the current frame with a copy that has no tenant.
//
// The scope stays active: Frame still succeeds and metadata, creation and
// expiry times are kept. The change is visible to everything sharing the
// enclosing scope until it exits, including goroutines started with that
// scope's context; start them with All or Go to give each its own scope.
func (s *Store) ClearTenant(ctx context.Context) error {
	sl := s.slot(ctx)
	if sl == nil {
		return ErrContextNotFound
	}
	for {
		old := sl.frame.Load()
		if old == nil {
			return ErrContextNotFound
		}
		if sl.frame.CompareAndSwap(old, old.withoutTenant()) {
			s.logger.DebugContext(ctx, "tenant cleared from context", slog.String("tenant_id", old.tenantID))
			return nil
		}
	}
}

// Metadata returns the current frame's metadata value for key.
func (s *Store) Metadata(ctx context.Context, key string) (any, bool) {
	f, ok := s.Current(ctx)
	if !ok {
		return nil, false
	}
	return f.Metadata(key)
}

// MetadataValue returns the metadata value for key asserted to V.
// A missing key or a value of another type yields the zero V and false.
func MetadataValue[V any](ctx context.Context, s *Store, key string) (V, bool) {
	var zero V
	v, ok := s.Metadata(ctx, key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}
