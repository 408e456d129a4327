package tenantctx

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Store propagates the current Frame through context.Context values.
//
// Each Store owns its own context key, so two stores never observe each
// other's frames. Construct one per application and inject it where needed.
type Store struct {
	now        func() time.Time
	defaultTTL time.Duration
	logger     *slog.Logger
}

// slot holds the frame of one scope. ClearTenant swaps it in place for the
// rest of the scope; frames themselves are never mutated.
type slot struct {
	frame atomic.Pointer[Frame]
}

type slotKey struct {
	store *Store
}

// NewStore creates a Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStoreFromConfig creates a Store from env-loaded configuration.
// Options are applied after the configuration values.
func NewStoreFromConfig(cfg Config, opts ...Option) *Store {
	return NewStore(append([]Option{WithDefaultTTL(cfg.DefaultTTL)}, opts...)...)
}

// NewFrame builds a frame for tenantID created now.
func (s *Store) NewFrame(tenantID string, opts ...FrameOption) *Frame {
	var o frameOptions
	for _, opt := range opts {
		opt(&o)
	}

	ttl := s.defaultTTL
	if o.ttlSet {
		ttl = o.ttl
	}

	now := s.now()
	f := &Frame{
		tenantID:  tenantID,
		hasTenant: true,
		createdAt: now,
		metadata:  o.metadata,
	}
	if ttl > 0 {
		f.expiresAt = now.Add(ttl)
		f.hasExpiry = true
	}
	return f
}

// Current returns the frame visible from ctx, if any.
// It never fails and accepts a nil context.
func (s *Store) Current(ctx context.Context) (*Frame, bool) {
	sl := s.slot(ctx)
	if sl == nil {
		return nil, false
	}
	f := sl.frame.Load()
	return f, f != nil
}

// Push runs fn with f as the current frame.
//
// fn receives a derived context; the caller's ctx is left untouched, so the
// previous frame (or none) is what the caller observes once fn returns,
// fails, panics or is cancelled. Everything fn starts with the derived
// context, including goroutines, sees f until it settles.
func (s *Store) Push(ctx context.Context, f *Frame, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sl := &slot{}
	sl.frame.Store(f)
	return fn(context.WithValue(ctx, slotKey{store: s}, sl))
}

func (s *Store) slot(ctx context.Context) *slot {
	if ctx == nil {
		return nil
	}
	sl, _ := ctx.Value(slotKey{store: s}).(*slot)
	return sl
}
