package tenantctx

import "context"

// Wrap binds fn to the frame current in ctx at wrap time.
//
// Every call of the returned function runs fn under that frame, whatever
// frame the caller's context carries. If no frame was current at wrap time,
// calls run with no frame. The caller's context still controls
// cancellation and deadlines. An expired frame is re-established as is.
func (s *Store) Wrap(ctx context.Context, fn func(context.Context) error) func(context.Context) error {
	captured, _ := s.Current(ctx)
	return func(callCtx context.Context) error {
		return s.Push(callCtx, captured, fn)
	}
}

// WrapFunc is Wrap for callbacks taking an argument, such as event handlers.
func WrapFunc[T any](ctx context.Context, s *Store, fn func(context.Context, T) error) func(context.Context, T) error {
	captured, _ := s.Current(ctx)
	return func(callCtx context.Context, arg T) error {
		return s.Push(callCtx, captured, func(ctx context.Context) error {
			return fn(ctx, arg)
		})
	}
}
