package tenantctx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantscope/pkg/async"
	"github.com/dmitrymomot/tenantscope/pkg/tenantctx"
)

func TestAll(t *testing.T) {
	t.Parallel()

	t.Run("results in input order under ambient frame", func(t *testing.T) {
		store := tenantctx.NewStore()

		op := func(delay time.Duration, result string) func(context.Context) (string, error) {
			return func(ctx context.Context) (string, error) {
				time.Sleep(delay)
				id, _ := store.TenantID(ctx)
				return result + ":" + id, nil
			}
		}

		results, err := tenantctx.RunWithResult(context.Background(), store, "X", func(ctx context.Context) ([]string, error) {
			return tenantctx.All(ctx, store,
				op(30*time.Millisecond, "r1"),
				op(10*time.Millisecond, "r2"),
				op(20*time.Millisecond, "r3"),
			)
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"r1:X", "r2:X", "r3:X"}, results)
	})

	t.Run("fails fast and cancels siblings", func(t *testing.T) {
		store := tenantctx.NewStore()
		boom := errors.New("boom")

		start := time.Now()
		_, err := tenantctx.All(context.Background(), store,
			func(ctx context.Context) (int, error) {
				select {
				case <-ctx.Done():
					return 0, ctx.Err()
				case <-time.After(5 * time.Second):
					return 1, nil
				}
			},
			func(context.Context) (int, error) { return 0, boom },
		)
		assert.ErrorIs(t, err, boom)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("clearing in one op does not affect siblings", func(t *testing.T) {
		store := tenantctx.NewStore()
		cleared := make(chan struct{})

		results, err := tenantctx.RunWithResult(context.Background(), store, "X", func(ctx context.Context) ([]string, error) {
			res, err := tenantctx.All(ctx, store,
				func(ctx context.Context) (string, error) {
					if err := store.ClearTenant(ctx); err != nil {
						return "", err
					}
					close(cleared)
					id, _ := store.TenantID(ctx)
					return id, nil
				},
				func(ctx context.Context) (string, error) {
					<-cleared
					id, _ := store.TenantID(ctx)
					return id, nil
				},
			)
			if err != nil {
				return nil, err
			}

			id, _ := store.TenantID(ctx)
			assert.Equal(t, "X", id)
			return res, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"", "X"}, results)
	})

	t.Run("no ambient frame", func(t *testing.T) {
		store := tenantctx.NewStore()

		results, err := tenantctx.All(context.Background(), store, func(ctx context.Context) (bool, error) {
			_, ok := store.Current(ctx)
			return ok, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []bool{false}, results)
	})

	t.Run("no ops", func(t *testing.T) {
		store := tenantctx.NewStore()

		results, err := tenantctx.All[int](context.Background(), store)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestGoAndAwait(t *testing.T) {
	t.Parallel()
	store := tenantctx.NewStore()

	var futures []*async.Future[string]
	require.NoError(t, store.Run(context.Background(), "X", func(ctx context.Context) error {
		for _, d := range []time.Duration{20 * time.Millisecond, 0, 10 * time.Millisecond} {
			futures = append(futures, tenantctx.Go(ctx, store, func(ctx context.Context) (string, error) {
				time.Sleep(d)
				id, _ := store.TenantID(ctx)
				return id, nil
			}))
		}
		return nil
	}))

	// Awaited after the scope exited: each future kept its pinned frame.
	results, err := tenantctx.Await(futures...)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "X", "X"}, results)
}

func TestFanOutNilContext(t *testing.T) {
	t.Parallel()
	store := tenantctx.NewStore()

	op := func(ctx context.Context) (int, error) {
		_, ok := store.Current(ctx)
		assert.False(t, ok)
		return 1, nil
	}

	//nolint:staticcheck // nil context is accepted like in Store.Push
	results, err := tenantctx.All[int](nil, store, op, op)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, results)

	//nolint:staticcheck // nil context is accepted like in Store.Push
	res, err := tenantctx.Await(tenantctx.Go[int](nil, store, op))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res)
}
