package async_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrymomot/tenantscope/pkg/async"
)

type ctxKey struct{}

func TestAsyncFunctionality(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	futureString := async.Async(ctx, 42, func(ctx context.Context, num int) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return fmt.Sprintf("Number: %d", num), nil
	})

	type pair struct{ A, B int }
	futureInt := async.Async(ctx, pair{A: 10, B: 32}, func(ctx context.Context, p pair) (int, error) {
		return p.A + p.B, nil
	})

	resultString, errString := futureString.Await()
	resultInt, errInt := futureInt.Await()

	if errString != nil || resultString != "Number: 42" {
		t.Errorf("Expected 'Number: 42', got '%s', error: %v", resultString, errString)
	}
	if errInt != nil || resultInt != 42 {
		t.Errorf("Expected 42, got %d, error: %v", resultInt, errInt)
	}
}

func TestAsyncSeesContextValues(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), ctxKey{}, "acme")

	future := async.Async(ctx, struct{}{}, func(ctx context.Context, _ struct{}) (string, error) {
		time.Sleep(10 * time.Millisecond)
		v, _ := ctx.Value(ctxKey{}).(string)
		return v, nil
	})

	got, err := future.Await()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "acme" {
		t.Errorf("Expected context value 'acme', got %q", got)
	}
}

func TestAsyncPreCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := make(chan struct{}, 1)
	future := async.Async(ctx, 1, func(ctx context.Context, num int) (int, error) {
		called <- struct{}{}
		return num, nil
	})

	_, err := future.Await()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
	select {
	case <-called:
		t.Error("Expected function not to run for cancelled context")
	default:
	}
}

func TestAsyncErrorPropagation(t *testing.T) {
	t.Parallel()
	expectedErr := errors.New("an error occurred in the async function")

	future := async.Async(context.Background(), 42, func(ctx context.Context, num int) (int, error) {
		return 0, expectedErr
	})

	result, err := future.Await()
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected error '%v', got: %v", expectedErr, err)
	}
	if result != 0 {
		t.Errorf("Expected result 0 due to error, got: %d", result)
	}
}

func TestIsCompleteAndDone(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})

	future := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (bool, error) {
		<-release
		return true, nil
	})

	if future.IsComplete() {
		t.Error("Expected future to not be complete before release")
	}
	close(release)

	select {
	case <-future.Done():
	case <-time.After(time.Second):
		t.Fatal("Expected Done to be closed")
	}
	if !future.IsComplete() {
		t.Error("Expected future to be complete after Done")
	}
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fastFuture := async.Async(ctx, 10, func(ctx context.Context, ms int) (string, error) {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return "success", nil
	})
	result, err := fastFuture.AwaitWithTimeout(time.Second)
	if err != nil || result != "success" {
		t.Errorf("Expected 'success', got %q, error: %v", result, err)
	}

	release := make(chan struct{})
	defer close(release)
	slowFuture := async.Async(ctx, 0, func(ctx context.Context, _ int) (string, error) {
		<-release
		return "too late", nil
	})
	result, err = slowFuture.AwaitWithTimeout(20 * time.Millisecond)
	if !errors.Is(err, async.ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got: %v", err)
	}
	if result != "" {
		t.Errorf("Expected empty result for timeout, got: %s", result)
	}
}

func TestWaitAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("results in input order", func(t *testing.T) {
		t.Parallel()

		sleeps := []int{30, 10, 20}
		futures := make([]*async.Future[int], len(sleeps))
		for i, ms := range sleeps {
			futures[i] = async.Async(ctx, ms, func(ctx context.Context, ms int) (int, error) {
				time.Sleep(time.Duration(ms) * time.Millisecond)
				return ms, nil
			})
		}

		results, err := async.WaitAll(futures...)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for i, want := range sleeps {
			if results[i] != want {
				t.Errorf("Expected result[%d] to be %d, got %d", i, want, results[i])
			}
		}
	})

	t.Run("fails fast on first completed error", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)
		boom := errors.New("boom")

		slow := async.Async(ctx, 0, func(ctx context.Context, _ int) (int, error) {
			<-release
			return 1, nil
		})
		failing := async.Async(ctx, 0, func(ctx context.Context, _ int) (int, error) {
			return 0, boom
		})

		done := make(chan error, 1)
		go func() {
			_, err := async.WaitAll(slow, failing)
			done <- err
		}()

		select {
		case err := <-done:
			if !errors.Is(err, boom) {
				t.Errorf("Expected boom, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("WaitAll did not fail fast")
		}
	})

	t.Run("no futures", func(t *testing.T) {
		t.Parallel()

		results, err := async.WaitAll[int]()
		if err != nil || len(results) != 0 {
			t.Errorf("Expected empty results, got %v, error: %v", results, err)
		}
	})
}

func TestWaitAny(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	release := make(chan struct{})
	defer close(release)

	slow := async.Async(ctx, "slow", func(ctx context.Context, s string) (string, error) {
		<-release
		return s, nil
	})
	fast := async.Async(ctx, "fast", func(ctx context.Context, s string) (string, error) {
		return s, nil
	})

	index, result, err := async.WaitAny(slow, fast)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if index != 1 || result != "fast" {
		t.Errorf("Expected index=1 and result='fast', got index=%d and result='%s'", index, result)
	}

	_, _, err = async.WaitAny[string]()
	if !errors.Is(err, async.ErrNoFutures) {
		t.Errorf("Expected ErrNoFutures, got %v", err)
	}
}
