package async

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by AwaitWithTimeout when the timeout elapses first.
	ErrTimeout = errors.New("async: timed out waiting for future")

	// ErrNoFutures is returned by WaitAny when called without futures.
	ErrNoFutures = errors.New("async: no futures to wait for")
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await waits for the asynchronous function to complete and returns its result and error.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout waits for the asynchronous function to complete with a timeout.
// If the timeout elapses first, ErrTimeout is returned and the computation keeps running.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// Done returns a channel closed when the computation completes.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// IsComplete checks if the asynchronous function is complete without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Async executes fn in its own goroutine and returns a Future.
// fn receives ctx unchanged, so values carried by ctx (such as the tenant
// frame) are visible inside it.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		// Early exit prevents running work for an already cancelled caller
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// WaitAll waits for all futures and returns their results in input order.
// It fails fast: the first future to complete with an error ends the wait
// and that error is returned with whatever results were collected so far.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	if len(futures) == 0 {
		return results, nil
	}

	completed := make(chan int, len(futures))
	for i, future := range futures {
		go func() {
			<-future.done
			completed <- i
		}()
	}

	for range futures {
		i := <-completed
		res, err := futures[i].Await()
		if err != nil {
			return results, err
		}
		results[i] = res
	}

	return results, nil
}

// WaitAny waits for any of the futures to complete and returns the index of the completed future,
// its result, and any error it might have returned.
func WaitAny[U any](futures ...*Future[U]) (int, U, error) {
	if len(futures) == 0 {
		var zero U
		return -1, zero, ErrNoFutures
	}

	// Buffered so watchers of slower futures never block after the winner is taken
	completed := make(chan int, len(futures))
	for i, future := range futures {
		go func() {
			<-future.done
			completed <- i
		}()
	}

	i := <-completed
	res, err := futures[i].Await()
	return i, res, err
}
