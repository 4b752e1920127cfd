package resilience

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// WithTimeout races fn against a deadline. If fn does not return before
// the timeout elapses, the derived context is cancelled and a timeout
// error is returned; fn's late result is discarded.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		val, err := fn(tctx)
		done <- outcome{val: val, err: err}
	}()

	var zero T
	select {
	case out := <-done:
		return out.val, out.err
	case <-tctx.Done():
		return zero, NewTransientError(eris.Wrapf(tctx.Err(), "timed out after %s", timeout), 0)
	}
}

// Attempt runs fn and captures its outcome instead of propagating it,
// so callers can degrade a failure to a negative result at the smallest
// enclosing step.
type AttemptResult[T any] struct {
	Value T
	Err   error
}

// Try executes fn and wraps its result. It never panics outward: a panic
// inside fn is converted into an error.
func Try[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (result AttemptResult[T]) {
	defer func() {
		if r := recover(); r != nil {
			result.Err = eris.Errorf("panic: %v", r)
		}
	}()

	val, err := fn(ctx)
	result.Value = val
	result.Err = err
	return result
}

// OK reports whether the attempt succeeded.
func (a AttemptResult[T]) OK() bool {
	return a.Err == nil
}
