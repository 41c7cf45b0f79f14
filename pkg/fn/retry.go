package fn

import (
	"context"
	"time"
)

// RetryOpts configures retry behavior. The wait doubles after every failed
// attempt up to MaxWait.
type RetryOpts struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetry is the backoff policy applied to embedding and vector store
// calls: 3 attempts, 1s base delay, doubling.
var DefaultRetry = RetryOpts{
	MaxAttempts: 3,
	InitialWait: time.Second,
	MaxWait:     30 * time.Second,
}

// Retry retries f up to MaxAttempts times with exponential backoff. The last
// failed result is returned when attempts are exhausted; context cancellation
// aborts between attempts.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultRetry.MaxAttempts
	}
	wait := opts.InitialWait
	if wait <= 0 {
		wait = DefaultRetry.InitialWait
	}

	var result Result[T]
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		result = f(ctx)
		if result.IsOk() || attempt == opts.MaxAttempts-1 {
			return result
		}
		select {
		case <-ctx.Done():
			return Err[T](ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
		if opts.MaxWait > 0 && wait > opts.MaxWait {
			wait = opts.MaxWait
		}
	}
	return result
}

// RetryStage wraps a Stage with retry logic.
func RetryStage[In, Out any](opts RetryOpts, stage Stage[In, Out]) Stage[In, Out] {
	return func(ctx context.Context, in In) Result[Out] {
		return Retry(ctx, opts, func(ctx context.Context) Result[Out] {
			return stage(ctx, in)
		})
	}
}
