package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// callWithRetry runs fn under a per-call timeout and retries exactly once
// when the failure is transient. Deadline overruns are normalized to
// BACKEND_TIMEOUT so callers see one code regardless of backend.
func callWithRetry[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	result, err := callOnce(ctx, timeout, fn)
	if err == nil {
		return result, nil
	}

	// Parent cancellation is never retried.
	if ctx.Err() != nil {
		var zero T
		return zero, types.WrapError(types.PIPELINE_CANCELLED, "run cancelled", ctx.Err())
	}

	if llm.IsRetryable(err) {
		return callOnce(ctx, timeout, fn)
	}

	var zero T
	return zero, err
}

// callOnce runs fn under its own deadline derived from ctx.
func callOnce[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, types.NewRetryableError(types.BACKEND_TIMEOUT,
			"backend call exceeded "+timeout.String())
	}
	return result, err
}
