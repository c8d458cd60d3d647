package model

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// RetryOptions configures WithRetry.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultRetryOptions returns three attempts with exponential backoff.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// retryingModel re-issues failed calls with exponential backoff. Streaming is
// disabled for retried calls so a partial stream is never replayed.
type retryingModel struct {
	inner Model
	retry retry.Retry[Response]
}

// WithRetry wraps m so transport failures are retried. Context cancellation
// and deadline errors are never retried. MaxAttempts <= 1 returns m unchanged.
func WithRetry(m Model, optFns ...func(o *RetryOptions)) Model {
	opts := DefaultRetryOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxAttempts <= 1 {
		return m
	}

	return &retryingModel{
		inner: m,
		retry: retry.New[Response](retry.Config{
			MaxAttempts:        opts.MaxAttempts,
			InitialDelay:       opts.InitialDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         opts.Multiplier,
			NonRetryableErrors: []error{context.Canceled, context.DeadlineExceeded},
		}),
	}
}

func (r *retryingModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 1)
	errCh := make(chan error, 1)

	req.Stream = false

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := r.retry.Do(ctx, func(ctx context.Context) (Response, error) {
			return Collect(ctx, r.inner, req)
		})
		if err != nil {
			errCh <- err
			return
		}

		out <- resp
	}()

	return out, errCh
}

func (r *retryingModel) Info() Info { return r.inner.Info() }
