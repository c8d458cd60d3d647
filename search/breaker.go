package search

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
)

// BreakerOptions configures WithCircuitBreaker.
type BreakerOptions struct {
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

type guarded struct {
	inner   Searcher
	breaker circuitbreaker.CircuitBreaker[[]Result]
}

// WithCircuitBreaker stops calling s after repeated consecutive failures
// until the cool-down elapses.
func WithCircuitBreaker(s Searcher, optFns ...func(o *BreakerOptions)) Searcher {
	opts := BreakerOptions{Threshold: 5, Timeout: 30 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	threshold := uint32(1)
	if opts.Threshold > 1 {
		threshold = uint32(opts.Threshold) // #nosec G115 -- bounds checked above
	}

	return &guarded{
		inner: s,
		breaker: circuitbreaker.New[[]Result](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    opts.Timeout,
			Timeout:     opts.Timeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
	}
}

func (g *guarded) Search(ctx context.Context, query string) ([]Result, error) {
	return g.breaker.Execute(ctx, func(ctx context.Context) ([]Result, error) {
		return g.inner.Search(ctx, query)
	})
}
