package agent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one fan-out unit.
type Outcome[R any] struct {
	Index int
	Value R
	Err   error
}

// FanOut runs fn for every item with at most limit units in flight and waits
// for all of them. A failing unit is reported in its own Outcome and does not
// cancel its siblings. Outcomes are returned in input order. A limit below 1
// runs all items at once.
func FanOut[T, R any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, index int, item T) (R, error)) []Outcome[R] {
	out := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return out
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		g.Go(func() error {
			out[i] = runUnit(ctx, i, item, fn)
			return nil
		})
	}

	_ = g.Wait() // units never return errors

	return out
}

func runUnit[T, R any](ctx context.Context, i int, item T, fn func(context.Context, int, T) (R, error)) (o Outcome[R]) {
	o.Index = i

	defer func() {
		if r := recover(); r != nil {
			o.Err = fmt.Errorf("unit %d: %w", i, panicError(r))
		}
	}()

	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}

	o.Value, o.Err = fn(ctx, i, item)

	return o
}
