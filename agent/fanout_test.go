package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOut_LimitAndOrder(t *testing.T) {
	var inFlight, peak atomic.Int32

	items := []int{1, 2, 3, 4, 5, 6}

	out := FanOut(context.Background(), 2, items, func(_ context.Context, _ int, item int) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)

		return item * 10, nil
	})

	require.Len(t, out, len(items))
	for i, o := range out {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, items[i]*10, o.Value)
		assert.NoError(t, o.Err)
	}

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestFanOut_FailureIsolated(t *testing.T) {
	out := FanOut(context.Background(), 0, []string{"ok", "fail", "panic", "ok"}, func(_ context.Context, _ int, item string) (string, error) {
		switch item {
		case "fail":
			return "", errors.New("failed")
		case "panic":
			panic("boom")
		}
		return item, nil
	})

	assert.NoError(t, out[0].Err)
	assert.EqualError(t, out[1].Err, "failed")
	assert.ErrorContains(t, out[2].Err, "boom")
	assert.Equal(t, "ok", out[3].Value)
}

func TestFanOut_Empty(t *testing.T) {
	out := FanOut(context.Background(), 3, []int(nil), func(context.Context, int, int) (int, error) {
		t.Fatalf("must not be called")
		return 0, nil
	})
	assert.Empty(t, out)
}
