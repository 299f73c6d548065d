package util_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/fossil/internal/util"
)

func TestParallelKeepsPositions(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	out := make([]int, len(in))

	err := util.Parallel(context.Background(), in, 3, func(_ context.Context, i, v int) error {
		out[i] = v * v
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16, 25, 36, 49, 64}, out)
}

func TestParallelRespectsLimit(t *testing.T) {
	var cur, peak atomic.Int32
	in := make([]struct{}, 20)

	err := util.Parallel(context.Background(), in, 2, func(context.Context, int, struct{}) error {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		cur.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestParallelReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := util.Parallel(context.Background(), []int{0, 1, 2}, 1, func(_ context.Context, i, _ int) error {
		if i == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := util.Parallel(ctx, []int{1}, 1, func(context.Context, int, int) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 4, util.WorkerCount(4))
	assert.Positive(t, util.WorkerCount(0))
}
