package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelize_CoversEveryItemOnce(t *testing.T) {
	const n = 10007
	seen := make([]int32, n)

	err := Parallelize(context.Background(), n, func(_ context.Context, start, end int) error {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
		return nil
	})
	require.NoError(t, err)
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("item %d visited %d times", i, c)
		}
	}
}

func TestParallelize_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := Parallelize(context.Background(), 5000, func(_ context.Context, start, _ int) error {
		if start == 0 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestParallelize_Empty(t *testing.T) {
	called := false
	err := Parallelize(context.Background(), 0, func(context.Context, int, int) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestParallelizeWithThreshold_Inline(t *testing.T) {
	var calls int32
	err := ParallelizeWithThreshold(context.Background(), 10, DefaultThreshold, func(_ context.Context, start, end int) error {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls)
}
