package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolProcessesSubmittedWork(t *testing.T) {
	var count int64
	pool := NewPool(2, 16, func(_ context.Context, n int) error {
		atomic.AddInt64(&count, int64(n))
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))

	for i := 1; i <= 5; i++ {
		require.NoError(t, pool.Submit(i))
	}

	require.NoError(t, pool.Stop(time.Second))
	assert.Equal(t, int64(15), atomic.LoadInt64(&count))

	stats := pool.Stats()
	assert.Equal(t, int64(5), stats.Submitted)
	assert.Equal(t, int64(5), stats.Processed)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestPoolSubmitBeforeStart(t *testing.T) {
	pool := NewPool(1, 4, func(_ context.Context, _ int) error { return nil })
	assert.ErrorIs(t, pool.Submit(1), ErrPoolNotStarted)
}

func TestPoolDoubleStart(t *testing.T) {
	pool := NewPool(1, 4, func(_ context.Context, _ int) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))
	assert.ErrorIs(t, pool.Start(ctx), ErrPoolAlreadyStarted)
	require.NoError(t, pool.Stop(time.Second))
}

func TestPoolQueueFull(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool(1, 1, func(_ context.Context, _ int) error {
		<-block
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))

	// One item occupies the worker, one fills the queue.
	require.NoError(t, pool.Submit(1))
	var full bool
	for i := 0; i < 10; i++ {
		if err := pool.Submit(2); err != nil {
			assert.ErrorIs(t, err, ErrQueueFull)
			full = true
			break
		}
	}
	assert.True(t, full, "expected queue to fill")
	assert.Greater(t, pool.Stats().Dropped, int64(0))

	close(block)
	require.NoError(t, pool.Stop(time.Second))
}

func TestPoolCountsFailures(t *testing.T) {
	pool := NewPool(1, 4, func(_ context.Context, fail bool) error {
		if fail {
			return assert.AnError
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))

	require.NoError(t, pool.Submit(true))
	require.NoError(t, pool.Submit(false))
	require.NoError(t, pool.Stop(time.Second))

	stats := pool.Stats()
	assert.Equal(t, int64(2), stats.Processed)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestPoolStopIdempotent(t *testing.T) {
	pool := NewPool(1, 4, func(_ context.Context, _ int) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, pool.Start(ctx))
	require.NoError(t, pool.Stop(time.Second))
	require.NoError(t, pool.Stop(time.Second))
	assert.ErrorIs(t, pool.Submit(1), ErrPoolStopped)
}

func TestNilProcessorPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewPool[int](1, 4, nil)
	})
}
