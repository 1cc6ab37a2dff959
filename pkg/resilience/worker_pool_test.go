package resilience

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolExecutesJobs(t *testing.T) {
	pool := NewWorkerPool(3, 6)

	var count int32
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(context.Background(), func() {
			atomic.AddInt32(&count, 1)
		}))
	}

	pool.Close()
	pool.Wait()

	assert.Equal(t, int32(10), atomic.LoadInt32(&count))
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	pool.Close()
	assert.ErrorIs(t, pool.Submit(context.Background(), func() {}), ErrWorkerPoolClosed)
	assert.ErrorIs(t, pool.TryDispatch(func() {}), ErrWorkerPoolClosed)
}

func TestWorkerPoolTryDispatchDropsWhenFull(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, pool.TryDispatch(func() {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, pool.TryDispatch(func() {}))

	assert.ErrorIs(t, pool.TryDispatch(func() {}), ErrWorkerPoolFull)
	assert.Equal(t, uint64(1), pool.Dropped())

	close(release)
	pool.Close()
	pool.Wait()
}

func TestWorkerPoolSubmitHonoursContext(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(context.Background(), func() {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, pool.Submit(context.Background(), func() {}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pool.Submit(ctx, func() {}), context.Canceled)

	close(release)
	pool.Close()
	pool.Wait()
}
