package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsAllTasks(t *testing.T) {
	p := New(Config{})
	var count atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(50), count.Load())
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, uint64(50), p.Completed())
}

func TestPool_BoundedLimitsConcurrency(t *testing.T) {
	p := New(Config{MaxWorkers: 2})
	var running, peak atomic.Int32

	for i := 0; i < 8; i++ {
		require.NoError(t, p.Submit(func() {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}))
	}
	require.NoError(t, p.Shutdown(context.Background()))

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 2, p.MaxWorkers())
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p := New(Config{})
	require.NoError(t, p.Shutdown(context.Background()))

	assert.True(t, p.Closed())
	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}

func TestPool_SubmitFromTaskDuringShutdown(t *testing.T) {
	p := New(Config{MaxWorkers: 1})
	release := make(chan struct{})
	nested := make(chan error, 1)
	require.NoError(t, p.Submit(func() {
		<-release
		nested <- p.Submit(func() {})
	}))

	waiting := make(chan error, 1)
	go func() { waiting <- p.Submit(func() {}) }()

	shutdown := make(chan error, 1)
	go func() { shutdown <- p.Shutdown(context.Background()) }()
	require.Eventually(t, p.Closed, time.Second, time.Millisecond)
	close(release)

	for name, ch := range map[string]chan error{"nested": nested, "waiting": waiting} {
		select {
		case err := <-ch:
			assert.ErrorIs(t, err, ErrPoolClosed, name)
		case <-time.After(2 * time.Second):
			t.Fatalf("%s Submit blocked during shutdown", name)
		}
	}
	select {
	case err := <-shutdown:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}
	assert.Equal(t, uint64(1), p.Completed())
}

func TestPool_NilTask(t *testing.T) {
	p := New(Config{})
	assert.Error(t, p.Submit(nil))
}

func TestPool_ShutdownRespectsContext(t *testing.T) {
	p := New(Config{})
	release := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)
	assert.Equal(t, int64(1), p.InFlight())

	close(release)
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int64(0), p.InFlight())
}

func TestExecutorFunc(t *testing.T) {
	var ran bool
	exec := ExecutorFunc(func(task func()) error {
		task()
		return nil
	})

	require.NoError(t, exec.Submit(func() { ran = true }))
	assert.True(t, ran)
}
