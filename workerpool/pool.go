package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned when a task is submitted after Shutdown.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Executor runs submitted tasks asynchronously.
type Executor interface {
	// Submit schedules task for execution. It returns an error when the task
	// will never run.
	Submit(task func()) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func()) error

// Submit calls f(task).
func (f ExecutorFunc) Submit(task func()) error { return f(task) }

// Config configures a Pool.
type Config struct {
	// MaxWorkers bounds the number of concurrently running tasks.
	// Zero or negative means unbounded: every task gets its own goroutine.
	MaxWorkers int `yaml:"max_workers" mapstructure:"max_workers"`
}

// Pool is an Executor backed by an errgroup.
//
// An unbounded pool behaves like a cached thread pool: goroutines are created
// on demand and nothing queues. A bounded pool blocks Submit until a worker
// slot is free or the pool is shut down.
type Pool struct {
	config Config
	group  errgroup.Group
	// freed receives a token whenever a task of a bounded pool finishes.
	freed chan struct{}

	mu     sync.RWMutex
	closed bool

	inFlight  atomic.Int64
	completed atomic.Uint64
}

var _ Executor = (*Pool)(nil)

// New creates a Pool.
func New(cfg Config) *Pool {
	p := &Pool{config: cfg}
	if cfg.MaxWorkers > 0 {
		p.group.SetLimit(cfg.MaxWorkers)
		p.freed = make(chan struct{}, cfg.MaxWorkers)
	}
	return p
}

// Submit schedules task on the pool. It blocks while a bounded pool is full
// and returns ErrPoolClosed once Shutdown has been called, including while
// it waits for a slot. The lock is never held while waiting, so tasks may
// submit further tasks.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return errors.New("workerpool: nil task")
	}

	run := func() error {
		defer func() {
			p.inFlight.Add(-1)
			p.completed.Add(1)
			p.release()
		}()
		task()
		return nil
	}

	for {
		started, err := p.tryStart(run)
		if err != nil || started {
			return err
		}
		<-p.freed
	}
}

// tryStart starts run if the pool is open and has a free slot. Go is only
// called under the read lock, so it cannot race with Wait in Shutdown.
func (p *Pool) tryStart(run func() error) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false, ErrPoolClosed
	}
	p.inFlight.Add(1)
	if !p.group.TryGo(run) {
		p.inFlight.Add(-1)
		return false, nil
	}
	return true, nil
}

func (p *Pool) release() {
	if p.freed == nil {
		return
	}
	select {
	case p.freed <- struct{}{}:
	default:
	}
}

// InFlight returns the number of tasks currently running.
func (p *Pool) InFlight() int64 {
	return p.inFlight.Load()
}

// Completed returns the number of tasks that have finished.
func (p *Pool) Completed() uint64 {
	return p.completed.Load()
}

// MaxWorkers returns the configured bound, zero when unbounded.
func (p *Pool) MaxWorkers() int {
	if p.config.MaxWorkers < 0 {
		return 0
	}
	return p.config.MaxWorkers
}

// Closed reports whether Shutdown has been called.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Shutdown stops accepting tasks and waits for running tasks to finish or
// for ctx to be done, whichever comes first.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
