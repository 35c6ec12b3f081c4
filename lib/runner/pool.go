package runner

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// Pool runs the workers of all test runs of a sweep.
type Pool struct {
	pool       *ants.Pool
	unobserved atomic.Int64
}

// NewPool creates a worker pool with room for at least minSize workers and
// never less than twice the number of logical CPUs.
func NewPool(minSize int) (*Pool, error) {
	p := &Pool{}
	size := max(2*runtime.NumCPU(), minSize)

	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(v any) {
		p.unobserved.Add(1)
		Logger.Errorf("unobserved worker panic: %v", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	p.pool = pool
	return p, nil
}

// Submit schedules task. It blocks while all workers are busy.
func (p *Pool) Submit(task func()) error {
	return p.pool.Submit(task)
}

// Ensure grows the pool so n tasks can run at the same time.
func (p *Pool) Ensure(n int) {
	if p.pool.Cap() < n {
		Logger.Debugf("growing worker pool from %d to %d", p.pool.Cap(), n)
		p.pool.Tune(n)
	}
}

// Cap returns the pool capacity.
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Unobserved returns the number of panics that escaped a worker's own
// fault handling and were caught by the pool.
func (p *Pool) Unobserved() int64 {
	return p.unobserved.Load()
}

// Close releases all pool goroutines.
func (p *Pool) Close() {
	p.pool.Release()
}
