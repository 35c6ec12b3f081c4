package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/ValentinKolb/kvperf/lib/util"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("runner")

// ErrInterrupted is returned by Execute when the context was canceled
// before the run finished.
var ErrInterrupted = errors.New("test run interrupted")

// TestRun is one concrete execution of a resolved TestInputs.
type TestRun struct {
	Inputs   model.TestInputs
	Strategy Strategy

	pool    *Pool
	metrics *Metrics
}

// NewTestRun validates in and resolves its encoding pair. Every error
// returned is a *model.ConfigError.
func NewTestRun(in model.TestInputs, pool *Pool, metrics *Metrics) (*TestRun, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	strategy, err := Resolve(in)
	if err != nil {
		return nil, err
	}
	return &TestRun{
		Inputs:   in,
		Strategy: strategy,
		pool:     pool,
		metrics:  metrics,
	}, nil
}

// Execute runs the workload and returns its result. Worker faults do not
// fail Execute; they mark the result as failed. If ctx is canceled the
// partial result is dropped and the error matches ErrInterrupted.
func (r *TestRun) Execute(ctx context.Context) (*model.TestResult, error) {
	Logger.Debugf("executing %s: %s", r.Strategy.Name(), r.Inputs)

	res, err := r.Strategy.run(ctx, r)
	if err != nil {
		if errors.Is(err, ErrInterrupted) {
			r.metrics.runInterrupted()
		}
		return nil, err
	}

	r.metrics.observeRun(res)
	return res, nil
}

// --------------------------------------------------------------------------
// Worker coordination
// --------------------------------------------------------------------------

// workerOutcome is what a worker reports back to the run coordinator.
type workerOutcome struct {
	thread      int
	planned     int64
	counts      model.OpCounts
	digest      uint64
	interrupted bool
	err         error
}

// runWorkers starts n workers on the pool, releases them at the same time
// and waits for all of them. A worker panic is recovered and reported as
// the outcome's err. The returned duration spans release to last finish.
func (r *TestRun) runWorkers(n int, work func(thread int, out *workerOutcome)) (time.Duration, []*workerOutcome, error) {
	r.pool.Ensure(n)

	var (
		queue = util.NewMPSCQueue[workerOutcome]()
		start = make(chan struct{})
		wg    sync.WaitGroup
	)

	wg.Add(n)
	for t := 0; t < n; t++ {
		t := t
		err := r.pool.Submit(func() {
			out := &workerOutcome{thread: t}
			defer func() {
				if p := recover(); p != nil {
					out.err = fmt.Errorf("worker %d: panic: %v", t, p)
					out.counts.Failed = out.planned - out.counts.Total()
				}
				queue.Push(out)
				wg.Done()
			}()
			<-start
			work(t, out)
		})
		if err != nil {
			// release the workers already submitted
			wg.Add(t - n)
			close(start)
			wg.Wait()
			queue.Drain()
			return 0, nil, fmt.Errorf("failed to submit worker %d: %w", t, err)
		}
	}

	begin := time.Now()
	close(start)
	wg.Wait()
	elapsed := time.Since(begin)

	return elapsed, queue.Drain(), nil
}

// collect sums the outcomes of one phase into counts and records faults on res.
// It reports whether any worker was interrupted.
func collect(res *model.TestResult, phase string, outcomes []*workerOutcome) (counts model.OpCounts, digest uint64, interrupted bool) {
	for _, out := range outcomes {
		counts = counts.Add(out.counts)
		digest ^= out.digest
		if out.interrupted {
			interrupted = true
		}
		if out.err != nil {
			Logger.Errorf("%s: %s: %v", res.Strategy, phase, out.err)
			res.Status = model.StatusFailed
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", phase, out.err))
		}
	}
	return counts, digest, interrupted
}
