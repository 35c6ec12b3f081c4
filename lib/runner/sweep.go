package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/ValentinKolb/kvperf/lib/results"
)

// ConfigErrorPolicy decides how a sweep handles a run whose inputs cannot
// be configured.
type ConfigErrorPolicy string

const (
	PolicySkip  ConfigErrorPolicy = "skip"  // log the error and continue with the next run
	PolicyAbort ConfigErrorPolicy = "abort" // stop the sweep and return the error
)

// ParseConfigErrorPolicy converts a policy name (case-insensitive).
func ParseConfigErrorPolicy(s string) (ConfigErrorPolicy, error) {
	switch p := ConfigErrorPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySkip, PolicyAbort:
		return p, nil
	}
	return "", fmt.Errorf("invalid config error policy %q (expected one of: skip, abort)", s)
}

// Orchestrator executes the runs of a sweep strictly one after another.
type Orchestrator struct {
	Pool        *Pool
	Metrics     *Metrics
	Policy      ConfigErrorPolicy
	Out         io.Writer // progress output, nil discards it
	PrintInputs bool      // print the inputs of every run
}

// Summary describes a finished sweep.
type Summary struct {
	Planned     int
	Completed   int
	Failed      int   // completed with worker faults
	Skipped     int   // rejected by configuration
	Unobserved  int64 // worker panics caught by the pool instead of the run
	Interrupted bool
	Elapsed     time.Duration
}

// Run executes runs in order and collects their results. If ctx is
// canceled the current run is dropped, the sweep stops, and the results
// completed so far are returned without error.
//
// Under PolicySkip the sweep still fails if every run was rejected.
func (o *Orchestrator) Run(ctx context.Context, runs []model.TestInputs) (*results.TestResults, Summary, error) {
	out := o.Out
	if out == nil {
		out = io.Discard
	}

	var (
		collected = results.New()
		summary   = Summary{Planned: len(runs)}
		started   = time.Now()
		unobs     = o.Pool.Unobserved()
		cfgErr    error
	)
	finish := func() {
		summary.Elapsed = time.Since(started)
		summary.Unobserved = o.Pool.Unobserved() - unobs
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No tests were run")
		return collected, summary, nil
	}

	for i, in := range runs {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		fmt.Fprintf(out, "Test %d of %d\n", i+1, len(runs))
		if o.PrintInputs {
			fmt.Fprintf(out, "  %s\n", in)
		}

		run, err := NewTestRun(in, o.Pool, o.Metrics)
		if err != nil {
			o.Metrics.runSkipped()
			summary.Skipped++
			Logger.Errorf("test %d: %v", i+1, err)
			if cfgErr == nil {
				cfgErr = fmt.Errorf("test %d: %w", i+1, err)
			}
			if o.Policy == PolicyAbort {
				finish()
				return collected, summary, fmt.Errorf("test %d: %w", i+1, err)
			}
			continue
		}

		res, err := run.Execute(ctx)
		if errors.Is(err, ErrInterrupted) {
			Logger.Warningf("test %d interrupted, result dropped", i+1)
			summary.Interrupted = true
			break
		}
		if err != nil {
			finish()
			return collected, summary, fmt.Errorf("test %d: %w", i+1, err)
		}

		collected.Add(res)
		summary.Completed++
		if res.Failed() {
			summary.Failed++
			fmt.Fprintf(out, "  %s: FAILED (%d worker faults)\n", res.Strategy, len(res.Errors))
		} else {
			fmt.Fprintf(out, "  %s: %.0f ops/sec (initial inserts %.0f ops/sec)\n",
				res.Strategy, res.OpsPerSec.Mean, res.InitialInserts.OpsPerSec)
		}
	}

	finish()
	if summary.Completed == 0 && summary.Skipped > 0 && !summary.Interrupted {
		return collected, summary, fmt.Errorf("all %d tests were rejected: %w", summary.Skipped, cfgErr)
	}
	return collected, summary, nil
}

// MaxThreads returns the highest thread count of runs.
func MaxThreads(runs []model.TestInputs) int {
	n := 0
	for _, in := range runs {
		n = max(n, in.ThreadCount)
	}
	return n
}
