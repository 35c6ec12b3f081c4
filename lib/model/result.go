package model

import (
	"github.com/ValentinKolb/kvperf/lib/util"
)

// Status tells whether all workers of a run finished cleanly.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed" // at least one worker fault was reported
)

// Rate is a count of operations performed in a measured interval.
type Rate struct {
	Count     int64   `json:"count" yaml:"count"`
	ElapsedNs int64   `json:"elapsed_ns" yaml:"elapsed_ns"`
	OpsPerSec float64 `json:"ops_per_sec" yaml:"ops_per_sec"`
}

// NewRate computes the throughput of count operations over elapsedNs.
func NewRate(count, elapsedNs int64) Rate {
	r := Rate{Count: count, ElapsedNs: elapsedNs}
	if elapsedNs > 0 {
		r.OpsPerSec = float64(count) * 1e9 / float64(elapsedNs)
	}
	return r
}

// OpCounts counts operations by type.
type OpCounts struct {
	Reads    int64 `json:"reads" yaml:"reads"`
	ReadHits int64 `json:"read_hits" yaml:"read_hits"`
	Upserts  int64 `json:"upserts" yaml:"upserts"`
	RMWs     int64 `json:"rmws" yaml:"rmws"`
	Failed   int64 `json:"failed" yaml:"failed"`
}

// Total returns the number of completed operations.
func (c OpCounts) Total() int64 {
	return c.Reads + c.Upserts + c.RMWs
}

// Add sums two counters.
func (c OpCounts) Add(o OpCounts) OpCounts {
	return OpCounts{
		Reads:    c.Reads + o.Reads,
		ReadHits: c.ReadHits + o.ReadHits,
		Upserts:  c.Upserts + o.Upserts,
		RMWs:     c.RMWs + o.RMWs,
		Failed:   c.Failed + o.Failed,
	}
}

// IterationResult is the measurement of one timed iteration.
type IterationResult struct {
	Rate   `yaml:",inline"`
	Counts OpCounts `json:"counts" yaml:"counts"`
}

// Latency summarizes sampled per-operation latencies.
type Latency struct {
	Samples int64   `json:"samples" yaml:"samples"`
	MeanNs  float64 `json:"mean_ns" yaml:"mean_ns"`
	P50Ns   float64 `json:"p50_ns" yaml:"p50_ns"`
	P90Ns   float64 `json:"p90_ns" yaml:"p90_ns"`
	P99Ns   float64 `json:"p99_ns" yaml:"p99_ns"`
}

// EngineInfo is the state of the engine session after the last iteration.
type EngineInfo struct {
	Records             int     `json:"records" yaml:"records"`
	Shards              int     `json:"shards" yaml:"shards"`
	DistributionQuality float64 `json:"distribution_quality" yaml:"distribution_quality"`
	AvgValueBytes       int     `json:"avg_value_bytes" yaml:"avg_value_bytes"`
}

// TestResult is the outcome of one test run.
type TestResult struct {
	Inputs   TestInputs `json:"inputs" yaml:"inputs"`
	RunID    string     `json:"run_id" yaml:"run_id"`
	Strategy string     `json:"strategy" yaml:"strategy"`
	Status   Status     `json:"status" yaml:"status"`
	Errors   []string   `json:"errors,omitempty" yaml:"errors,omitempty"`

	InitialInserts Rate              `json:"initial_inserts" yaml:"initial_inserts"`
	Iterations     []IterationResult `json:"iterations" yaml:"iterations"`
	OpsPerSec      util.Stats        `json:"ops_per_sec" yaml:"ops_per_sec"`
	Totals         OpCounts          `json:"totals" yaml:"totals"`
	Latency        Latency           `json:"latency" yaml:"latency"`
	Engine         EngineInfo        `json:"engine" yaml:"engine"`

	// ElapsedNs covers the whole run including key and value generation.
	ElapsedNs int64 `json:"elapsed_ns" yaml:"elapsed_ns"`
}

// Failed reports whether a worker fault was recorded for the run.
func (r *TestResult) Failed() bool {
	return r.Status == StatusFailed
}
