package results

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvperf/lib/model"
)

// Mode selects the metrics a comparison covers.
type Mode string

const (
	ModeThroughput Mode = "throughput" // insert rate and ops/sec
	ModeFull       Mode = "full"       // throughput plus spread, latency and elapsed time
)

// ParseMode converts a mode name (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeThroughput, ModeFull:
		return m, nil
	}
	return "", fmt.Errorf("invalid compare mode %q (expected one of: throughput, full)", s)
}

// metric extracts one comparable number from a result
type metric struct {
	name  string
	value func(*model.TestResult) float64
}

var throughputMetrics = []metric{
	{"initial_inserts_ops_per_sec", func(r *model.TestResult) float64 { return r.InitialInserts.OpsPerSec }},
	{"mean_ops_per_sec", func(r *model.TestResult) float64 { return r.OpsPerSec.Mean }},
	{"min_ops_per_sec", func(r *model.TestResult) float64 { return r.OpsPerSec.Min }},
	{"max_ops_per_sec", func(r *model.TestResult) float64 { return r.OpsPerSec.Max }},
}

var fullMetrics = append(append([]metric(nil), throughputMetrics...),
	metric{"stddev_ops_per_sec", func(r *model.TestResult) float64 { return r.OpsPerSec.StdDeviation }},
	metric{"latency_p50_ns", func(r *model.TestResult) float64 { return r.Latency.P50Ns }},
	metric{"latency_p90_ns", func(r *model.TestResult) float64 { return r.Latency.P90Ns }},
	metric{"latency_p99_ns", func(r *model.TestResult) float64 { return r.Latency.P99Ns }},
	metric{"elapsed_ns", func(r *model.TestResult) float64 { return float64(r.ElapsedNs) }},
)

func (m Mode) metrics() []metric {
	if m == ModeFull {
		return fullMetrics
	}
	return throughputMetrics
}

// Delta is the change of one metric from A to B.
type Delta struct {
	Metric   string  `json:"metric"`
	A        float64 `json:"a"`
	B        float64 `json:"b"`
	Absolute float64 `json:"absolute"`
	Relative float64 `json:"relative"` // (B-A)/A, 0 if A is 0
}

// NewDelta computes the difference between a and b.
func NewDelta(name string, a, b float64) Delta {
	d := Delta{Metric: name, A: a, B: b, Absolute: b - a}
	if a != 0 {
		d.Relative = (b - a) / a
	}
	return d
}

// Pair is one result of A matched with one result of B.
type Pair struct {
	Inputs   model.TestInputs `json:"inputs"`
	Strategy string           `json:"strategy"`
	RunA     string           `json:"run_a"`
	RunB     string           `json:"run_b"`
	Deltas   []Delta          `json:"deltas"`
}

// Comparison is the outcome of comparing two collections.
type Comparison struct {
	Mode    Mode               `json:"mode"`
	Pairs   []Pair             `json:"pairs"`
	OnlyInA []model.TestInputs `json:"only_in_a"`
	OnlyInB []model.TestInputs `json:"only_in_b"`
}

// Compare matches the results of a and b by inputs.
//
// The n-th occurrence of an input in a is paired with its n-th occurrence
// in b. Results left without partner are listed in OnlyInA or OnlyInB, in
// the order of their collection.
func Compare(a, b *TestResults, mode Mode) *Comparison {
	cmp := &Comparison{
		Mode:    mode,
		Pairs:   []Pair{},
		OnlyInA: []model.TestInputs{},
		OnlyInB: []model.TestInputs{},
	}

	pending := make(map[model.TestInputs][]*model.TestResult)
	for _, res := range b.results {
		pending[res.Inputs] = append(pending[res.Inputs], res)
	}

	matched := make(map[model.TestInputs]int)
	metrics := mode.metrics()

	for _, ra := range a.results {
		queue := pending[ra.Inputs]
		if len(queue) == 0 {
			cmp.OnlyInA = append(cmp.OnlyInA, ra.Inputs)
			continue
		}
		rb := queue[0]
		pending[ra.Inputs] = queue[1:]
		matched[ra.Inputs]++

		pair := Pair{
			Inputs:   ra.Inputs,
			Strategy: ra.Strategy,
			RunA:     ra.RunID,
			RunB:     rb.RunID,
			Deltas:   make([]Delta, 0, len(metrics)),
		}
		for _, m := range metrics {
			pair.Deltas = append(pair.Deltas, NewDelta(m.name, m.value(ra), m.value(rb)))
		}
		cmp.Pairs = append(cmp.Pairs, pair)
	}

	seen := make(map[model.TestInputs]int)
	for _, rb := range b.results {
		seen[rb.Inputs]++
		if seen[rb.Inputs] > matched[rb.Inputs] {
			cmp.OnlyInB = append(cmp.OnlyInB, rb.Inputs)
		}
	}

	return cmp
}

// Identical reports whether every pair has zero deltas and nothing is unmatched.
func (c *Comparison) Identical() bool {
	if len(c.OnlyInA) > 0 || len(c.OnlyInB) > 0 {
		return false
	}
	for _, p := range c.Pairs {
		for _, d := range p.Deltas {
			if d.Absolute != 0 {
				return false
			}
		}
	}
	return true
}
