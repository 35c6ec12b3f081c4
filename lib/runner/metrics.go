package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/kvperf/lib/model"
	vm "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// --------------------------------------------------------------------------
// Sweep metrics (Prometheus exposition)
// --------------------------------------------------------------------------

// Metrics collects sweep-level counters. A nil *Metrics discards everything.
type Metrics struct {
	set *vm.Set

	runsCompleted   *vm.Counter
	runsFailed      *vm.Counter
	runsSkipped     *vm.Counter
	runsInterrupted *vm.Counter
	runDuration     *vm.Histogram
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	set := vm.NewSet()
	return &Metrics{
		set:             set,
		runsCompleted:   set.NewCounter("kvperf_runs_completed_total"),
		runsFailed:      set.NewCounter("kvperf_runs_failed_total"),
		runsSkipped:     set.NewCounter("kvperf_runs_skipped_total"),
		runsInterrupted: set.NewCounter("kvperf_runs_interrupted_total"),
		runDuration:     set.NewHistogram("kvperf_run_duration_seconds"),
	}
}

func (m *Metrics) observeRun(res *model.TestResult) {
	if m == nil {
		return
	}
	m.runsCompleted.Inc()
	if res.Failed() {
		m.runsFailed.Inc()
	}
	m.runDuration.Update(time.Duration(res.ElapsedNs).Seconds())

	ops := m.set.GetOrCreateCounter(fmt.Sprintf(`kvperf_operations_total{strategy=%q}`, res.Strategy))
	ops.Add(int(res.Totals.Total()))

	throughput := m.set.GetOrCreateHistogram(fmt.Sprintf(`kvperf_iteration_ops_per_second{strategy=%q}`, res.Strategy))
	for _, it := range res.Iterations {
		throughput.Update(it.OpsPerSec)
	}
}

func (m *Metrics) runSkipped() {
	if m != nil {
		m.runsSkipped.Inc()
	}
}

func (m *Metrics) runInterrupted() {
	if m != nil {
		m.runsInterrupted.Inc()
	}
}

// WritePrometheus writes all metrics in Prometheus text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	if m != nil {
		m.set.WritePrometheus(w)
	}
}

// --------------------------------------------------------------------------
// Per-run latency sampling
// --------------------------------------------------------------------------

// latencyReservoir is the sample size kept per worker
const latencyReservoir = 1028

// latencyRecorder keeps one latency histogram per worker thread.
type latencyRecorder struct {
	registry gometrics.Registry
	workers  []gometrics.Histogram
}

func newLatencyRecorder(threads int) *latencyRecorder {
	r := &latencyRecorder{
		registry: gometrics.NewRegistry(),
		workers:  make([]gometrics.Histogram, threads),
	}
	for t := range r.workers {
		name := fmt.Sprintf("worker.%d.latency_ns", t)
		r.workers[t] = gometrics.GetOrRegisterHistogram(name, r.registry, gometrics.NewUniformSample(latencyReservoir))
	}
	return r
}

// worker returns the histogram of thread t.
func (r *latencyRecorder) worker(t int) gometrics.Histogram {
	return r.workers[t]
}

// summary merges the samples of all workers.
func (r *latencyRecorder) summary() model.Latency {
	var (
		count  int64
		values []int64
	)
	r.registry.Each(func(_ string, m interface{}) {
		if h, ok := m.(gometrics.Histogram); ok {
			count += h.Count()
			values = append(values, h.Sample().Values()...)
		}
	})
	if len(values) == 0 {
		return model.Latency{}
	}

	ps := gometrics.SamplePercentiles(values, []float64{0.5, 0.9, 0.99})
	return model.Latency{
		Samples: count,
		MeanNs:  gometrics.SampleMean(values),
		P50Ns:   ps[0],
		P90Ns:   ps[1],
		P99Ns:   ps[2],
	}
}
