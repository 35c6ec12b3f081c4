package runner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ValentinKolb/kvperf/lib/engine"
	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/ValentinKolb/kvperf/lib/types"
	"github.com/ValentinKolb/kvperf/lib/util"
	"github.com/google/uuid"
)

const (
	latencySampleEvery = 64   // every n-th operation is timed individually
	ctxCheckEvery      = 1024 // workers poll for cancellation every n operations
)

type opKind uint8

const (
	opRead opKind = iota
	opUpsert
	opRMW
)

// opStream is the pre-generated operation sequence of one worker.
type opStream struct {
	keys []uint64
	ops  []opKind
}

// newOpStreams draws the key indices and operation kinds for every thread.
// Each thread uses its own generator seeded from the run seed.
func newOpStreams(in model.TestInputs) []opStream {
	streams := make([]opStream, in.ThreadCount)
	keySpace := uint64(in.OperationKeyCount)

	for t := range streams {
		rng := rand.New(rand.NewSource(in.DistributionSeed + int64(t)*7919))

		var next func() uint64
		switch in.Distribution {
		case model.DistZipf:
			zipf := rand.NewZipf(rng, in.DistributionParameter, 1, keySpace-1)
			next = zipf.Uint64
		default:
			next = func() uint64 { return uint64(rng.Int63n(int64(keySpace))) }
		}

		s := opStream{
			keys: make([]uint64, in.OperationCount),
			ops:  make([]opKind, in.OperationCount),
		}
		for i := range s.keys {
			s.keys[i] = next()
			switch p := rng.Intn(100); {
			case p < in.ReadPercent:
				s.ops[i] = opRead
			case p < in.ReadPercent+in.UpsertPercent:
				s.ops[i] = opUpsert
			default:
				s.ops[i] = opRMW
			}
		}
		streams[t] = s
	}
	return streams
}

// workload drives one engine session with keys of type K and values of type V.
type workload[K comparable, V any] struct {
	run     *TestRun
	keys    types.KeyManager[K]
	values  types.ValueManager[V]
	session *engine.Session[K, V]
	keySet  []K
	streams []opStream
	latency *latencyRecorder
}

// execute performs a complete test run. Key generation and operation
// streams are prepared before any timed phase starts.
func execute[K comparable, V any](ctx context.Context, r *TestRun, keys types.KeyManager[K], values types.ValueManager[V]) (*model.TestResult, error) {
	in := r.Inputs
	started := time.Now()

	res := &model.TestResult{
		Inputs:   in,
		RunID:    uuid.NewString(),
		Strategy: r.Strategy.Name(),
		Status:   model.StatusOK,
	}

	w := &workload[K, V]{
		run:     r,
		keys:    keys,
		values:  values,
		session: engine.NewSession[K, V](keys.Hash, &engine.Options{NumShards: in.Shards}),
		streams: newOpStreams(in),
		latency: newLatencyRecorder(in.ThreadCount),
	}
	defer w.session.Close()

	w.keySet = make([]K, max(in.InitKeyCount, in.OperationKeyCount))
	for i := range w.keySet {
		w.keySet[i] = keys.Make(uint64(i))
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	// initial inserts
	elapsed, outcomes, err := r.runWorkers(in.ThreadCount, w.insertWorker(ctx))
	if err != nil {
		return nil, err
	}
	counts, _, interrupted := collect(res, "initial inserts", outcomes)
	if interrupted {
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}
	res.InitialInserts = model.NewRate(counts.Upserts, elapsed.Nanoseconds())
	Logger.Debugf("%s: %d initial inserts in %s", res.Strategy, counts.Upserts, elapsed)

	// timed iterations
	rates := make([]float64, 0, in.IterationCount)
	for iter := 0; iter < in.IterationCount; iter++ {
		elapsed, outcomes, err := r.runWorkers(in.ThreadCount, w.opWorker(ctx, uint64(iter)))
		if err != nil {
			return nil, err
		}
		counts, digest, interrupted := collect(res, fmt.Sprintf("iteration %d", iter), outcomes)
		if interrupted {
			return nil, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}

		it := model.IterationResult{
			Rate:   model.NewRate(counts.Total(), elapsed.Nanoseconds()),
			Counts: counts,
		}
		res.Iterations = append(res.Iterations, it)
		res.Totals = res.Totals.Add(counts)
		rates = append(rates, it.OpsPerSec)

		Logger.Debugf("%s: iteration %d: %.0f ops/sec (digest %x)", res.Strategy, iter, it.OpsPerSec, digest)
	}

	res.OpsPerSec = util.NewStats(rates)
	res.Latency = w.latency.summary()

	info := w.session.Info(values.Size)
	res.Engine = model.EngineInfo{
		Records:             info.Records,
		Shards:              info.Shards,
		DistributionQuality: info.ShardDistribution.DistributionQuality,
		AvgValueBytes:       info.AvgValueBytes,
	}
	res.ElapsedNs = time.Since(started).Nanoseconds()

	return res, nil
}

// insertWorker loads a contiguous share of the initial keys.
func (w *workload[K, V]) insertWorker(ctx context.Context) func(int, *workerOutcome) {
	threads := w.run.Inputs.ThreadCount
	total := w.run.Inputs.InitKeyCount

	return func(t int, out *workerOutcome) {
		from, to := t*total/threads, (t+1)*total/threads
		out.planned = int64(to - from)

		for i := from; i < to; i++ {
			if (i-from)%ctxCheckEvery == 0 && ctx.Err() != nil {
				out.interrupted = true
				return
			}
			w.session.Upsert(w.keySet[i], w.values.Make(uint64(i)))
			out.counts.Upserts++
		}
	}
}

// opWorker replays the operation stream of a thread.
func (w *workload[K, V]) opWorker(ctx context.Context, iter uint64) func(int, *workerOutcome) {
	return func(t int, out *workerOutcome) {
		var (
			stream = w.streams[t]
			hist   = w.latency.worker(t)
			modify = func(old V, loaded bool) V { return w.values.Modify(old, loaded, 1) }
		)
		out.planned = int64(len(stream.keys))

		for i, idx := range stream.keys {
			if i%ctxCheckEvery == 0 && ctx.Err() != nil {
				out.interrupted = true
				return
			}

			var begin time.Time
			sampled := i%latencySampleEvery == 0
			if sampled {
				begin = time.Now()
			}

			key := w.keySet[idx]
			switch stream.ops[i] {
			case opRead:
				if v, ok := w.session.Read(key); ok {
					out.digest ^= w.values.Digest(v)
					out.counts.ReadHits++
				}
				out.counts.Reads++
			case opUpsert:
				w.session.Upsert(key, w.values.Make(idx+iter))
				out.counts.Upserts++
			case opRMW:
				w.session.RMW(key, modify)
				out.counts.RMWs++
			}

			if sampled {
				hist.Update(time.Since(begin).Nanoseconds())
			}
		}
	}
}
