package engine

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/kvperf/lib/util"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("engine")

// samplesPerShard is the number of entries Info inspects per shard
const samplesPerShard = 100

// Hasher hashes a key combined with a seed.
type Hasher[K comparable] func(key K, seed uint64) uint64

// Options configures a Session.
type Options struct {
	NumShards int // Number of shards (<= 0 = number of CPUs)
}

// DefaultOptions returns the default Session options
func DefaultOptions() *Options {
	return &Options{
		NumShards: runtime.NumCPU(),
	}
}

// shard is one partition of a Session
type shard[K comparable, V any] struct {
	data *xsync.MapOf[K, V]
}

// Session is an engine instance holding values of type V under keys of type K.
type Session[K comparable, V any] struct {
	seed   uint64
	hash   Hasher[K]
	shards []*shard[K, V]
	closed atomic.Bool
}

// NewSession creates an empty session. hash must be consistent with == on K.
func NewSession[K comparable, V any](hash Hasher[K], opts *Options) *Session[K, V] {
	if opts == nil {
		opts = DefaultOptions()
	}
	numShards := opts.NumShards
	if numShards <= 0 {
		numShards = runtime.NumCPU()
	}

	shards := make([]*shard[K, V], numShards)
	for i := range shards {
		shards[i] = &shard[K, V]{
			data: xsync.NewMapOfWithHasher[K, V](hash),
		}
	}

	Logger.Debugf("created session with %d shards", numShards)

	return &Session[K, V]{
		seed:   util.GenerateSeed(),
		hash:   hash,
		shards: shards,
	}
}

// getShard routes a key to its shard.
// The hash is shifted right by 7 bits to use higher-quality bits for distribution.
func (s *Session[K, V]) getShard(key K) *shard[K, V] {
	h := s.hash(key, s.seed) >> 7
	return s.shards[h%uint64(len(s.shards))]
}

// Read returns the value stored for key.
func (s *Session[K, V]) Read(key K) (V, bool) {
	return s.getShard(key).data.Load(key)
}

// Upsert stores value under key, replacing any previous value.
func (s *Session[K, V]) Upsert(key K, value V) {
	s.getShard(key).data.Store(key, value)
}

// RMW atomically replaces the value of key with fn(old, loaded). loaded is
// false if the key did not exist, in which case old is the zero value.
// It returns the stored value.
//
// If fn panics the record is left unchanged and the panic is raised again
// once the shard bucket is unlocked.
func (s *Session[K, V]) RMW(key K, fn func(old V, loaded bool) V) V {
	var fault any
	v, _ := s.getShard(key).data.Compute(key, func(old V, loaded bool) (next V, del bool) {
		defer func() {
			if p := recover(); p != nil {
				// keep the old value; deleting a missing key is a no-op
				fault, next, del = p, old, !loaded
			}
		}()
		return fn(old, loaded), false
	})
	if fault != nil {
		panic(fault)
	}
	return v
}

// Len returns the number of stored records.
func (s *Session[K, V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.data.Size()
	}
	return n
}

// NumShards returns the number of shards.
func (s *Session[K, V]) NumShards() int {
	return len(s.shards)
}

// Info describes the content of a session.
type Info struct {
	Records           int                    `json:"records"`
	Shards            int                    `json:"shards"`
	ShardDistribution util.DistributionStats `json:"shard_distribution"`
	AvgValueBytes     int                    `json:"avg_value_bytes"`
	MedianValueBytes  int                    `json:"median_value_bytes"`
}

// Info samples every shard concurrently. valueSize reports the size of one
// value; all size figures are estimates.
func (s *Session[K, V]) Info(valueSize func(V) int) Info {
	histogram := util.NewSizeHistogram()
	shardSizes := make([]float64, len(s.shards))

	var wg sync.WaitGroup
	wg.Add(len(s.shards))
	for i, sh := range s.shards {
		go func(i int, sh *shard[K, V]) {
			defer wg.Done()
			count := 0
			sh.data.Range(func(_ K, v V) bool {
				histogram.AddSample(valueSize(v))
				count++
				return count < samplesPerShard
			})
			shardSizes[i] = float64(sh.data.Size())
		}(i, sh)
	}
	wg.Wait()

	records := 0
	for _, n := range shardSizes {
		records += int(n)
	}

	return Info{
		Records:           records,
		Shards:            len(s.shards),
		ShardDistribution: util.NewDistributionStats(shardSizes),
		AvgValueBytes:     histogram.AverageSize(),
		MedianValueBytes:  histogram.MedianEstimate(),
	}
}

// Close drops all records. Closing twice is a no-op.
func (s *Session[K, V]) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, sh := range s.shards {
		sh.data.Clear()
	}
	Logger.Debugf("closed session")
	return nil
}
