package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kvperf/lib/util"
)

func intHasher(key uint64, seed uint64) uint64 {
	return util.MixSeed(key ^ seed)
}

func newTestSession(shards int) *Session[uint64, int] {
	return NewSession[uint64, int](intHasher, &Options{NumShards: shards})
}

func TestSession(t *testing.T) {
	t.Run("Upsert&Read", func(t *testing.T) {
		s := newTestSession(4)
		defer s.Close()

		if _, ok := s.Read(1); ok {
			t.Error("expected missing key")
		}
		s.Upsert(1, 10)
		s.Upsert(1, 11)

		v, ok := s.Read(1)
		if !ok || v != 11 {
			t.Errorf("Read(1) = %d, %v; want 11, true", v, ok)
		}
		if s.Len() != 1 {
			t.Errorf("Len() = %d, want 1", s.Len())
		}
	})

	t.Run("RMW", func(t *testing.T) {
		s := newTestSession(2)
		defer s.Close()

		inc := func(old int, loaded bool) int {
			if !loaded {
				return 100
			}
			return old + 1
		}

		if got := s.RMW(5, inc); got != 100 {
			t.Errorf("RMW on missing key = %d, want 100", got)
		}
		if got := s.RMW(5, inc); got != 101 {
			t.Errorf("RMW on existing key = %d, want 101", got)
		}
	})

	t.Run("ConcurrentRMW", func(t *testing.T) {
		s := newTestSession(8)
		defer s.Close()

		const workers, perWorker = 8, 1000
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					s.RMW(uint64(i%10), func(old int, _ bool) int { return old + 1 })
				}
			}()
		}
		wg.Wait()

		total := 0
		for k := uint64(0); k < 10; k++ {
			v, _ := s.Read(k)
			total += v
		}
		if total != workers*perWorker {
			t.Errorf("lost updates: total = %d, want %d", total, workers*perWorker)
		}
	})

	t.Run("RMWPanic", func(t *testing.T) {
		s := newTestSession(1)
		defer s.Close()
		s.Upsert(1, 10)

		mustPanic := func(key uint64) {
			t.Helper()
			defer func() {
				if p := recover(); p != "corrupted" {
					t.Errorf("recovered %v, want the callback panic", p)
				}
			}()
			s.RMW(key, func(int, bool) int { panic("corrupted") })
		}
		mustPanic(1)
		mustPanic(2)

		if v, _ := s.Read(1); v != 10 {
			t.Errorf("value changed by failed RMW: %d", v)
		}
		if _, ok := s.Read(2); ok {
			t.Error("failed RMW created a record")
		}

		// the bucket must be usable from other goroutines afterwards
		done := make(chan int)
		go func() { done <- s.RMW(1, func(old int, _ bool) int { return old + 1 }) }()
		select {
		case v := <-done:
			if v != 11 {
				t.Errorf("RMW after panic = %d, want 11", v)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("shard bucket still locked after a panicking RMW")
		}
	})

	t.Run("DefaultShards", func(t *testing.T) {
		s := NewSession[uint64, int](intHasher, &Options{NumShards: 0})
		defer s.Close()
		if s.NumShards() < 1 {
			t.Errorf("NumShards() = %d", s.NumShards())
		}
	})

	t.Run("Info", func(t *testing.T) {
		s := newTestSession(4)
		for i := uint64(0); i < 1000; i++ {
			s.Upsert(i, int(i))
		}

		info := s.Info(func(int) int { return 8 })
		if info.Records != 1000 {
			t.Errorf("Records = %d, want 1000", info.Records)
		}
		if info.Shards != 4 {
			t.Errorf("Shards = %d, want 4", info.Shards)
		}
		if info.AvgValueBytes != 8 {
			t.Errorf("AvgValueBytes = %d, want 8", info.AvgValueBytes)
		}
		if q := info.ShardDistribution.DistributionQuality; q <= 0 || q > 1 {
			t.Errorf("DistributionQuality = %f out of range", q)
		}

		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		if s.Len() != 0 {
			t.Errorf("Len() after Close = %d", s.Len())
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close: %v", err)
		}
	})
}

func BenchmarkSession(b *testing.B) {
	b.Run("Upsert", func(b *testing.B) {
		s := newTestSession(8)
		defer s.Close()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			s.Upsert(uint64(i), i)
		}
	})

	b.Run("Read", func(b *testing.B) {
		s := newTestSession(8)
		defer s.Close()
		for i := 0; i < 10000; i++ {
			s.Upsert(uint64(i), i)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			s.Read(uint64(i % 10000))
		}
	})

	b.Run("RMWParallel", func(b *testing.B) {
		s := newTestSession(8)
		defer s.Close()
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			i := uint64(0)
			for pb.Next() {
				s.RMW(i%1024, func(old int, _ bool) int { return old + 1 })
				i++
			}
		})
	})
}
