// Package util provides small building blocks shared by the engine and the
// test runner.
//
// The package contains:
//   - statistics: Stats over a series of measurements, DistributionStats for
//     judging how evenly records are spread over engine shards, and a
//     SizeHistogram for estimating record sizes without a full scan
//   - functions: seed generation for the engine hash functions
//   - mpsc: a lock-free Multi-Producer Single-Consumer (MPSC) queue used by
//     benchmark workers to report their outcome to the run coordinator
package util
