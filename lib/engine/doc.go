// Package engine provides the in-memory storage engine that test runs are
// driven against.
//
// A Session is a sharded concurrent hash map for one key type and one value
// type. Keys are routed to a shard by their hash; every shard is an
// xsync.MapOf so reads are lock-free and writes lock a single bucket.
//
// Operations:
//
//   - Read: returns the value stored for a key, if any.
//   - Upsert: inserts or overwrites the value of a key.
//   - RMW: atomically replaces the value of a key with the result of an
//     updater that sees the old value (or its absence).
//
// A Session belongs to exactly one test run and is closed when the run ends.
//
// Thread Safety:
//
//	All operations are safe for concurrent use. Info samples the shards
//	concurrently and may run while workers are active, in which case its
//	numbers are estimates.
package engine
