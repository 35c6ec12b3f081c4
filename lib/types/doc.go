// Package types implements the record encodings a test run can use for its
// keys and values, and the managers that create, hash, modify and consume them.
//
// Encodings:
//
//   - Fixed8 ... Fixed256: fixed-width inline records. Every width is its own
//     array type so the engine stores them by value and the workload loop is
//     instantiated per exact width without any runtime branching.
//
//   - VarLen: a variable-length record. Its length is derived from the record
//     id and bounded by the configured size.
//
//   - ObjectKey / ObjectValue: records holding an Object that is serialized
//     on every write and deserialized on every read, so the serialization
//     cost is part of the measurement.
//
// Managers:
//
//	KeyManager[K] creates keys for logical ids and provides the hash used by
//	the engine (equality is Go's == on the comparable key type).
//	ValueManager[V] creates values, computes read-modify-write updates and
//	consumes values read from the engine.
//
// Managers are configured explicitly with the sizes of the current run; there
// is no process-wide size setting.
package types
