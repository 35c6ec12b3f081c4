// Package model holds the data model shared by every part of kvperf:
// the inputs describing one test run, the result measured for it, and the
// configuration errors raised when inputs cannot be turned into a run.
//
// Key Components:
//
//   - TestInputs: An immutable, comparable description of one run. Because it
//     only contains scalar fields it is used directly as the identity of a
//     result when result sets are merged or compared.
//
//   - DataKind: The representation of a key or value (fixed-width inline
//     record, variable-length record, or serialized object record).
//
//   - FixedWidths: The closed set of byte widths supported for fixed-width
//     records. Any other width is a configuration error.
//
//   - TestResult: The inputs plus everything measured while running them.
//
// All types in this package are plain values. Nothing here is mutated after
// its constructing phase has finished.
package model
