// Package sweep expands a parameter specification into the ordered list of
// test runs to execute.
//
// Every configuration dimension of a run (see model.TestInputs) is bound to
// a Dimension: either unset (the base value is used), a single value, a list
// of candidates, or for integer dimensions a range:
//
//	key_size: [8, 64]
//	value_size: 16
//	threads: {from: 1, to: 16, mult: 2}
//	init_keys: {from: 100000, to: 300000, step: 100000}
//	mix: ["90/10/0", "50/25/25"]
//
// GetParamSweeps produces the Cartesian product of all dimensions, iterating
// them outer to inner in the order of Fields. The expansion is deterministic
// and an empty candidate list in any dimension yields an empty sweep.
package sweep
