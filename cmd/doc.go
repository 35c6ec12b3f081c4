// Package cmd implements the command-line interface of kvperf. Called
// without a subcommand it runs a benchmark sweep.
//
// The package is organized into several subpackages:
//
//   - sweep: Flags and execution of a benchmark sweep (the root command)
//   - compare: Comparison of two result files
//   - merge: Union or intersection of result files
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvperf -help for a list of all commands.
package cmd
