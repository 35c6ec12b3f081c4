// Package results holds the results of a sweep and implements the result
// algebra: persistence, merge (union or intersection) and comparison.
//
// A TestResults collection is an ordered multiset of results. Two results
// with identical TestInputs are duplicates; they are never merged silently.
//
// Result files hold an envelope with a format version and the list of
// results. The codec is chosen by file extension (see package serializer).
package results
