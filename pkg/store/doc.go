// Package store holds the metadata of every private package discovered under
// the source root: names, dependency edges and the top-level and used flags.
//
// A Store is built by Load, queried with predicates and mutated only through
// the closed set of patches in this package. It is not safe for concurrent
// mutation; the orchestrator is its single writer.
package store
