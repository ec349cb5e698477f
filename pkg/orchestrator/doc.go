// Package orchestrator keeps the build tree in step with the source tree.
//
// It owns the package store and reacts to classified change events one at a
// time. Every handler follows the same pattern: compute the new top-level,
// dependency or used sets, diff them against the store, apply only the
// difference to the build tree and the watches, then record the new state.
// Changes the incremental model cannot express precisely (packages appearing,
// disappearing or being renamed) fall back to a full reinitialization.
//
// The orchestrator is a single writer and is not safe for concurrent use;
// Run serializes events from a channel.
package orchestrator
