// Package filesystem provides filesystem implementations for pkglink.
//
// This package contains implementations of the types.FS interface: the
// standard OS filesystem and an afero-backed one used for in-memory scans.
// NewGuardedOS is what the CLI runs with: it refuses removals that would
// reach the source root or the .meteor directory.
package filesystem
