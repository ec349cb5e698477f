// Package types defines the core types and interfaces shared across pkglink.
// This includes the FS abstraction used by the store and link manager, and
// the Package record describing one discovered private package.
package types
