// Package links performs the physical side of synchronization: copying
// package sources into the build tree and maintaining one symlink per private
// dependency edge inside each package's nested dependency directory.
//
// Every operation takes the store it should read package metadata from.
// Operations are idempotent; filesystem failures are returned as
// FILESYSTEM errors and are never retried.
package links
