// Package testutil provides fixtures and assertions for pkglink tests.
//
// Key components:
//   - Project: a temporary project with a manifest, a source tree and a
//     build root on the real filesystem
//   - Descriptor: renders a package.js for a name and dependency list
//   - Assert*: build tree assertions built on testify
//
// Tests that only scan metadata should prefer filesystem.NewMemory; link
// and orchestrator tests need real symlinks and use Project.
package testutil
