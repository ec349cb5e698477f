// Package paths resolves the three locations pkglink works with: the project
// manifest, the private package source root and the build root.
//
// Each location is taken from the first of: command line flag, configuration
// file, legacy Meteor environment variable, built-in default. Relative paths
// are resolved against the project root, the nearest directory containing a
// .meteor directory, or the working directory when there is none.
//
// # Environment Variables
//
//   - METEOR_PRIVATE_PACKAGE_DIRS: source root
//   - METEOR_PACKAGE_DIRS: build root, and source root when the former is unset
//
// Both may hold a path list; only the first entry is used.
package paths
