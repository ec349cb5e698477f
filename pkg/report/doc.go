// Package report renders the package listing shown by `pkglink list`.
//
// Listings render as styled terminal text, plain text, JSON, YAML or TOML.
// FormatAuto picks styled output only when stdout is a color capable
// terminal and NO_COLOR is unset.
package report
