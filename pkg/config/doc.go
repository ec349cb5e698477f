// Package config loads pkglink configuration from embedded defaults, an
// optional project file (.pkglink.toml) and PKGLINK_* environment variables,
// in that order of precedence.
package config
