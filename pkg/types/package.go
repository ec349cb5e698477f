package types

import (
	"path/filepath"
	"strings"
)

// Package is the metadata record of one private package discovered under the
// source root.
type Package struct {
	// Name is the unique name read from the package descriptor
	Name string `json:"name" yaml:"name" toml:"name"`

	// SourcePath is the absolute path of the package's authored content
	SourcePath string `json:"sourcePath" yaml:"sourcePath" toml:"source_path"`

	// BuildPath is where the materialized copy lives. Equal to SourcePath
	// when the source and build trees coincide.
	BuildPath string `json:"buildPath" yaml:"buildPath" toml:"build_path"`

	// DeclaredDependencies lists every dependency named in the descriptor,
	// external ones included, in declaration order
	DeclaredDependencies []string `json:"declaredDependencies" yaml:"declaredDependencies" toml:"declared_dependencies"`

	// PrivateDependencies is the subset of DeclaredDependencies naming
	// other packages known to the store
	PrivateDependencies []string `json:"privateDependencies" yaml:"privateDependencies" toml:"private_dependencies"`

	// TopLevel is true when the project manifest names this package
	TopLevel bool `json:"topLevel" yaml:"topLevel" toml:"top_level"`

	// Used is true when the package is reachable from a top-level package
	Used bool `json:"used" yaml:"used" toml:"used"`
}

// SharedTree reports whether the package is built in place.
func (p Package) SharedTree() bool {
	return p.SourcePath == p.BuildPath
}

// Contains reports whether path lies inside the package source directory.
func (p Package) Contains(path string) bool {
	if path == p.SourcePath {
		return true
	}
	return strings.HasPrefix(path, p.SourcePath+string(filepath.Separator))
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (p Package) Clone() Package {
	c := p
	c.DeclaredDependencies = append([]string(nil), p.DeclaredDependencies...)
	c.PrivateDependencies = append([]string(nil), p.PrivateDependencies...)
	return c
}
