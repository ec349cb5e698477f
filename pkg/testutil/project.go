package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Project is a throwaway project layout under t.TempDir()
type Project struct {
	Root     string // Project directory
	Manifest string // .meteor/packages
	Source   string // Private package sources
	Build    string // Build root
}

// NewProject creates a project whose build root differs from its source root.
func NewProject(t *testing.T) *Project {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	p := &Project{
		Root:     root,
		Manifest: filepath.Join(root, ".meteor", "packages"),
		Source:   filepath.Join(root, "private"),
		Build:    filepath.Join(root, "packages"),
	}
	require.NoError(t, os.MkdirAll(p.Source, 0755))
	require.NoError(t, os.MkdirAll(p.Build, 0755))
	p.SetManifest(t)
	return p
}

// NewSharedProject creates a project that builds packages in place.
func NewSharedProject(t *testing.T) *Project {
	t.Helper()

	p := NewProject(t)
	require.NoError(t, os.RemoveAll(p.Build))
	p.Build = p.Source
	return p
}

// Descriptor renders a package.js declaring name and deps.
func Descriptor(name string, deps ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Package.describe({\n\tname: '%s',\n\tsummary: 'test package'\n});\n\n", name)
	b.WriteString("Package.onUse(function(api) {\n")
	for _, dep := range deps {
		fmt.Fprintf(&b, "\tapi.use('%s');\n", dep)
	}
	b.WriteString("});\n")
	return b.String()
}

// AddPackage writes a package directory dir (relative to the source root)
// with a descriptor and a main.js. It returns the package directory.
func (p *Project) AddPackage(t *testing.T, dir, name string, deps ...string) string {
	t.Helper()

	pkgDir := filepath.Join(p.Source, dir)
	CreateFile(t, pkgDir, "package.js", Descriptor(name, deps...))
	CreateFile(t, pkgDir, "main.js", "export const name = '"+name+"';\n")
	return pkgDir
}

// SetManifest rewrites the project manifest with the given names.
func (p *Project) SetManifest(t *testing.T, names ...string) {
	t.Helper()

	content := "# Meteor packages used by this project, one per line.\n\nmeteor-base@1.5.1\n"
	for _, name := range names {
		content += name + "\n"
	}
	CreateFile(t, filepath.Dir(p.Manifest), filepath.Base(p.Manifest), content)
}

// Example lays out the reference graph: A uses B and C, B uses C, C uses D.
// A is the only top-level package.
func (p *Project) Example(t *testing.T) {
	t.Helper()

	p.AddPackage(t, "a", "A", "B", "C", "ecmascript")
	p.AddPackage(t, "b", "B", "C")
	p.AddPackage(t, "c", "C", "D")
	p.AddPackage(t, "d", "D")
	p.SetManifest(t, "A")
}

// BuildDir returns where a package is materialized.
func (p *Project) BuildDir(name, sourceDir string) string {
	if p.Build == p.Source {
		return filepath.Join(p.Source, sourceDir)
	}
	return filepath.Join(p.Build, name)
}
