package links

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/logging"
	"github.com/arthur-debert/pkglink/pkg/store"
	"github.com/arthur-debert/pkglink/pkg/types"
)

// DefaultNestedDir is the directory holding dependency symlinks
const DefaultNestedDir = "packages"

// Manager applies build tree changes through a types.FS
type Manager struct {
	fs        types.FS
	nestedDir string
}

// New creates a Manager. An empty nestedDir selects DefaultNestedDir.
func New(fsys types.FS, nestedDir string) *Manager {
	if nestedDir == "" {
		nestedDir = DefaultNestedDir
	}
	return &Manager{fs: fsys, nestedDir: nestedDir}
}

// NestedDir returns the name of the dependency directory
func (m *Manager) NestedDir() string {
	return m.nestedDir
}

func lookup(st *store.Store, name string) (types.Package, error) {
	p, ok := st.Get(name)
	if !ok {
		return types.Package{}, errors.Newf(errors.ErrNotFound, "unknown package %q", name).
			WithDetail("package", name)
	}
	return p, nil
}

func fsError(err error, message, path, pkg string) error {
	return errors.Wrap(err, errors.ErrFilesystem, message).
		WithDetail("path", path).
		WithDetail("package", pkg)
}

// Materialize copies the package into the build tree (unless it is built in
// place) and links every private dependency.
func (m *Manager) Materialize(name string, st *store.Store) error {
	logger := logging.GetLogger("links.Materialize")

	p, err := lookup(st, name)
	if err != nil {
		return err
	}

	if !p.SharedTree() {
		if err := m.copyTree(p.SourcePath, p.BuildPath, p.Name, true); err != nil {
			return err
		}
	}

	for _, dep := range p.PrivateDependencies {
		if err := m.LinkDependency(dep, name, st); err != nil {
			return err
		}
	}

	logger.Debug().Str("package", name).Str("buildPath", p.BuildPath).Msg("Package materialized")
	return nil
}

// Dematerialize removes what Materialize created. On a shared tree only the
// nested dependency directory goes; sources are never touched.
func (m *Manager) Dematerialize(name string, st *store.Store) error {
	logger := logging.GetLogger("links.Dematerialize")

	p, err := lookup(st, name)
	if err != nil {
		return err
	}

	target := p.BuildPath
	if p.SharedTree() {
		target = filepath.Join(p.BuildPath, m.nestedDir)
	}
	if err := m.fs.RemoveAll(target); err != nil {
		return fsError(err, "failed to remove build output", target, name)
	}

	logger.Debug().Str("package", name).Str("path", target).Msg("Package dematerialized")
	return nil
}

// LinkDependency creates the symlink for the edge into -> dep. An existing
// link to the right target is left alone; one pointing elsewhere is replaced.
func (m *Manager) LinkDependency(dep, into string, st *store.Store) error {
	logger := logging.GetLogger("links.LinkDependency")

	intoPkg, err := lookup(st, into)
	if err != nil {
		return err
	}
	depPkg, err := lookup(st, dep)
	if err != nil {
		return err
	}

	linkDir := filepath.Join(intoPkg.BuildPath, m.nestedDir)
	linkPath := filepath.Join(linkDir, dep)

	if err := m.fs.MkdirAll(linkDir, 0755); err != nil {
		return fsError(err, "failed to create dependency directory", linkDir, into)
	}

	if info, err := m.fs.Lstat(linkPath); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			if current, err := m.fs.Readlink(linkPath); err == nil && current == depPkg.BuildPath {
				return nil
			}
		}
		logger.Debug().Str("link", linkPath).Msg("Replacing stale dependency link")
		if err := m.fs.RemoveAll(linkPath); err != nil {
			return fsError(err, "failed to remove stale link", linkPath, into)
		}
	}

	if err := m.fs.Symlink(depPkg.BuildPath, linkPath); err != nil {
		return errors.Wrap(err, errors.ErrFilesystem, "failed to create dependency link").
			WithDetail("path", linkPath).
			WithDetail("target", depPkg.BuildPath).
			WithDetail("package", into)
	}

	logger.Debug().Str("package", into).Str("dependency", dep).Msg("Dependency linked")
	return nil
}

// UnlinkDependency removes the symlink for the edge from -> dep and prunes
// the nested directory once it is empty.
func (m *Manager) UnlinkDependency(dep, from string, st *store.Store) error {
	logger := logging.GetLogger("links.UnlinkDependency")

	fromPkg, err := lookup(st, from)
	if err != nil {
		return err
	}

	linkDir := filepath.Join(fromPkg.BuildPath, m.nestedDir)
	linkPath := filepath.Join(linkDir, dep)

	if _, err := m.fs.Lstat(linkPath); err == nil {
		if err := m.fs.Remove(linkPath); err != nil {
			return fsError(err, "failed to remove dependency link", linkPath, from)
		}
		logger.Debug().Str("package", from).Str("dependency", dep).Msg("Dependency unlinked")
	}

	entries, err := m.fs.ReadDir(linkDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fsError(err, "failed to read dependency directory", linkDir, from)
	}
	if len(entries) == 0 {
		if err := m.fs.Remove(linkDir); err != nil {
			return fsError(err, "failed to prune dependency directory", linkDir, from)
		}
	}
	return nil
}

// BuildPathOf maps a path inside a package's source directory to its
// counterpart in the build tree.
func (m *Manager) BuildPathOf(srcPath, name string, st *store.Store) (string, error) {
	p, err := lookup(st, name)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(p.SourcePath, srcPath)
	if err != nil || !p.Contains(srcPath) {
		return "", errors.Newf(errors.ErrInvalidInput, "%s is not inside package %s", srcPath, name).
			WithDetail("path", srcPath).
			WithDetail("package", name)
	}
	return filepath.Join(p.BuildPath, rel), nil
}

// SyncFile copies one file, symlink or directory from the package source to
// the build tree and returns the build location.
func (m *Manager) SyncFile(srcPath, name string, st *store.Store) (string, error) {
	logger := logging.GetLogger("links.SyncFile")

	p, err := lookup(st, name)
	if err != nil {
		return "", err
	}
	if p.SharedTree() {
		return srcPath, nil
	}

	dst, err := m.BuildPathOf(srcPath, name, st)
	if err != nil {
		return "", err
	}

	info, err := m.fs.Lstat(srcPath)
	if err != nil {
		return "", fsError(err, "failed to stat source file", srcPath, name)
	}
	if err := m.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fsError(err, "failed to create build directory", filepath.Dir(dst), name)
	}
	if err := m.copyEntry(srcPath, dst, info, name, srcPath == p.SourcePath); err != nil {
		return "", err
	}

	logger.Debug().Str("package", name).Str("from", srcPath).Str("to", dst).Msg("File synced")
	return dst, nil
}

// RemoveFile deletes the build counterpart of a removed source path.
func (m *Manager) RemoveFile(srcPath, name string, st *store.Store) error {
	logger := logging.GetLogger("links.RemoveFile")

	p, err := lookup(st, name)
	if err != nil {
		return err
	}
	if p.SharedTree() {
		return nil
	}

	dst, err := m.BuildPathOf(srcPath, name, st)
	if err != nil {
		return err
	}
	if _, err := m.fs.Lstat(dst); os.IsNotExist(err) {
		return nil
	}
	if err := m.fs.RemoveAll(dst); err != nil {
		return fsError(err, "failed to remove build file", dst, name)
	}

	logger.Debug().Str("package", name).Str("path", dst).Msg("File removed")
	return nil
}

// CleanBuildTree removes previous build output before a full rebuild. On a
// shared tree that is each package's nested directory, otherwise every
// directory below the build root.
func (m *Manager) CleanBuildTree(st *store.Store) error {
	logger := logging.GetLogger("links.CleanBuildTree")

	if st.SharedTree() {
		for _, p := range st.Packages() {
			dir := filepath.Join(p.BuildPath, m.nestedDir)
			if err := m.fs.RemoveAll(dir); err != nil {
				return fsError(err, "failed to remove dependency directory", dir, p.Name)
			}
		}
		logger.Debug().Int("packages", st.Len()).Msg("Dependency directories cleaned")
		return nil
	}

	entries, err := m.fs.ReadDir(st.BuildRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fsError(err, "failed to read build root", st.BuildRoot(), "")
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(st.BuildRoot(), entry.Name())
		if err := m.fs.RemoveAll(dir); err != nil {
			return fsError(err, "failed to clean build directory", dir, "")
		}
		removed++
	}
	logger.Debug().Int("removed", removed).Str("buildRoot", st.BuildRoot()).Msg("Build tree cleaned")
	return nil
}

// copyTree mirrors src into dst. At the package root the nested dependency
// directory is skipped so build links are never copied from sources.
func (m *Manager) copyTree(src, dst, pkg string, packageRoot bool) error {
	if err := m.fs.MkdirAll(dst, 0755); err != nil {
		return fsError(err, "failed to create build directory", dst, pkg)
	}

	entries, err := m.fs.ReadDir(src)
	if err != nil {
		return fsError(err, "failed to read source directory", src, pkg)
	}

	for _, entry := range entries {
		if packageRoot && entry.Name() == m.nestedDir {
			continue
		}
		from := filepath.Join(src, entry.Name())
		info, err := m.fs.Lstat(from)
		if err != nil {
			return fsError(err, "failed to stat source file", from, pkg)
		}
		if err := m.copyEntry(from, filepath.Join(dst, entry.Name()), info, pkg, false); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) copyEntry(src, dst string, info fs.FileInfo, pkg string, packageRoot bool) error {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := m.fs.Readlink(src)
		if err != nil {
			return fsError(err, "failed to read source symlink", src, pkg)
		}
		if _, err := m.fs.Lstat(dst); err == nil {
			if err := m.fs.RemoveAll(dst); err != nil {
				return fsError(err, "failed to replace build entry", dst, pkg)
			}
		}
		if err := m.fs.Symlink(target, dst); err != nil {
			return fsError(err, "failed to copy symlink", dst, pkg)
		}
		return nil

	case info.IsDir():
		return m.copyTree(src, dst, pkg, packageRoot)

	default:
		data, err := m.fs.ReadFile(src)
		if err != nil {
			return fsError(err, "failed to read source file", src, pkg)
		}
		if existing, err := m.fs.Lstat(dst); err == nil && (existing.IsDir() || existing.Mode()&os.ModeSymlink != 0) {
			if err := m.fs.RemoveAll(dst); err != nil {
				return fsError(err, "failed to replace build entry", dst, pkg)
			}
		}
		if err := m.fs.WriteFile(dst, data, info.Mode().Perm()); err != nil {
			return fsError(err, "failed to write build file", dst, pkg)
		}
		return nil
	}
}
