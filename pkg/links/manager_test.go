// pkg/links/manager_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (t.TempDir)
// PURPOSE: Test build tree materialization, dependency links and file sync

package links_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/filesystem"
	"github.com/arthur-debert/pkglink/pkg/links"
	"github.com/arthur-debert/pkglink/pkg/store"
	"github.com/arthur-debert/pkglink/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, p *testutil.Project, topLevel ...string) *store.Store {
	t.Helper()
	st, err := store.Load(filesystem.NewOS(), store.LoadOptions{
		SourceRoot:     p.Source,
		BuildRoot:      p.Build,
		TopLevelNames:  topLevel,
		DescriptorFile: "package.js",
		NestedDir:      "packages",
		Strict:         true,
	})
	require.NoError(t, err)
	return st
}

func TestMaterialize_SeparateTree(t *testing.T) {
	p := testutil.NewProject(t)
	p.Example(t)
	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "")

	for _, name := range st.UsedNames() {
		require.NoError(t, m.Materialize(name, st))
	}

	a := filepath.Join(p.Build, "A")
	testutil.AssertFileContent(t, filepath.Join(a, "main.js"), "export const name = 'A';\n")
	testutil.AssertSymlink(t, filepath.Join(a, "packages", "B"), filepath.Join(p.Build, "B"))
	testutil.AssertSymlink(t, filepath.Join(a, "packages", "C"), filepath.Join(p.Build, "C"))
	testutil.AssertNoFile(t, filepath.Join(a, "packages", "ecmascript"))
	testutil.AssertSymlink(t, filepath.Join(p.Build, "B", "packages", "C"), filepath.Join(p.Build, "C"))
	testutil.AssertSymlink(t, filepath.Join(p.Build, "C", "packages", "D"), filepath.Join(p.Build, "D"))
	testutil.AssertNoFile(t, filepath.Join(p.Build, "D", "packages"))

	// Sources are untouched.
	testutil.AssertNoFile(t, filepath.Join(p.Source, "a", "packages"))
}

func TestMaterialize_SharedTree(t *testing.T) {
	p := testutil.NewSharedProject(t)
	p.Example(t)
	before := testutil.Snapshot(t, p.Source)

	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "packages")
	for _, name := range st.UsedNames() {
		require.NoError(t, m.Materialize(name, st))
	}

	testutil.AssertSymlink(t, filepath.Join(p.Source, "a", "packages", "B"), filepath.Join(p.Source, "b"))

	// Dematerializing every package leaves the source tree as authored.
	for _, name := range st.UsedNames() {
		require.NoError(t, m.Dematerialize(name, st))
	}
	assert.Equal(t, before, testutil.Snapshot(t, p.Source))
}

func TestMaterialize_Idempotent(t *testing.T) {
	p := testutil.NewProject(t)
	p.Example(t)
	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "packages")

	require.NoError(t, m.Materialize("A", st))
	first := testutil.Snapshot(t, p.Build)
	require.NoError(t, m.Materialize("A", st))
	assert.Equal(t, first, testutil.Snapshot(t, p.Build))
}

func TestMaterialize_SkipsNestedDirAndKeepsSymlinks(t *testing.T) {
	p := testutil.NewProject(t)
	dir := p.AddPackage(t, "a", "A")
	testutil.CreateFile(t, filepath.Join(dir, "packages", "stale"), "x.js", "stale")
	testutil.CreateFile(t, filepath.Join(dir, "lib", "packages"), "keep.js", "nested below root")
	testutil.CreateSymlink(t, "main.js", filepath.Join(dir, "alias.js"))
	require.NoError(t, os.Chmod(filepath.Join(dir, "main.js"), 0755))

	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "packages")
	require.NoError(t, m.Materialize("A", st))

	build := filepath.Join(p.Build, "A")
	testutil.AssertNoFile(t, filepath.Join(build, "packages"))
	testutil.AssertFileContent(t, filepath.Join(build, "lib", "packages", "keep.js"), "nested below root")
	testutil.AssertSymlink(t, filepath.Join(build, "alias.js"), "main.js")

	info, err := os.Stat(filepath.Join(build, "main.js"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestLinkDependency(t *testing.T) {
	p := testutil.NewProject(t)
	p.Example(t)
	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "packages")
	linkPath := filepath.Join(p.Build, "D", "packages", "B")

	t.Run("creates_link", func(t *testing.T) {
		require.NoError(t, m.LinkDependency("B", "D", st))
		testutil.AssertSymlink(t, linkPath, filepath.Join(p.Build, "B"))
	})

	t.Run("existing_link_kept", func(t *testing.T) {
		require.NoError(t, m.LinkDependency("B", "D", st))
		testutil.AssertSymlink(t, linkPath, filepath.Join(p.Build, "B"))
	})

	t.Run("stale_link_replaced", func(t *testing.T) {
		require.NoError(t, os.Remove(linkPath))
		testutil.CreateSymlink(t, "/nowhere", linkPath)
		require.NoError(t, m.LinkDependency("B", "D", st))
		testutil.AssertSymlink(t, linkPath, filepath.Join(p.Build, "B"))
	})

	t.Run("unknown_dependency", func(t *testing.T) {
		err := m.LinkDependency("nope", "D", st)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	})
}

func TestLinkDependency_Monotonic(t *testing.T) {
	p := testutil.NewProject(t)
	p.Example(t)
	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "packages")
	require.NoError(t, m.Materialize("A", st))

	before := testutil.Snapshot(t, filepath.Join(p.Build, "A", "packages"))
	require.NoError(t, m.LinkDependency("D", "A", st))
	after := testutil.Snapshot(t, filepath.Join(p.Build, "A", "packages"))

	for path, target := range before {
		assert.Equal(t, target, after[path], path)
	}
	assert.Len(t, after, len(before)+1)
}

func TestUnlinkDependency(t *testing.T) {
	p := testutil.NewProject(t)
	p.Example(t)
	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "packages")
	require.NoError(t, m.Materialize("A", st))
	nested := filepath.Join(p.Build, "A", "packages")

	require.NoError(t, m.UnlinkDependency("B", "A", st))
	testutil.AssertNoFile(t, filepath.Join(nested, "B"))
	testutil.AssertSymlink(t, filepath.Join(nested, "C"), filepath.Join(p.Build, "C"))

	require.NoError(t, m.UnlinkDependency("C", "A", st))
	testutil.AssertNoFile(t, nested)

	// Nothing left to remove.
	require.NoError(t, m.UnlinkDependency("C", "A", st))
}

func TestSyncFileAndRemoveFile(t *testing.T) {
	p := testutil.NewProject(t)
	p.Example(t)
	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "packages")
	require.NoError(t, m.Materialize("C", st))

	src := testutil.CreateFile(t, filepath.Join(p.Source, "c", "lib"), "util.js", "v1")
	dst, err := m.SyncFile(src, "C", st)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Build, "C", "lib", "util.js"), dst)
	testutil.AssertFileContent(t, dst, "v1")

	require.NoError(t, os.WriteFile(src, []byte("v2"), 0644))
	_, err = m.SyncFile(src, "C", st)
	require.NoError(t, err)
	testutil.AssertFileContent(t, dst, "v2")

	testutil.CreateFile(t, filepath.Join(p.Source, "c", "assets", "img"), "logo.svg", "<svg/>")
	_, err = m.SyncFile(filepath.Join(p.Source, "c", "assets"), "C", st)
	require.NoError(t, err)
	testutil.AssertFileContent(t, filepath.Join(p.Build, "C", "assets", "img", "logo.svg"), "<svg/>")

	require.NoError(t, os.Remove(src))
	require.NoError(t, m.RemoveFile(src, "C", st))
	testutil.AssertNoFile(t, dst)
	require.NoError(t, m.RemoveFile(src, "C", st))

	// Unrelated packages are untouched.
	testutil.AssertSymlink(t, filepath.Join(p.Build, "C", "packages", "D"), filepath.Join(p.Build, "D"))
}

func TestSyncFile_SharedTreeIsNoop(t *testing.T) {
	p := testutil.NewSharedProject(t)
	p.Example(t)
	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "packages")

	src := filepath.Join(p.Source, "a", "main.js")
	dst, err := m.SyncFile(src, "A", st)
	require.NoError(t, err)
	assert.Equal(t, src, dst)
	require.NoError(t, m.RemoveFile(src, "A", st))
	testutil.AssertFileContent(t, src, "export const name = 'A';\n")
}

func TestBuildPathOf(t *testing.T) {
	p := testutil.NewProject(t)
	p.Example(t)
	st := load(t, p, "A")
	m := links.New(filesystem.NewOS(), "packages")

	got, err := m.BuildPathOf(filepath.Join(p.Source, "b", "x", "y.js"), "B", st)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Build, "B", "x", "y.js"), got)

	_, err = m.BuildPathOf(filepath.Join(p.Source, "a", "y.js"), "B", st)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestCleanBuildTree(t *testing.T) {
	t.Run("separate_tree", func(t *testing.T) {
		p := testutil.NewProject(t)
		p.Example(t)
		st := load(t, p, "A")
		m := links.New(filesystem.NewOS(), "packages")
		for _, name := range st.UsedNames() {
			require.NoError(t, m.Materialize(name, st))
		}
		testutil.CreateFile(t, p.Build, "README", "kept")

		require.NoError(t, m.CleanBuildTree(st))
		assert.Equal(t, map[string]string{"README": "kept"}, testutil.Snapshot(t, p.Build))
	})

	t.Run("shared_tree", func(t *testing.T) {
		p := testutil.NewSharedProject(t)
		p.Example(t)
		before := testutil.Snapshot(t, p.Source)
		st := load(t, p, "A")
		m := links.New(filesystem.NewOS(), "packages")
		for _, name := range st.UsedNames() {
			require.NoError(t, m.Materialize(name, st))
		}

		require.NoError(t, m.CleanBuildTree(st))
		assert.Equal(t, before, testutil.Snapshot(t, p.Source))
	})

	t.Run("missing_build_root", func(t *testing.T) {
		p := testutil.NewProject(t)
		p.Example(t)
		st := load(t, p, "A")
		require.NoError(t, os.RemoveAll(p.Build))
		require.NoError(t, links.New(filesystem.NewOS(), "packages").CleanBuildTree(st))
	})
}
