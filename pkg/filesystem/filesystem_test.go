// pkg/filesystem/filesystem_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Real filesystem (t.TempDir) and afero MemMapFs
// PURPOSE: Verify both types.FS implementations behave the same for the operations pkglink uses

package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/pkglink/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOS(t *testing.T) {
	fs := NewOS()
	assert.NotNil(t, fs)

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	testContent := []byte("hello world")

	require.NoError(t, fs.WriteFile(testFile, testContent, 0644))

	info, err := fs.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, "test.txt", info.Name())
	assert.Equal(t, int64(len(testContent)), info.Size())

	content, err := fs.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, testContent, content)

	subDir := filepath.Join(tmpDir, "sub", "dir")
	require.NoError(t, fs.MkdirAll(subDir, 0755))

	link := filepath.Join(tmpDir, "link")
	require.NoError(t, fs.Symlink(subDir, link))
	target, err := fs.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, subDir, target)

	linfo, err := fs.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, linfo.Mode()&os.ModeSymlink)

	entries, err := fs.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3) // test.txt, sub/, link

	require.NoError(t, fs.Remove(testFile))
	_, err = fs.Stat(testFile)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, fs.RemoveAll(filepath.Join(tmpDir, "sub")))
	_, err = fs.Stat(subDir)
	assert.True(t, os.IsNotExist(err))
}

func TestGuardedOS(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	source := filepath.Join(root, "private")
	meteor := filepath.Join(root, ".meteor")
	build := filepath.Join(root, "build", "A")
	for _, dir := range []string{filepath.Join(source, "a", "packages"), meteor, build} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}

	fs := NewGuardedOS(source, meteor)

	tests := []struct {
		name    string
		path    string
		refused bool
	}{
		{name: "protected_path", path: source, refused: true},
		{name: "ancestor_of_protected", path: root, refused: true},
		{name: "second_protected_path", path: meteor, refused: true},
		{name: "filesystem_root", path: "/", refused: true},
		{name: "empty_path", path: "", refused: true},
		{name: "inside_protected", path: filepath.Join(source, "a", "packages")},
		{name: "build_directory", path: build},
		{name: "sibling_with_prefix", path: source + "-old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fs.RemoveAll(tt.path)
			if tt.refused {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, err = os.Stat(tt.path)
			assert.True(t, os.IsNotExist(err))
		})
	}

	assert.DirExists(t, filepath.Join(source, "a"))
	assert.DirExists(t, meteor)
	assert.Error(t, fs.Remove(meteor))
}

func TestAferoFS(t *testing.T) {
	tests := []struct {
		name string
		fs   func(t *testing.T) (types.FS, string)
	}{
		{
			name: "memory",
			fs: func(t *testing.T) (types.FS, string) {
				return NewMemory(), "/work"
			},
		},
		{
			name: "os_backed",
			fs: func(t *testing.T) (types.FS, string) {
				return NewAferoFS(afero.NewOsFs()), t.TempDir()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, root := tt.fs(t)

			dir := filepath.Join(root, "pkg")
			require.NoError(t, fs.MkdirAll(dir, 0755))
			require.NoError(t, fs.WriteFile(filepath.Join(dir, "package.js"), []byte("x"), 0644))

			_, err := fs.ReadFile(dir)
			assert.Error(t, err, "reading a directory must fail")

			link := filepath.Join(root, "link")
			require.NoError(t, fs.Symlink(dir, link))
			target, err := fs.Readlink(link)
			require.NoError(t, err)
			assert.Equal(t, dir, target)

			entries, err := fs.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "package.js", entries[0].Name())
		})
	}
}
