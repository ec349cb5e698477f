// pkg/paths/paths_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Real filesystem (t.TempDir), environment variables
// PURPOSE: Test path precedence, project root discovery and home expansion

package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/pkglink/pkg/config"
	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvPrivatePackageDirs, "")
	t.Setenv(EnvPackageDirs, "")
}

func TestResolve(t *testing.T) {
	root := "/work/app"

	tests := []struct {
		name string
		opts Options
		env  map[string]string
		want Paths
	}{
		{
			name: "defaults",
			opts: Options{Root: root},
			want: Paths{Root: root, Manifest: "/work/app/.meteor/packages", Source: "/work/app/packages", Build: "/work/app/packages"},
		},
		{
			name: "package_dirs_sets_both",
			opts: Options{Root: root},
			env:  map[string]string{EnvPackageDirs: "build"},
			want: Paths{Root: root, Manifest: "/work/app/.meteor/packages", Source: "/work/app/build", Build: "/work/app/build"},
		},
		{
			name: "private_dirs_sets_source",
			opts: Options{Root: root},
			env:  map[string]string{EnvPrivatePackageDirs: "/src/private", EnvPackageDirs: "packages"},
			want: Paths{Root: root, Manifest: "/work/app/.meteor/packages", Source: "/src/private", Build: "/work/app/packages"},
		},
		{
			name: "path_list_uses_first_entry",
			opts: Options{Root: root},
			env:  map[string]string{EnvPackageDirs: "one" + string(os.PathListSeparator) + "two"},
			want: Paths{Root: root, Manifest: "/work/app/.meteor/packages", Source: "/work/app/one", Build: "/work/app/one"},
		},
		{
			name: "config_over_env",
			opts: Options{Root: root, Config: config.PathsConfig{Source: "private", Manifest: "meta/packages"}},
			env:  map[string]string{EnvPrivatePackageDirs: "ignored"},
			want: Paths{Root: root, Manifest: "/work/app/meta/packages", Source: "/work/app/private", Build: "/work/app/packages"},
		},
		{
			name: "flags_over_config",
			opts: Options{Root: root, Source: "/flag/src", Build: "out", Config: config.PathsConfig{Source: "private", Build: "cfg"}},
			want: Paths{Root: root, Manifest: "/work/app/.meteor/packages", Source: "/flag/src", Build: "/work/app/out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, err := Resolve(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RejectsNestedTrees(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{
			name: "build_root_above_source",
			opts: Options{Root: "/work/app", Source: "private", Build: "."},
		},
		{
			name: "build_root_inside_source",
			opts: Options{Root: "/work/app", Source: "private", Build: "private/.build"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Resolve(tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
		})
	}
}

func TestCheckTrees(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		build   string
		wantErr bool
	}{
		{name: "shared", source: "/app/packages", build: "/app/packages/"},
		{name: "siblings", source: "/app/private", build: "/app/packages"},
		{name: "common_prefix", source: "/app/pkg", build: "/app/pkg-build"},
		{name: "build_is_parent", source: "/app/private", build: "/app", wantErr: true},
		{name: "build_is_filesystem_root", source: "/app/private", build: "/", wantErr: true},
		{name: "build_inside_source", source: "/app/private", build: "/app/private/out", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTrees(tt.source, tt.build)
			if tt.wantErr {
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolve_DiscoversProjectRoot(t *testing.T) {
	clearEnv(t)
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".meteor"), 0755))
	sub := filepath.Join(root, "client", "lib")
	require.NoError(t, os.MkdirAll(sub, 0755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(sub))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	got, err := Resolve(Options{})
	require.NoError(t, err)
	assert.Equal(t, root, got.Root)
	assert.Equal(t, filepath.Join(root, ".meteor", "packages"), got.Manifest)
	assert.True(t, got.SharedTree())
}

func TestFindProjectRoot(t *testing.T) {
	dir := t.TempDir()
	_, ok := FindProjectRoot(dir)
	assert.False(t, ok)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "app"), ExpandHome("~/app"))
	assert.Equal(t, "~other/app", ExpandHome("~other/app"))
	assert.Equal(t, "/abs", ExpandHome("/abs"))
	assert.Equal(t, "", ExpandHome(""))
}
