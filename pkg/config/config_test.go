// pkg/config/config_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Real filesystem (t.TempDir), environment variables
// PURPOSE: Test configuration layering, decoding and encoding

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "package.js", cfg.Layout.DescriptorFile)
	assert.Equal(t, "packages", cfg.Layout.NestedDir)
	assert.Equal(t, []string{"node_modules"}, cfg.Scan.Ignore)
	assert.True(t, cfg.Scan.Strict)
	assert.Equal(t, 100*time.Millisecond, cfg.Watch.Debounce)
	assert.Empty(t, cfg.Paths.Source)
	assert.Empty(t, cfg.Paths.Build)
}

func TestLoad_Layers(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[paths]
source = "private"

[scan]
ignore = ["node_modules", ".npm"]
strict = false

[watch]
debounce = "250ms"
`)

	t.Run("project_file", func(t *testing.T) {
		cfg, err := Load(LoadOptions{Dir: dir})
		require.NoError(t, err)
		assert.Equal(t, "private", cfg.Paths.Source)
		assert.Equal(t, []string{"node_modules", ".npm"}, cfg.Scan.Ignore)
		assert.False(t, cfg.Scan.Strict)
		assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	})

	t.Run("env_over_file", func(t *testing.T) {
		t.Setenv("PKGLINK_PATHS_SOURCE", "from-env")
		t.Setenv("PKGLINK_LAYOUT_NESTED_DIR", "deps")
		t.Setenv("PKGLINK_SCAN_IGNORE", "a,b")
		t.Setenv("PKGLINK_SCAN_STRICT", "true")

		cfg, err := Load(LoadOptions{Dir: dir})
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Paths.Source)
		assert.Equal(t, "deps", cfg.Layout.NestedDir)
		assert.Equal(t, []string{"a", "b"}, cfg.Scan.Ignore)
		assert.True(t, cfg.Scan.Strict)
	})

	t.Run("overrides_win", func(t *testing.T) {
		t.Setenv("PKGLINK_PATHS_SOURCE", "from-env")
		cfg, err := Load(LoadOptions{Dir: dir, Overrides: map[string]interface{}{
			"paths.source": "from-flag",
		}})
		require.NoError(t, err)
		assert.Equal(t, "from-flag", cfg.Paths.Source)
	})
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[layout]\ndescriptor_file = \"pkg.js\"\n"), 0644))

	cfg, err := Load(LoadOptions{File: path})
	require.NoError(t, err)
	assert.Equal(t, "pkg.js", cfg.Layout.DescriptorFile)

	_, err = Load(LoadOptions{File: filepath.Join(dir, "missing.toml")})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"bad_toml", "[layout\n", errors.ErrConfigParse},
		{"nested_dir_with_separator", "[layout]\nnested_dir = \"a/b\"\n", errors.ErrInvalidInput},
		{"empty_descriptor", "[layout]\ndescriptor_file = \"\"\n", errors.ErrInvalidInput},
		{"bad_duration", "[watch]\ndebounce = \"soon\"\n", errors.ErrConfigParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := Load(LoadOptions{Dir: dir})
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	cfg, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	cfg.Paths.Source = "/abs/private"
	cfg.Watch.Debounce = 2 * time.Second

	data, err := Encode(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[watch]")
	assert.Contains(t, string(data), "2s")

	dir := t.TempDir()
	writeConfig(t, dir, string(data))
	again, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "layout.descriptor_file", envKey("PKGLINK_LAYOUT_DESCRIPTOR_FILE"))
	assert.Equal(t, "watch.debounce", envKey("PKGLINK_WATCH_DEBOUNCE"))
	assert.Equal(t, "verbose", envKey("PKGLINK_VERBOSE"))
}

func TestDefaultsContent(t *testing.T) {
	assert.Contains(t, DefaultsContent(), "[layout]")
}
