package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertFileContent checks that a file exists and has the expected content.
func AssertFileContent(t *testing.T, path, expected string) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "file %s should exist", path)
	assert.Equal(t, expected, string(data), "content of %s", path)
}

// AssertSymlink checks that a symlink exists and points to the expected target.
func AssertSymlink(t *testing.T, link, expectedTarget string) {
	t.Helper()

	require.True(t, SymlinkExists(link), "symlink %s should exist", link)
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, expectedTarget, target, "target of %s", link)
}

// AssertNoFile checks that nothing exists at path, dangling links included.
func AssertNoFile(t *testing.T, path string) {
	t.Helper()

	_, err := os.Lstat(path)
	assert.True(t, os.IsNotExist(err), "%s exists but should not", path)
}
