package testutil

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// ReadFile returns the content of path read through fs.
func ReadFile(t testing.TB, fs ports.FileSystem, path string) string {
	t.Helper()

	r, err := fs.Open(path)
	require.NoError(t, err, "failed to open %s", path)
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	require.NoError(t, err, "failed to read %s", path)
	return string(data)
}

// AssertFileEquals asserts that path holds exactly the expected content.
func AssertFileEquals(t testing.TB, fs ports.FileSystem, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	if !fs.Exists(path) {
		assert.Fail(t, "file does not exist", "expected file to exist: %s", path)
		return
	}
	assert.Equal(t, expected, ReadFile(t, fs, path), msgAndArgs...)
}

// AssertFileNotExists asserts that nothing exists at path.
func AssertFileNotExists(t testing.TB, fs ports.FileSystem, path string) {
	t.Helper()
	assert.False(t, fs.Exists(path), "expected %s to not exist", path)
}

// AssertNoStagingFiles asserts that dir holds no leftover ".*.part" downloads.
func AssertNoStagingFiles(t testing.TB, fs afero.Fs, dir string) {
	t.Helper()

	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err, "failed to list %s", dir)
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".part") {
			assert.Fail(t, "staging file left behind", "found %s", filepath.Join(dir, name))
		}
	}
}
