// Package testutil provides test helpers and fixtures for archivist tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// WriteTempFile writes content to a file in the specified directory.
func WriteTempFile(t *testing.T, dir, filename string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644), "failed to write temp file: %s", filename)
	return path
}

// WriteMemFile writes content through fs, creating parents.
func WriteMemFile(t testing.TB, fs ports.FileSystem, path string, content []byte) {
	t.Helper()

	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	w, err := fs.Create(path, 0o644)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

// SetEnv sets an environment variable for the duration of the test.
func SetEnv(t *testing.T, key, value string) {
	t.Helper()

	original, had := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))

	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, original)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}
