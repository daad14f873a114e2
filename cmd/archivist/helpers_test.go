package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/archivist/internal/testutil"
)

// executeCommand runs the root command with args and returns its output.
// Commands share global flag state, so tests in this package do not run
// in parallel.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

// workspace lays out a manifest, settings file and payload in a temp dir.
type workspace struct {
	dir      string
	manifest string
	settings string
	payload  string
	sum      string
}

func newWorkspace(t *testing.T, manifest string) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:      dir,
		manifest: filepath.Join(dir, "archives.yaml"),
		settings: filepath.Join(dir, "archivist.ini"),
		payload:  filepath.Join(dir, "payload.bin"),
	}

	body := []byte("release payload")
	sum := sha256.Sum256(body)
	ws.sum = hex.EncodeToString(sum[:])
	testutil.WriteTempFile(t, dir, "payload.bin", body)
	testutil.WriteTempFile(t, dir, "archivist.ini", []byte("[log]\nlevel = error\n[run]\nconcurrency = 2\n"))
	testutil.WriteTempFile(t, dir, "archives.yaml", []byte(manifest))
	return ws
}

func (ws *workspace) path(name string) string {
	return filepath.Join(ws.dir, name)
}
