package archive

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archivist/internal/adapters/digest"
	"github.com/felixgeelhaar/archivist/internal/adapters/filesystem"
)

func TestProber_Missing(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	observed, err := h.prober.Probe(context.Background(), ProbeRequest{Path: "/opt/app.tar.gz", ChecksumType: ChecksumSHA256, NeedDigest: true})
	require.NoError(t, err)
	assert.Equal(t, ObservedState{}, observed)
}

func TestProber_DigestOnlyWhenNeeded(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/app.tar.gz", "hello")

	observed, err := h.prober.Probe(context.Background(), ProbeRequest{Path: "/opt/app.tar.gz", ChecksumType: ChecksumSHA256})
	require.NoError(t, err)
	assert.True(t, observed.Exists)
	assert.False(t, observed.HasDigest())

	observed, err = h.prober.Probe(context.Background(), ProbeRequest{Path: "/opt/app.tar.gz", ChecksumType: ChecksumNone, NeedDigest: true})
	require.NoError(t, err)
	assert.False(t, observed.HasDigest())

	observed, err = h.prober.Probe(context.Background(), ProbeRequest{Path: "/opt/app.tar.gz", ChecksumType: ChecksumSHA256, NeedDigest: true})
	require.NoError(t, err)
	assert.Equal(t, helloSHA256, observed.Digest)
}

func TestProber_CreatesMarkerSkipsDigest(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/app.tar.gz", "hello")
	h.write(t, "/opt/marker", "")

	observed, err := h.prober.Probe(context.Background(), ProbeRequest{
		Path: "/opt/app.tar.gz", ChecksumType: ChecksumSHA256, NeedDigest: true, Creates: "/opt/marker",
	})
	require.NoError(t, err)
	assert.True(t, observed.Exists)
	assert.True(t, observed.CreatesExists)
	assert.False(t, observed.HasDigest())
}

func TestProber_DirectoryIsProbeError(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	require.NoError(t, h.fs.MkdirAll("/opt/app.tar.gz", 0o755))

	_, err := h.prober.Probe(context.Background(), ProbeRequest{Path: "/opt/app.tar.gz"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProbe)
}

func TestProber_DigestFailureIsProbeError(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/app.tar.gz", "hello")

	prober := NewProber(h.fs, failingDigester{})
	_, err := prober.Probe(context.Background(), ProbeRequest{Path: "/opt/app.tar.gz", ChecksumType: ChecksumMD5, NeedDigest: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProbe)
	assert.Contains(t, err.Error(), "read error")
}

func TestProber_CanceledContext(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.prober.Probe(ctx, ProbeRequest{Path: "/opt/app.tar.gz"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProbeFor(t *testing.T) {
	t.Parallel()
	d := appDescriptor()
	d.Creates = "/opt/app/bin/app"

	req := ProbeFor(mustValidate(t, d))
	assert.Equal(t, ProbeRequest{
		Path:         "/opt/app.tar.gz",
		ChecksumType: ChecksumSHA256,
		NeedDigest:   true,
		Creates:      "/opt/app/bin/app",
	}, req)
}

// deniedFs refuses to open one path, like a file without read permission.
type deniedFs struct {
	afero.Fs
	denied string
}

func (d deniedFs) Open(name string) (afero.File, error) {
	if name == d.denied {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Open(name)
}

func (d deniedFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == d.denied {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.OpenFile(name, flag, perm)
}

func TestProber_PermissionDeniedIsProbeError(t *testing.T) {
	t.Parallel()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/opt/app.tar.gz", []byte("hello"), 0o644))
	fs := filesystem.New(deniedFs{Fs: mem, denied: "/opt/app.tar.gz"})

	for _, needDigest := range []bool{false, true} {
		_, err := NewProber(fs, digest.New(fs)).Probe(context.Background(), ProbeRequest{
			Path:         "/opt/app.tar.gz",
			ChecksumType: ChecksumSHA256,
			NeedDigest:   needDigest,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrProbe)
		assert.ErrorIs(t, err, os.ErrPermission)
	}
}

func TestProber_UnreadableFileOnDisk(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for this user")
	}
	path := filepath.Join(t.TempDir(), "app.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o600) })

	fs := filesystem.New(afero.NewOsFs())
	_, err := NewProber(fs, digest.New(fs)).Probe(context.Background(), ProbeRequest{Path: path, ChecksumType: ChecksumSHA256})
	assert.ErrorIs(t, err, ErrProbe)
}
