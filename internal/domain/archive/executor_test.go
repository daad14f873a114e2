package archive

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/opt/.app.tar.gz.1234.part", StagingPath("/opt/app.tar.gz", "1234"))
}

func TestExecutor_CreateExtractAndCleanup(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetcher.body["https://example.com/app.tar.gz"] = "hello"

	d := mustValidate(t, appDescriptor())
	err := h.executor.Execute(context.Background(), d, Decide(d, ObservedState{}))
	require.NoError(t, err)

	require.Len(t, h.extractor.requests, 1)
	req := h.extractor.requests[0]
	assert.Equal(t, "/opt/app.tar.gz", req.Archive)
	assert.Equal(t, "/opt/app", req.Dest)

	assert.False(t, h.fs.Exists("/opt/app.tar.gz"), "archive should be cleaned up")
	assert.False(t, h.fs.Exists(h.fetcher.dests[0]), "staging file should be gone")
}

func TestExecutor_CreateWithoutCleanupKeepsArchive(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetcher.body["https://example.com/app.tar.gz"] = "hello"

	raw := appDescriptor()
	raw.Cleanup = SwitchFalse
	d := mustValidate(t, raw)

	require.NoError(t, h.executor.Execute(context.Background(), d, Decide(d, ObservedState{})))
	assert.Equal(t, "hello", h.read(t, "/opt/app.tar.gz"))
}

func TestExecutor_CreatePassesCredentialsAndProxy(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	d := mustValidate(t, Descriptor{
		Path:        "/opt/app.zip",
		Source:      "https://example.com/app.zip",
		Username:    "deploy",
		Password:    "s3cret",
		Cookie:      "session=1",
		ProxyServer: "http://proxy.local:3128",
	})
	require.NoError(t, h.executor.Execute(context.Background(), d, Decide(d, ObservedState{})))

	require.Equal(t, 1, h.fetcher.calls())
	req := h.fetcher.requests[0]
	assert.Equal(t, "deploy", req.Credentials.Username)
	assert.Equal(t, "s3cret", req.Credentials.Password)
	assert.Equal(t, "session=1", req.Credentials.Cookie)
	assert.Equal(t, "http", req.Proxy.Type)
	assert.Equal(t, "http://proxy.local:3128", req.Proxy.Server)
	assert.True(t, h.fs.Exists("/opt/app.zip"))
	assert.Empty(t, h.extractor.requests)
}

func TestExecutor_ChecksumMismatchRemovesStaging(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetcher.body["https://example.com/app.tar.gz"] = "world"

	d := mustValidate(t, appDescriptor())
	err := h.executor.Execute(context.Background(), d, Decide(d, ObservedState{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	var archErr *Error
	require.True(t, errors.As(err, &archErr))
	assert.Equal(t, "/opt/app.tar.gz", archErr.Path)
	assert.Equal(t, ActionCreate, archErr.Action)
	assert.Equal(t, StageVerifying, archErr.Stage)
	assert.Contains(t, err.Error(), "expected (sha256)"+helloSHA256)

	assert.False(t, h.fs.Exists(h.fetcher.dests[0]))
	assert.False(t, h.fs.Exists("/opt/app.tar.gz"))
	assert.Empty(t, h.extractor.requests)
}

func TestExecutor_ReplaceMismatchLeavesTargetUntouched(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/app.tar.gz", "old")
	h.fetcher.body["https://example.com/app.tar.gz"] = "world"

	d := mustValidate(t, appDescriptor())
	action := Decide(d, ObservedState{Exists: true, Digest: "0123456789"})
	require.Equal(t, ActionReplace, action.Kind())

	err := h.executor.Execute(context.Background(), d, action)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Equal(t, "old", h.read(t, "/opt/app.tar.gz"))
}

func TestExecutor_Replace(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/app.tar.gz", "world")
	h.fetcher.body["https://example.com/app.tar.gz"] = "hello"

	raw := appDescriptor()
	raw.Extract = SwitchFalse
	raw.ExtractPath = ""
	d := mustValidate(t, raw)

	action := Decide(d, ObservedState{Exists: true, Digest: worldSHA256})
	require.NoError(t, h.executor.Execute(context.Background(), d, action))
	assert.Equal(t, "hello", h.read(t, "/opt/app.tar.gz"))
}

func TestExecutor_FetchFailureRemovesPartialFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetcher.body["https://example.com/app.tar.gz"] = "hel"
	h.fetcher.err = errors.New("connection reset")
	h.fetcher.partial = true

	d := mustValidate(t, appDescriptor())
	err := h.executor.Execute(context.Background(), d, Decide(d, ObservedState{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "connection reset")

	var archErr *Error
	require.True(t, errors.As(err, &archErr))
	assert.Equal(t, StageFetching, archErr.Stage)
	assert.False(t, h.fs.Exists(h.fetcher.dests[0]))
}

func TestExecutor_ExtractFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetcher.body["https://example.com/app.tar.gz"] = "hello"
	h.extractor.err = errors.New("tar: exit status 2")

	d := mustValidate(t, appDescriptor())
	err := h.executor.Execute(context.Background(), d, Decide(d, ObservedState{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtract)

	var archErr *Error
	require.True(t, errors.As(err, &archErr))
	assert.Equal(t, StageExtracting, archErr.Stage)
	assert.True(t, h.fs.Exists("/opt/app.tar.gz"), "archive is kept when extraction fails")
}

func TestExecutor_CustomExtractCommand(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	raw := appDescriptor()
	raw.Checksum = ""
	raw.ExtractCommand = "tar xjf %s"
	raw.ExtractFlags = ExtractFlags{"tar": "-xzf"}
	d := mustValidate(t, raw)

	require.NoError(t, h.executor.Execute(context.Background(), d, Decide(d, ObservedState{})))
	require.Len(t, h.extractor.requests, 1)
	assert.Equal(t, "tar xjf %s", h.extractor.requests[0].Command)
	assert.Equal(t, "tar xjf app.tar.gz", d.ExtractCommandLine())
	assert.Equal(t, map[string]string{"tar": "-xzf"}, h.extractor.requests[0].Flags)
}

func TestExecutor_SetsOwner(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	d := mustValidate(t, Descriptor{
		Path:   "/opt/app.zip",
		Source: "https://example.com/app.zip",
		User:   "deploy",
		Group:  "deploy",
	})
	require.NoError(t, h.executor.Execute(context.Background(), d, Decide(d, ObservedState{})))

	info, err := h.fs.Stat("/opt/app.zip")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode.Perm())
}

func TestExecutor_Remove(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/app.tar.gz", "hello")

	d := mustValidate(t, Descriptor{Path: "/opt/app.tar.gz", Ensure: EnsureAbsent})
	require.NoError(t, h.executor.Execute(context.Background(), d, Remove{Path: d.Path}))
	assert.False(t, h.fs.Exists("/opt/app.tar.gz"))

	// Already gone is not a failure.
	assert.NoError(t, h.executor.Execute(context.Background(), d, Remove{Path: d.Path}))
}

func TestExecutor_NoOpDoesNothing(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	d := mustValidate(t, appDescriptor())
	require.NoError(t, h.executor.Execute(context.Background(), d, NoOp{Path: d.Path}))
	assert.Zero(t, h.fetcher.calls())
}
