package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler_IdempotentWithoutChecksum(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetcher.body["https://example.com/app.tar.gz"] = "hello"
	r := h.reconciler()

	d := Descriptor{Path: "/opt/app.tar.gz", Source: "https://example.com/app.tar.gz"}

	first := r.Reconcile(context.Background(), d)
	require.NoError(t, first.Err)
	assert.Equal(t, ActionCreate, first.Kind())
	assert.True(t, first.Changed())
	assert.Equal(t, "created archive /opt/app.tar.gz", first.Outcome)

	second := r.Reconcile(context.Background(), d)
	require.NoError(t, second.Err)
	assert.Equal(t, ActionNoOp, second.Kind())
	assert.False(t, second.Changed())
	assert.Empty(t, second.Narration)
	assert.Equal(t, 1, h.fetcher.calls())
}

func TestReconciler_ChecksumConvergence(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/app.tar.gz", "world")
	h.fetcher.body["https://example.com/app.tar.gz"] = "hello"
	r := h.reconciler()

	raw := appDescriptor()
	raw.Extract = SwitchFalse
	raw.ExtractPath = ""

	first := r.Reconcile(context.Background(), raw)
	require.NoError(t, first.Err)
	assert.Equal(t, ActionReplace, first.Kind())
	assert.Equal(t, "replace archive /opt/app.tar.gz: (sha256)"+worldSHA256+" -> (sha256)"+helloSHA256, first.Narration)

	second := r.Reconcile(context.Background(), raw)
	require.NoError(t, second.Err)
	assert.Equal(t, ActionNoOp, second.Kind())
}

func TestReconciler_CreatesMarkerWins(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/marker", "")
	r := h.reconciler()

	raw := appDescriptor()
	raw.Creates = "/opt/marker"

	res := r.Reconcile(context.Background(), raw)
	require.NoError(t, res.Err)
	assert.Equal(t, ActionNoOp, res.Kind())
	assert.Zero(t, h.fetcher.calls())
}

func TestReconciler_ExtractThenCreatesKeepsConverged(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetcher.body["https://example.com/app.tar.gz"] = "hello"
	h.extractor.creates = "/opt/app-marker"
	r := h.reconciler()

	raw := appDescriptor()
	raw.Creates = "/opt/app-marker"

	first := r.Reconcile(context.Background(), raw)
	require.NoError(t, first.Err)
	assert.Equal(t, ActionCreate, first.Kind())
	assert.Contains(t, first.Narration, "to create /opt/app-marker")
	assert.False(t, h.fs.Exists("/opt/app.tar.gz"))

	second := r.Reconcile(context.Background(), raw)
	require.NoError(t, second.Err)
	assert.Equal(t, ActionNoOp, second.Kind())
}

func TestReconciler_Absent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/app.tar.gz", "hello")
	r := h.reconciler()

	d := Descriptor{Path: "/opt/app.tar.gz", Ensure: EnsureAbsent}

	first := r.Reconcile(context.Background(), d)
	require.NoError(t, first.Err)
	assert.Equal(t, ActionRemove, first.Kind())
	assert.Equal(t, "remove archive /opt/app.tar.gz", first.Narration)
	assert.False(t, h.fs.Exists("/opt/app.tar.gz"))

	second := r.Reconcile(context.Background(), d)
	require.NoError(t, second.Err)
	assert.Equal(t, ActionNoOp, second.Kind())
}

func TestReconciler_DryRun(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	r := h.reconciler().WithDryRun(true)

	res := r.Reconcile(context.Background(), appDescriptor())
	require.NoError(t, res.Err)
	assert.True(t, res.DryRun)
	assert.Equal(t, ActionCreate, res.Kind())
	assert.Contains(t, res.Narration, "with cleanup")
	assert.Empty(t, res.Outcome)
	assert.Zero(t, h.fetcher.calls())

	plan := h.reconciler().Plan(context.Background(), appDescriptor())
	assert.Equal(t, ActionCreate, plan.Kind())
	assert.Zero(t, h.fetcher.calls())
}

func TestReconciler_InvalidDescriptor(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	res := h.reconciler().Reconcile(context.Background(), Descriptor{Path: "app.tar.gz"})
	require.Error(t, res.Err)
	assert.Nil(t, res.Action)
	assert.False(t, res.Success())
	assert.True(t, IsCode(res.Err, ErrCodeInvalidPath))
}

func TestReconciler_ExecutionFailureReported(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetcher.err = errors.New("404 not found")

	res := h.reconciler().Reconcile(context.Background(), appDescriptor())
	require.Error(t, res.Err)
	assert.Equal(t, ActionCreate, res.Kind())
	assert.Contains(t, res.Outcome, "failed to create archive /opt/app.tar.gz")
	assert.ErrorIs(t, res.Err, ErrFetch)
}

func TestReconciler_ChecksumURL(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fetcher.body["https://example.com/app.tar.gz"] = "hello"
	resolver := &fakeResolver{sum: "2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824"}
	r := h.reconciler().WithChecksumResolver(resolver)

	raw := appDescriptor()
	raw.Checksum = ""
	raw.ChecksumURL = "https://example.com/SHA256SUMS"

	res := r.Reconcile(context.Background(), raw)
	require.NoError(t, res.Err)
	assert.Equal(t, ActionCreate, res.Kind())
	require.Len(t, resolver.requests, 1)
	assert.Equal(t, "app.tar.gz", resolver.requests[0].Filename)

	h.write(t, "/opt/app.tar.gz", "world")
	res = r.Reconcile(context.Background(), raw)
	require.NoError(t, res.Err)
	assert.Equal(t, ActionReplace, res.Kind())
}

func TestReconciler_ChecksumURLInvalidDigest(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	r := h.reconciler().WithChecksumResolver(&fakeResolver{sum: "<html>"})

	raw := appDescriptor()
	raw.Checksum = ""
	raw.ChecksumURL = "https://example.com/SHA256SUMS"

	res := r.Reconcile(context.Background(), raw)
	assert.ErrorIs(t, res.Err, ErrInvalidChecksum)
}

func TestReconciler_ChecksumURLFetchError(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	r := h.reconciler().WithChecksumResolver(&fakeResolver{err: errors.New("timeout")})

	raw := appDescriptor()
	raw.Checksum = ""
	raw.ChecksumURL = "https://example.com/SHA256SUMS"

	res := r.Reconcile(context.Background(), raw)
	assert.ErrorIs(t, res.Err, ErrFetch)
	assert.Nil(t, res.Action)
}

func TestReconciler_CreatesMarkerSkipsChecksumURL(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.write(t, "/opt/app.tar.gz", "world")
	h.write(t, "/opt/marker", "")
	resolver := &fakeResolver{err: errors.New("network down")}
	r := h.reconciler().WithChecksumResolver(resolver)

	raw := appDescriptor()
	raw.Checksum = ""
	raw.ChecksumURL = "https://example.com/SHA256SUMS"
	raw.Creates = "/opt/marker"

	res := r.Reconcile(context.Background(), raw)
	require.NoError(t, res.Err)
	assert.Equal(t, ActionNoOp, res.Kind())
	assert.Equal(t, ReasonCreatesExists, res.Action.(NoOp).Reason)
	assert.Empty(t, resolver.requests)

	require.NoError(t, h.fs.Remove("/opt/marker"))
	res = r.Reconcile(context.Background(), raw)
	assert.ErrorIs(t, res.Err, ErrFetch)
	assert.Len(t, resolver.requests, 1)
}

func TestReconciler_ProbeError(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	require.NoError(t, h.fs.MkdirAll("/opt/app.tar.gz", 0o755))

	res := h.reconciler().Reconcile(context.Background(), appDescriptor())
	assert.ErrorIs(t, res.Err, ErrProbe)
	assert.Nil(t, res.Action)
}
