package archive

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archivist/internal/adapters/digest"
	"github.com/felixgeelhaar/archivist/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archivist/internal/ports"
)

const (
	helloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	worldSHA256 = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
)

// fakeFetcher writes a fixed body to the destination.
type fakeFetcher struct {
	fs   ports.FileSystem
	body map[string]string
	err  error
	// partial writes the body before failing with err.
	partial bool

	mu       sync.Mutex
	requests []ports.FetchRequest
	dests    []string
}

func newFakeFetcher(fs ports.FileSystem) *fakeFetcher {
	return &fakeFetcher{fs: fs, body: map[string]string{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, req ports.FetchRequest, dest string) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.dests = append(f.dests, dest)
	f.mu.Unlock()

	if f.err != nil && !f.partial {
		return f.err
	}
	w, err := f.fs.Create(dest, 0o644)
	if err != nil {
		return err
	}
	_, _ = io.WriteString(w, f.body[req.Source])
	if err := w.Close(); err != nil {
		return err
	}
	return f.err
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// fakeExtractor records extraction requests and can create a marker file.
type fakeExtractor struct {
	fs       ports.FileSystem
	creates  string
	err      error
	requests []ports.ExtractRequest
}

func (e *fakeExtractor) Extract(_ context.Context, req ports.ExtractRequest) error {
	e.requests = append(e.requests, req)
	if e.err != nil {
		return e.err
	}
	if e.creates != "" {
		w, err := e.fs.Create(e.creates, 0o755)
		if err != nil {
			return err
		}
		return w.Close()
	}
	return nil
}

// fakeResolver returns a fixed digest.
type fakeResolver struct {
	sum      string
	err      error
	requests []ports.ChecksumRequest
}

func (r *fakeResolver) Resolve(_ context.Context, req ports.ChecksumRequest) (string, error) {
	r.requests = append(r.requests, req)
	return r.sum, r.err
}

// failingDigester always fails.
type failingDigester struct{}

func (failingDigester) Digest(string, string) (string, error) {
	return "", errors.New("read error")
}

type harness struct {
	fs        *filesystem.AferoFileSystem
	fetcher   *fakeFetcher
	extractor *fakeExtractor
	executor  *Executor
	prober    *Prober
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fs := filesystem.NewMemFileSystem().WithOwnerLookup(func(_, _ string) (int, int, error) {
		return 1000, 1000, nil
	})
	require.NoError(t, fs.MkdirAll("/opt", 0o755))

	fetcher := newFakeFetcher(fs)
	extractor := &fakeExtractor{fs: fs}
	digester := digest.New(fs)

	return &harness{
		fs:        fs,
		fetcher:   fetcher,
		extractor: extractor,
		executor:  NewExecutor(fs, fetcher, digester, extractor),
		prober:    NewProber(fs, digester),
	}
}

func (h *harness) reconciler() *Reconciler {
	return NewReconciler(h.prober, h.executor)
}

func (h *harness) write(t *testing.T, path, content string) {
	t.Helper()
	w, err := h.fs.Create(path, 0o644)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func (h *harness) read(t *testing.T, path string) string {
	t.Helper()
	r, err := h.fs.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func mustValidate(t *testing.T, d Descriptor) Descriptor {
	t.Helper()
	v, err := Validate(d)
	require.NoError(t, err)
	return v
}

// appDescriptor is the descriptor used by the worked examples.
func appDescriptor() Descriptor {
	return Descriptor{
		Path:         "/opt/app.tar.gz",
		Source:       "https://example.com/app.tar.gz",
		Checksum:     helloSHA256,
		ChecksumType: ChecksumSHA256,
		Extract:      SwitchTrue,
		ExtractPath:  "/opt/app",
		Cleanup:      SwitchTrue,
	}
}
