package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// ArchiveEntry is one member of a built archive. Names ending in "/" are
// directories.
type ArchiveEntry struct {
	Name string
	Body string
}

// ArchiveBuilder builds tar, tar.gz and zip payloads in memory.
type ArchiveBuilder struct {
	entries []ArchiveEntry
}

// NewArchiveBuilder creates a new archive builder.
func NewArchiveBuilder() *ArchiveBuilder {
	return &ArchiveBuilder{}
}

// WithDir adds a directory entry.
func (b *ArchiveBuilder) WithDir(name string) *ArchiveBuilder {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	b.entries = append(b.entries, ArchiveEntry{Name: name})
	return b
}

// WithFile adds a regular file entry.
func (b *ArchiveBuilder) WithFile(name, body string) *ArchiveBuilder {
	b.entries = append(b.entries, ArchiveEntry{Name: name, Body: body})
	return b
}

// Entries returns the entries added so far.
func (b *ArchiveBuilder) Entries() []ArchiveEntry {
	out := make([]ArchiveEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Tar returns an uncompressed tarball.
func (b *ArchiveBuilder) Tar(t testing.TB) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range b.entries {
		hdr := &tar.Header{Name: e.Name, Mode: 0o644, Size: int64(len(e.Body)), Typeflag: tar.TypeReg}
		if strings.HasSuffix(e.Name, "/") {
			hdr = &tar.Header{Name: e.Name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.Body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

// TarGz returns a gzip-compressed tarball.
func (b *ArchiveBuilder) TarGz(t testing.TB) []byte {
	t.Helper()
	return Gzip(t, b.Tar(t))
}

// Zip returns a zip archive.
func (b *ArchiveBuilder) Zip(t testing.TB) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range b.entries {
		w, err := zw.Create(e.Name)
		require.NoError(t, err)
		if !strings.HasSuffix(e.Name, "/") {
			_, err = w.Write([]byte(e.Body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// Gzip compresses data.
func Gzip(t testing.TB, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// ManifestEntry is one archive of a test manifest. Empty fields are omitted.
type ManifestEntry struct {
	Path         string
	Source       string
	Ensure       string
	Checksum     string
	ChecksumType string
	Extract      bool
	ExtractPath  string
	Creates      string
	Extra        map[string]string
}

// ManifestBuilder builds YAML manifests.
type ManifestBuilder struct {
	entries []ManifestEntry
}

// NewManifestBuilder creates a new manifest builder.
func NewManifestBuilder() *ManifestBuilder {
	return &ManifestBuilder{}
}

// WithArchive adds an archive entry.
func (b *ManifestBuilder) WithArchive(e ManifestEntry) *ManifestBuilder {
	b.entries = append(b.entries, e)
	return b
}

// YAML renders the manifest.
func (b *ManifestBuilder) YAML() string {
	var s strings.Builder
	if len(b.entries) == 0 {
		return "archives: []\n"
	}
	s.WriteString("archives:\n")
	for _, e := range b.entries {
		fmt.Fprintf(&s, "  - path: %q\n", e.Path)
		field := func(key, value string) {
			if value != "" {
				fmt.Fprintf(&s, "    %s: %q\n", key, value)
			}
		}
		field("source", e.Source)
		field("ensure", e.Ensure)
		field("checksum", e.Checksum)
		field("checksum_type", e.ChecksumType)
		if e.Extract {
			s.WriteString("    extract: true\n")
		}
		field("extract_path", e.ExtractPath)
		field("creates", e.Creates)
		for k, v := range e.Extra {
			field(k, v)
		}
	}
	return s.String()
}
