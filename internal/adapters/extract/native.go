package extract

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// ErrUnsupported is returned for kinds the native extractor cannot read.
var ErrUnsupported = errors.New("archive kind not supported natively")

// NativeExtractor unpacks tar (plain, gzip, bzip2, xz, zstd), zip and gz
// archives in-process. Entries that would land outside the destination are
// rejected.
type NativeExtractor struct {
	fs ports.FileSystem
}

// NewNativeExtractor creates a new NativeExtractor.
func NewNativeExtractor(fs ports.FileSystem) *NativeExtractor {
	return &NativeExtractor{fs: fs}
}

// Supports reports whether kind can be extracted natively.
func (e *NativeExtractor) Supports(kind Kind) bool {
	switch kind {
	case KindTar, KindTarGz, KindTarBz2, KindTarXz, KindTarZst, KindZip, KindGz:
		return true
	}
	return false
}

// Extract implements ports.Extractor.
func (e *NativeExtractor) Extract(ctx context.Context, req ports.ExtractRequest) error {
	kind := DetectKind(req.Archive)
	if !e.Supports(kind) {
		return fmt.Errorf("%s: %w", filepath.Base(req.Archive), ErrUnsupported)
	}

	f, err := e.fs.Open(req.Archive)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := &entryWriter{ctx: ctx, fs: e.fs, dest: req.Dest, user: req.User, group: req.Group}
	if err := e.fs.MkdirAll(req.Dest, 0o755); err != nil {
		return err
	}

	switch kind {
	case KindZip:
		return w.zip(f)
	case KindGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer func() { _ = gz.Close() }()
		return w.file(stripGz(req.Archive), gz, 0o644)
	}

	r, closeFn, err := decompress(kind, f)
	if err != nil {
		return err
	}
	defer closeFn()
	return w.tar(r)
}

func decompress(kind Kind, r io.Reader) (io.Reader, func(), error) {
	nop := func() {}
	switch kind {
	case KindTar:
		return r, nop, nil
	case KindTarGz:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { _ = gz.Close() }, nil
	case KindTarBz2:
		return bzip2.NewReader(r), nop, nil
	case KindTarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, nop, nil
	case KindTarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	}
	return nil, nil, ErrUnsupported
}

// entryWriter materializes archive entries below dest.
type entryWriter struct {
	ctx   context.Context
	fs    ports.FileSystem
	dest  string
	user  string
	group string
}

func (w *entryWriter) tar(r io.Reader) error {
	tr := tar.NewReader(r)
	for {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := w.dir(hdr.Name, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := w.file(hdr.Name, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		}
	}
}

func (w *entryWriter) zip(f io.Reader) error {
	ra, ok := f.(io.ReaderAt)
	if !ok {
		return errors.New("zip extraction needs random access to the archive")
	}
	seeker, ok := f.(io.Seeker)
	if !ok {
		return errors.New("zip extraction needs the archive size")
	}
	size, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return err
	}
	for _, entry := range zr.File {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			if err := w.dir(entry.Name, 0o755); err != nil {
				return err
			}
			continue
		}
		if !entry.Mode().IsRegular() {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return err
		}
		err = w.file(entry.Name, rc, entry.Mode().Perm())
		_ = rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func cleanEntry(name string) string {
	return filepath.Clean(strings.TrimSpace(filepath.FromSlash(name)))
}

func (w *entryWriter) target(name string) (string, error) {
	clean := cleanEntry(name)
	if clean == "." || clean == "" || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid archive entry %q", name)
	}
	target := filepath.Join(w.dest, clean)
	if !ports.IsPathWithinRoot(w.dest, target) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, w.dest)
	}
	return target, nil
}

// dir creates a directory entry. A "./" entry names the destination itself.
func (w *entryWriter) dir(name string, perm os.FileMode) error {
	target := w.dest
	if cleanEntry(name) != "." {
		var err error
		if target, err = w.target(name); err != nil {
			return err
		}
	}
	if perm == 0 {
		perm = 0o755
	}
	if err := w.fs.MkdirAll(target, perm); err != nil {
		return err
	}
	return w.chown(target)
}

func (w *entryWriter) file(name string, r io.Reader, perm os.FileMode) error {
	target, err := w.target(name)
	if err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	if err := w.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	out, err := w.fs.Create(target, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return w.chown(target)
}

func (w *entryWriter) chown(path string) error {
	if w.user == "" && w.group == "" {
		return nil
	}
	return w.fs.Chown(path, w.user, w.group)
}

// Ensure NativeExtractor implements ports.Extractor.
var _ ports.Extractor = (*NativeExtractor)(nil)
