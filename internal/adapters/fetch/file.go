package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// FileFetcher copies file:// sources and absolute local paths.
type FileFetcher struct {
	fs ports.FileSystem
}

// NewFileFetcher creates a new FileFetcher.
func NewFileFetcher(fs ports.FileSystem) *FileFetcher {
	return &FileFetcher{fs: fs}
}

// Fetch implements ports.Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context, req ports.FetchRequest, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := LocalPath(req.Source)
	if err != nil {
		return err
	}

	in, err := f.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	if _, err := writeDest(f.fs, dest, in, nil); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

// LocalPath turns a file:// URL or local path into a path.
func LocalPath(source string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(source), "file:") {
		return source, nil
	}
	u, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("invalid file source: %w", err)
	}
	if u.Path == "" {
		return "", fmt.Errorf("file source %s has no path", source)
	}
	return u.Path, nil
}

// Ensure FileFetcher implements ports.Fetcher.
var _ ports.Fetcher = (*FileFetcher)(nil)
