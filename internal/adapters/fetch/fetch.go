// Package fetch downloads archive sources over http(s), ftp and the local
// file system.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// Router dispatches a fetch to the transport named by the source scheme.
// Absolute local paths are served by the file transport.
type Router struct {
	transports map[string]ports.Fetcher
}

// NewRouter creates a Router. Any transport may be nil.
func NewRouter(httpFetcher, ftpFetcher, fileFetcher ports.Fetcher) *Router {
	r := &Router{transports: map[string]ports.Fetcher{}}
	if httpFetcher != nil {
		r.transports["http"] = httpFetcher
		r.transports["https"] = httpFetcher
	}
	if ftpFetcher != nil {
		r.transports["ftp"] = ftpFetcher
	}
	if fileFetcher != nil {
		r.transports["file"] = fileFetcher
	}
	return r
}

// Fetch implements ports.Fetcher.
func (r *Router) Fetch(ctx context.Context, req ports.FetchRequest, dest string) error {
	scheme := Scheme(req.Source)
	f, ok := r.transports[scheme]
	if !ok {
		return fmt.Errorf("no transport for %q sources", scheme)
	}
	return f.Fetch(ctx, req, dest)
}

// Scheme returns the lowercase scheme of source, or "file" for local paths.
func Scheme(source string) string {
	if strings.HasPrefix(source, "/") || strings.HasPrefix(source, `\\`) || isDrivePath(source) {
		return "file"
	}
	u, err := url.Parse(source)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

func isDrivePath(p string) bool {
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

// writeDest streams r into dest and removes dest again if the copy fails.
func writeDest(fs ports.FileSystem, dest string, r io.Reader, w io.Writer) (int64, error) {
	out, err := fs.Create(dest, 0o644)
	if err != nil {
		return 0, err
	}

	var sink io.Writer = out
	if w != nil {
		sink = io.MultiWriter(out, w)
	}

	n, copyErr := io.Copy(sink, r)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = fs.Remove(dest)
		if copyErr != nil {
			return n, copyErr
		}
		return n, closeErr
	}
	return n, nil
}

// Ensure Router implements ports.Fetcher.
var _ ports.Fetcher = (*Router)(nil)
