package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// maxChecksumFile bounds how much of a checksum file is read.
const maxChecksumFile = 1 << 20

// RemoteChecksum resolves an expected digest by downloading a checksum file
// with any Fetcher.
type RemoteChecksum struct {
	fetcher ports.Fetcher
	fs      ports.FileSystem
	tempDir string
}

// NewRemoteChecksum creates a resolver that stages checksum files in the
// system temp directory.
func NewRemoteChecksum(fetcher ports.Fetcher, fs ports.FileSystem) *RemoteChecksum {
	return &RemoteChecksum{fetcher: fetcher, fs: fs, tempDir: os.TempDir()}
}

// WithTempDir returns a copy that stages checksum files in dir.
func (c *RemoteChecksum) WithTempDir(dir string) *RemoteChecksum {
	clone := *c
	clone.tempDir = dir
	return &clone
}

// Resolve implements ports.ChecksumResolver.
func (c *RemoteChecksum) Resolve(ctx context.Context, req ports.ChecksumRequest) (string, error) {
	tmp := filepath.Join(c.tempDir, "archivist-"+uuid.NewString()+".sum")
	defer func() { _ = c.fs.Remove(tmp) }()

	err := c.fetcher.Fetch(ctx, ports.FetchRequest{
		Source:      req.URL,
		Credentials: req.Credentials,
		Proxy:       req.Proxy,
	}, tmp)
	if err != nil {
		return "", err
	}

	f, err := c.fs.Open(tmp)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	return ParseChecksumFile(io.LimitReader(f, maxChecksumFile), req.Filename)
}

// ParseChecksumFile extracts the digest for filename from the output of
// sha256sum-style tools, BSD-style "SHA256 (file) = digest" lines, or a
// file holding a single digest.
func ParseChecksumFile(r io.Reader, filename string) (string, error) {
	var (
		single string
		lines  int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines++

		if name, sum, ok := parseBSDLine(line); ok {
			if name == filename {
				return strings.ToLower(sum), nil
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 1 {
			single = fields[0]
			continue
		}
		name := strings.TrimPrefix(fields[len(fields)-1], "*")
		if name == filename || filepath.Base(name) == filename {
			return strings.ToLower(fields[0]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	if lines == 1 && single != "" {
		return strings.ToLower(single), nil
	}
	return "", fmt.Errorf("no checksum for %s", filename)
}

// parseBSDLine parses "ALGO (name) = digest".
func parseBSDLine(line string) (string, string, bool) {
	open := strings.Index(line, " (")
	closeEq := strings.LastIndex(line, ") = ")
	if open < 0 || closeEq < open {
		return "", "", false
	}
	return line[open+2 : closeEq], strings.TrimSpace(line[closeEq+4:]), true
}

// Ensure RemoteChecksum implements ports.ChecksumResolver.
var _ ports.ChecksumResolver = (*RemoteChecksum)(nil)
