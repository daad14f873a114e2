package ports

import (
	"context"
	"net/url"
)

// Credentials are passed through to the transport untouched.
type Credentials struct {
	Cookie   string
	Username string
	Password string
}

// HasBasicAuth reports whether a username was supplied.
func (c Credentials) HasBasicAuth() bool {
	return c.Username != ""
}

// Proxy describes how the transport should reach the source.
type Proxy struct {
	Type   string // none, ftp, http or https
	Server string
}

// Enabled reports whether a proxy must be used.
func (p Proxy) Enabled() bool {
	return p.Type != "" && p.Type != "none" && p.Server != ""
}

// URL parses the proxy server address.
func (p Proxy) URL() (*url.URL, error) {
	return url.Parse(p.Server)
}

// FetchRequest identifies what to download and how.
type FetchRequest struct {
	Source      string
	Credentials Credentials
	Proxy       Proxy
}

// Fetcher downloads a source to dest. Implementations must not leave a
// partially written dest behind on failure.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest, dest string) error
}

// ChecksumRequest asks for the expected digest of Filename published at URL.
type ChecksumRequest struct {
	URL         string
	Filename    string
	Credentials Credentials
	Proxy       Proxy
}

// ChecksumResolver looks up an expected digest from a remote checksum file.
type ChecksumResolver interface {
	Resolve(ctx context.Context, req ChecksumRequest) (string, error)
}

// Digester computes the hex digest of a file.
type Digester interface {
	Digest(path, algorithm string) (string, error)
}
