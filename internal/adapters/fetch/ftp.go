package fetch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

const defaultFTPPort = "21"

// FTPFetcher downloads ftp sources. Sources without credentials log in
// anonymously.
type FTPFetcher struct {
	fs      ports.FileSystem
	timeout time.Duration
}

// NewFTPFetcher creates a new FTPFetcher writing through fs.
func NewFTPFetcher(fs ports.FileSystem, timeout time.Duration) *FTPFetcher {
	return &FTPFetcher{fs: fs, timeout: timeout}
}

// Fetch implements ports.Fetcher.
func (f *FTPFetcher) Fetch(ctx context.Context, req ports.FetchRequest, dest string) error {
	u, err := url.Parse(req.Source)
	if err != nil {
		return fmt.Errorf("invalid ftp source: %w", err)
	}
	if u.Path == "" {
		return fmt.Errorf("ftp source %s has no path", req.Source)
	}

	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if f.timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(f.timeout))
	}
	conn, err := ftp.Dial(ftpAddr(u), opts...)
	if err != nil {
		return fmt.Errorf("connect %s: %w", u.Host, err)
	}
	defer func() { _ = conn.Quit() }()

	user, pass := ftpLogin(u, req.Credentials)
	if err := conn.Login(user, pass); err != nil {
		return fmt.Errorf("login %s as %s: %w", u.Host, user, err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return fmt.Errorf("retrieve %s: %w", u.Path, err)
	}
	defer func() { _ = resp.Close() }()

	if _, err := writeDest(f.fs, dest, resp, nil); err != nil {
		return fmt.Errorf("download %s: %w", req.Source, err)
	}
	return nil
}

func ftpAddr(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	return net.JoinHostPort(u.Hostname(), defaultFTPPort)
}

// ftpLogin prefers descriptor credentials over userinfo in the URL.
func ftpLogin(u *url.URL, creds ports.Credentials) (string, string) {
	if creds.HasBasicAuth() {
		return creds.Username, creds.Password
	}
	if u.User != nil {
		pass, _ := u.User.Password()
		return u.User.Username(), pass
	}
	return "anonymous", "anonymous"
}

// Ensure FTPFetcher implements ports.Fetcher.
var _ ports.Fetcher = (*FTPFetcher)(nil)
