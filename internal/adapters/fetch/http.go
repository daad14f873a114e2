package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "archivist"

// HTTPFetcher downloads http and https sources.
type HTTPFetcher struct {
	fs        ports.FileSystem
	timeout   time.Duration
	userAgent string
	progress  io.Writer
	transport http.RoundTripper
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithTimeout bounds each request, including reading the body. Zero means
// no limit.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithProgress renders a progress bar to w for responses of known size.
func WithProgress(w io.Writer) HTTPOption {
	return func(f *HTTPFetcher) {
		f.progress = w
	}
}

// WithTransport replaces the base transport.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(f *HTTPFetcher) {
		f.transport = rt
	}
}

// NewHTTPFetcher creates a new HTTPFetcher writing through fs.
func NewHTTPFetcher(fs ports.FileSystem, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{fs: fs, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements ports.Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, req ports.FetchRequest, dest string) error {
	client, err := f.client(req.Proxy)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.Source, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	if req.Credentials.Cookie != "" {
		httpReq.Header.Set("Cookie", req.Credentials.Cookie)
	}
	if req.Credentials.HasBasicAuth() {
		httpReq.SetBasicAuth(req.Credentials.Username, req.Credentials.Password)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var bar io.Writer
	if f.progress != nil && resp.ContentLength > 0 {
		pb := progressbar.NewOptions(int(resp.ContentLength),
			progressbar.OptionSetWriter(f.progress),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetDescription("downloading "+req.Source),
		)
		defer func() { _ = pb.Finish() }()
		bar = pb
	}

	n, err := writeDest(f.fs, dest, resp.Body, bar)
	if err != nil {
		return fmt.Errorf("download %s: %w", req.Source, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		_ = f.fs.Remove(dest)
		return fmt.Errorf("download %s: short body: got %d of %d bytes", req.Source, n, resp.ContentLength)
	}
	return nil
}

func (f *HTTPFetcher) client(proxy ports.Proxy) (*http.Client, error) {
	base := f.transport
	if base == nil {
		base = http.DefaultTransport
	}

	if proxy.Enabled() {
		proxyURL, err := proxy.URL()
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy.Server, err)
		}
		t, ok := base.(*http.Transport)
		if !ok {
			return nil, fmt.Errorf("proxy %s needs an *http.Transport", proxy.Server)
		}
		t = t.Clone()
		t.Proxy = http.ProxyURL(proxyURL)
		base = t
	}

	return &http.Client{Transport: base, Timeout: f.timeout}, nil
}

// Ensure HTTPFetcher implements ports.Fetcher.
var _ ports.Fetcher = (*HTTPFetcher)(nil)
