package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archivist/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archivist/internal/ports"
)

const sum = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestParseChecksumFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"single digest", sum + "\n", sum, false},
		{"single digest uppercase", strings.ToUpper(sum), sum, false},
		{"sha256sum list", "0000000000  other.tar.gz\n" + sum + "  app.tar.gz\n", sum, false},
		{"binary marker", sum + " *app.tar.gz\n", sum, false},
		{"path in list", sum + "  dist/app.tar.gz\n", sum, false},
		{"bsd style", "SHA256 (app.tar.gz) = " + sum + "\n", sum, false},
		{"comments", "# release sums\n\n" + sum + "  app.tar.gz\n", sum, false},
		{"missing entry", sum + "  other.tar.gz\n", "", true},
		{"empty", "", "", true},
		{"several bare digests", sum + "\n" + sum + "\n", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseChecksumFile(strings.NewReader(tt.content), "app.tar.gz")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type bodyFetcher struct {
	fs   ports.FileSystem
	body string
	err  error
}

func (b bodyFetcher) Fetch(_ context.Context, _ ports.FetchRequest, dest string) error {
	if b.err != nil {
		return b.err
	}
	_, err := writeDest(b.fs, dest, strings.NewReader(b.body), nil)
	return err
}

func TestRemoteChecksum_Resolve(t *testing.T) {
	t.Parallel()
	fs := filesystem.NewMemFileSystem()
	c := NewRemoteChecksum(bodyFetcher{fs: fs, body: sum + "  app.tar.gz\n"}, fs).WithTempDir("/tmp")

	got, err := c.Resolve(context.Background(), ports.ChecksumRequest{URL: "https://example.com/SHA256SUMS", Filename: "app.tar.gz"})
	require.NoError(t, err)
	assert.Equal(t, sum, got)
}

func TestRemoteChecksum_FetchError(t *testing.T) {
	t.Parallel()
	fs := filesystem.NewMemFileSystem()
	c := NewRemoteChecksum(bodyFetcher{fs: fs, err: errors.New("timeout")}, fs)

	_, err := c.Resolve(context.Background(), ports.ChecksumRequest{URL: "https://example.com/SHA256SUMS", Filename: "app.tar.gz"})
	assert.EqualError(t, err, "timeout")
}
