// Package digest computes archive checksums.
package digest

import (
	"crypto/md5"  //nolint:gosec // md5 is a supported archive checksum type
	"crypto/sha1" //nolint:gosec // sha1 is a supported archive checksum type
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	godigest "github.com/opencontainers/go-digest"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// Digester computes hex digests of files read through a ports.FileSystem.
type Digester struct {
	fs ports.FileSystem
}

// New creates a new Digester.
func New(fs ports.FileSystem) *Digester {
	return &Digester{fs: fs}
}

// Algorithm maps a checksum type to the go-digest algorithm that computes it.
// sha2 is an alias of sha256. md5 and sha1 are not go-digest algorithms.
func Algorithm(checksumType string) (godigest.Algorithm, bool) {
	switch strings.ToLower(checksumType) {
	case "sha2", "sha256":
		return godigest.SHA256, true
	case "sha384":
		return godigest.SHA384, true
	case "sha512":
		return godigest.SHA512, true
	}
	return "", false
}

// Digest returns the lowercase hex digest of the file at path.
func (d *Digester) Digest(path, algorithm string) (string, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	return FromReader(f, algorithm)
}

// FromReader digests r with algorithm.
func FromReader(r io.Reader, algorithm string) (string, error) {
	if alg, ok := Algorithm(algorithm); ok {
		if !alg.Available() {
			return "", fmt.Errorf("digest algorithm %s is not available", alg)
		}
		dgst, err := alg.FromReader(r)
		if err != nil {
			return "", err
		}
		return dgst.Encoded(), nil
	}

	var h hash.Hash
	switch strings.ToLower(algorithm) {
	case "md5":
		h = md5.New() //nolint:gosec
	case "sha1":
		h = sha1.New() //nolint:gosec
	default:
		return "", fmt.Errorf("unsupported checksum type %q", algorithm)
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Ensure Digester implements ports.Digester.
var _ ports.Digester = (*Digester)(nil)
