package archive

import (
	"context"
	"errors"
	"os"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// ProbeRequest describes what to inspect.
type ProbeRequest struct {
	Path         string
	ChecksumType ChecksumType
	NeedDigest   bool
	Creates      string
}

// Prober inspects the current state of an archive path.
type Prober struct {
	fs       ports.FileSystem
	digester ports.Digester
}

// NewProber creates a new Prober.
func NewProber(fs ports.FileSystem, digester ports.Digester) *Prober {
	return &Prober{fs: fs, digester: digester}
}

// ProbeFor builds the request Decide needs for d.
func ProbeFor(d Descriptor) ProbeRequest {
	return ProbeRequest{
		Path:         d.Path,
		ChecksumType: d.ChecksumType,
		NeedDigest:   NeedsDigest(d),
		Creates:      d.Creates,
	}
}

// Probe reports whether the archive exists and, only when asked and a
// checksum type is set, its digest. A creates marker that exists makes the
// digest irrelevant, so it is not computed in that case.
//
// An existing path that cannot be read fails with ErrProbe instead of being
// reported as absent.
func (p *Prober) Probe(ctx context.Context, req ProbeRequest) (ObservedState, error) {
	if err := ctx.Err(); err != nil {
		return ObservedState{}, err
	}

	var observed ObservedState
	if req.Creates != "" {
		observed.CreatesExists = p.fs.Exists(req.Creates)
	}

	info, err := p.fs.Stat(req.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return observed, nil
	case err != nil:
		return observed, probeError(req.Path, "cannot stat archive", err)
	case info.IsDir:
		return observed, probeError(req.Path, "archive path is a directory", nil)
	}
	observed.Exists = true

	f, err := p.fs.Open(req.Path)
	if err != nil {
		return observed, probeError(req.Path, "archive is not readable", err)
	}
	_ = f.Close()

	if !req.NeedDigest || req.ChecksumType == ChecksumNone || req.ChecksumType == "" || observed.CreatesExists {
		return observed, nil
	}

	digest, err := p.digester.Digest(req.Path, string(req.ChecksumType))
	if err != nil {
		return observed, probeError(req.Path, "cannot compute "+string(req.ChecksumType)+" digest", err)
	}
	observed.Digest = digest
	return observed, nil
}

func probeError(path, message string, err error) *Error {
	return &Error{
		Code:       ErrCodeProbe,
		Message:    message,
		Path:       path,
		Underlying: err,
	}
}
