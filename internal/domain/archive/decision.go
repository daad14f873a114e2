package archive

import "strings"

// ObservedState is what the prober found at the target path during this pass.
// It is never reused across passes.
type ObservedState struct {
	Exists        bool
	Digest        string
	CreatesExists bool
}

// HasDigest reports whether a digest was computed.
func (o ObservedState) HasDigest() bool {
	return o.Digest != ""
}

// NeedsDigest reports whether Decide will compare the digest of an existing
// archive. The prober computes it only in that case.
func NeedsDigest(d Descriptor) bool {
	return d.Present() && d.ComparesChecksum()
}

// Decide selects exactly one action for d given what was observed.
//
// A creates marker wins over any checksum comparison, and a checksum
// mismatch always yields Replace rather than Remove followed by Create.
func Decide(d Descriptor, observed ObservedState) Action {
	if !d.Present() {
		if observed.Exists {
			return Remove{Path: d.Path}
		}
		return NoOp{Path: d.Path, Reason: ReasonAbsent}
	}

	if d.Creates != "" && observed.CreatesExists {
		return NoOp{Path: d.Path, Reason: ReasonCreatesExists}
	}

	if !observed.Exists {
		return Create{
			Path:        d.Path,
			Source:      d.Source,
			Extract:     d.ShouldExtract(),
			ExtractPath: d.ExtractPath,
			Creates:     d.Creates,
			Cleanup:     d.ShouldCleanup(),
		}
	}

	if d.ComparesChecksum() {
		if strings.EqualFold(observed.Digest, d.Checksum) {
			return NoOp{Path: d.Path, Reason: ReasonChecksumMatch}
		}
		return Replace{
			Path:      d.Path,
			Source:    d.Source,
			Algorithm: d.ChecksumType,
			Current:   observed.Digest,
			Desired:   d.Checksum,
		}
	}

	return NoOp{Path: d.Path, Reason: ReasonPresent}
}
