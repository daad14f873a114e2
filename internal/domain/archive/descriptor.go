// Package archive converges archive resources on the local filesystem.
//
// A reconciliation pass validates a Descriptor, probes the ObservedState of its
// target path, decides exactly one Action (no-op, create, replace or remove),
// narrates it and finally executes it through the collaborator ports.
package archive

import (
	"strings"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// ChecksumType names a digest algorithm.
type ChecksumType string

// Supported checksum types.
const (
	ChecksumNone   ChecksumType = "none"
	ChecksumMD5    ChecksumType = "md5"
	ChecksumSHA1   ChecksumType = "sha1"
	ChecksumSHA2   ChecksumType = "sha2"
	ChecksumSHA256 ChecksumType = "sha256"
	ChecksumSHA384 ChecksumType = "sha384"
	ChecksumSHA512 ChecksumType = "sha512"
)

// ChecksumTypes lists every accepted checksum type.
var ChecksumTypes = []ChecksumType{
	ChecksumNone, ChecksumMD5, ChecksumSHA1, ChecksumSHA2,
	ChecksumSHA256, ChecksumSHA384, ChecksumSHA512,
}

// String returns the string representation of the checksum type.
func (c ChecksumType) String() string {
	return string(c)
}

// IsValid reports whether c is one of the supported types.
func (c ChecksumType) IsValid() bool {
	for _, t := range ChecksumTypes {
		if c == t {
			return true
		}
	}
	return false
}

// ProxyType names the protocol used to talk to a proxy.
type ProxyType string

// Supported proxy types.
const (
	ProxyNone  ProxyType = "none"
	ProxyFTP   ProxyType = "ftp"
	ProxyHTTP  ProxyType = "http"
	ProxyHTTPS ProxyType = "https"
)

// IsValid reports whether p is one of the supported proxy types.
func (p ProxyType) IsValid() bool {
	switch p {
	case ProxyNone, ProxyFTP, ProxyHTTP, ProxyHTTPS:
		return true
	}
	return false
}

// Ensure is the desired presence of the archive file.
type Ensure string

// Ensure values.
const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// IsValid reports whether e is present or absent.
func (e Ensure) IsValid() bool {
	return e == EnsurePresent || e == EnsureAbsent
}

// Switch is a boolean parameter that must be spelled "true" or "false".
// The empty value selects the parameter's default.
type Switch string

// Switch values.
const (
	SwitchUnset Switch = ""
	SwitchTrue  Switch = "true"
	SwitchFalse Switch = "false"
)

// On returns a set Switch for b.
func On(b bool) Switch {
	if b {
		return SwitchTrue
	}
	return SwitchFalse
}

// IsValid reports whether s is unset, true or false.
func (s Switch) IsValid() bool {
	return s == SwitchUnset || s == SwitchTrue || s == SwitchFalse
}

// Enabled resolves the switch against its default.
func (s Switch) Enabled(def bool) bool {
	switch s {
	case SwitchTrue:
		return true
	case SwitchFalse:
		return false
	}
	return def
}

// ExtractFlags overrides the default flags of extraction tools, keyed by tool
// name ("tar", "unzip", "7z", "gunzip"). The "*" key applies to any tool.
type ExtractFlags map[string]string

// FlagsForAllTools builds ExtractFlags from a single flag string.
func FlagsForAllTools(flags string) ExtractFlags {
	if flags == "" {
		return nil
	}
	return ExtractFlags{"*": flags}
}

// Descriptor is the desired state of one archive resource. It is a value:
// a pass works on its own copy and never shares it.
type Descriptor struct {
	Path           string
	Source         string
	Checksum       string
	ChecksumType   ChecksumType
	ChecksumURL    string
	ChecksumVerify Switch
	Extract        Switch
	ExtractPath    string
	ExtractCommand string
	ExtractFlags   ExtractFlags
	Cleanup        Switch
	Creates        string
	Cookie         string
	Username       string
	Password       string
	User           string
	Group          string
	ProxyType      ProxyType
	ProxyServer    string
	Ensure         Ensure

	// filename is derived from Path by Validate.
	filename string
}

// Filename returns the archive file name derived during validation.
// It is empty for descriptors that have not been validated.
func (d Descriptor) Filename() string {
	return d.filename
}

// Present reports whether the archive should exist.
func (d Descriptor) Present() bool {
	return d.Ensure != EnsureAbsent
}

// ShouldExtract reports whether the archive is extracted after download.
func (d Descriptor) ShouldExtract() bool {
	return d.Extract.Enabled(false)
}

// ShouldCleanup reports whether the archive is removed after extraction.
func (d Descriptor) ShouldCleanup() bool {
	return d.Cleanup.Enabled(true)
}

// ShouldVerify reports whether checksums are compared at all.
func (d Descriptor) ShouldVerify() bool {
	return d.ChecksumVerify.Enabled(true)
}

// ComparesChecksum reports whether an existing or fetched archive is
// compared against an expected digest.
func (d Descriptor) ComparesChecksum() bool {
	return d.Checksum != "" && d.ShouldVerify() && d.ChecksumType != ChecksumNone && d.ChecksumType != ""
}

// WithChecksum returns a copy carrying the expected digest.
func (d Descriptor) WithChecksum(sum string) Descriptor {
	d.Checksum = strings.ToLower(sum)
	return d
}

// ExtractCommandLine returns the custom extraction command with a single
// %s placeholder replaced by the archive filename.
func (d Descriptor) ExtractCommandLine() string {
	if strings.Count(d.ExtractCommand, "%s") == 1 {
		return strings.Replace(d.ExtractCommand, "%s", d.filename, 1)
	}
	return d.ExtractCommand
}

// Credentials returns the transport credentials.
func (d Descriptor) Credentials() ports.Credentials {
	return ports.Credentials{
		Cookie:   d.Cookie,
		Username: d.Username,
		Password: d.Password,
	}
}

// Proxy returns the proxy settings.
func (d Descriptor) Proxy() ports.Proxy {
	return ports.Proxy{
		Type:   string(d.ProxyType),
		Server: d.ProxyServer,
	}
}
