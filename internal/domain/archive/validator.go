package archive

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	// checksumPattern matches a lowercase hex digest of 5 to 128 characters.
	// The length is not tied to the checksum type.
	checksumPattern = regexp.MustCompile(`^[0-9a-f]{5,128}$`)

	// windowsAbsPattern matches drive-letter and UNC absolute paths.
	windowsAbsPattern = regexp.MustCompile(`^(?:[A-Za-z]:[\\/]|\\\\[^\\/]+[\\/][^\\/]+)`)
)

var sourceSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"file":  true,
}

// Validate checks every field of d and, when all checks pass, returns a copy
// with the derived filename and a resolved proxy type. All violations are
// reported together in a *ValidationErrors.
func Validate(d Descriptor) (Descriptor, error) {
	errs := &ValidationErrors{path: d.Path}

	if !isAbsolutePath(d.Path) {
		errs.Add(newFieldError(ErrCodeInvalidPath, "path", "archive path must be absolute: %q", d.Path))
	}
	if d.ShouldExtract() && d.ExtractPath == "" {
		errs.Add(newFieldError(ErrCodeInvalidPath, "extract_path", "extract_path is required when extract is true"))
	}
	if d.ExtractPath != "" && !isAbsolutePath(d.ExtractPath) {
		errs.Add(newFieldError(ErrCodeInvalidPath, "extract_path", "archive extract_path must be absolute: %q", d.ExtractPath))
	}
	if d.Creates != "" && !isAbsolutePath(d.Creates) {
		errs.Add(newFieldError(ErrCodeInvalidPath, "creates", "creates must be absolute: %q", d.Creates))
	}

	// An absent archive needs no source.
	if d.Source != "" || d.Present() {
		if !isValidSource(d.Source) {
			errs.Add(newFieldError(ErrCodeInvalidSource, "source", "invalid source url: %q", d.Source))
		}
	}

	if d.ChecksumURL != "" && !isValidSource(d.ChecksumURL) {
		errs.Add(newFieldError(ErrCodeInvalidSource, "checksum_url", "invalid checksum url: %q", d.ChecksumURL))
	}

	if d.Checksum != "" && !checksumPattern.MatchString(d.Checksum) {
		errs.Add(newFieldError(ErrCodeInvalidChecksum, "checksum", "must be 5 to 128 lowercase hex characters: %q", d.Checksum))
	}

	if d.ChecksumType != "" && !d.ChecksumType.IsValid() {
		errs.Add(newFieldError(ErrCodeInvalidEnumValue, "checksum_type", "unknown checksum type %q", d.ChecksumType))
	}
	if d.ProxyType != "" && !d.ProxyType.IsValid() {
		errs.Add(newFieldError(ErrCodeInvalidEnumValue, "proxy_type", "unknown proxy type %q (none|ftp|http|https)", d.ProxyType))
	}
	if d.ProxyServer != "" && d.ProxyType == "" {
		if _, ok := proxyTypeOf(d.ProxyServer); !ok {
			errs.Add(newFieldError(ErrCodeInvalidEnumValue, "proxy_server", "cannot derive proxy type from %q", d.ProxyServer))
		}
	}
	if d.Ensure != "" && !d.Ensure.IsValid() {
		errs.Add(newFieldError(ErrCodeInvalidEnumValue, "ensure", "must be present or absent, got %q", d.Ensure))
	}
	for field, s := range map[string]Switch{
		"extract":         d.Extract,
		"cleanup":         d.Cleanup,
		"checksum_verify": d.ChecksumVerify,
	} {
		if !s.IsValid() {
			errs.Add(newFieldError(ErrCodeInvalidEnumValue, field, "must be true or false, got %q", s))
		}
	}

	if errs.HasErrors() {
		sortErrors(errs.errs)
		return Descriptor{}, errs
	}

	return derive(d), nil
}

// derive applies the defaults and the two derivations. It is a pure
// function of d.
func derive(d Descriptor) Descriptor {
	d.filename = baseName(d.Path)

	if d.ChecksumType == "" {
		d.ChecksumType = ChecksumNone
	}
	if d.Ensure == "" {
		d.Ensure = EnsurePresent
	}

	switch {
	case d.ProxyServer == "":
		d.ProxyType = ProxyNone
	case d.ProxyType == "":
		d.ProxyType, _ = proxyTypeOf(d.ProxyServer)
	}
	return d
}

// proxyTypeOf returns the proxy type named by the scheme of server.
func proxyTypeOf(server string) (ProxyType, bool) {
	u, err := url.Parse(server)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	pt := ProxyType(strings.ToLower(u.Scheme))
	if !pt.IsValid() || pt == ProxyNone {
		return "", false
	}
	return pt, true
}

func isAbsolutePath(p string) bool {
	if p == "" {
		return false
	}
	return strings.HasPrefix(p, "/") || windowsAbsPattern.MatchString(p)
}

func isValidSource(source string) bool {
	if isAbsolutePath(source) {
		return true
	}
	u, err := url.Parse(source)
	if err != nil || !sourceSchemes[strings.ToLower(u.Scheme)] {
		return false
	}
	if strings.EqualFold(u.Scheme, "file") {
		return u.Path != ""
	}
	return u.Host != ""
}

// baseName returns the last element of p, accepting both separators so
// Windows descriptors derive the same filename on every host.
func baseName(p string) string {
	trimmed := strings.TrimRight(p, `/\`)
	if trimmed == "" {
		return p
	}
	if i := strings.LastIndexAny(trimmed, `/\`); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// sortErrors orders violations by field so reports are deterministic.
func sortErrors(errs []*Error) {
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Field < errs[j].Field
	})
}
