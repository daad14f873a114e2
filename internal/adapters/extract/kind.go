// Package extract unpacks downloaded archives, either natively or by
// running the usual command-line tools.
package extract

import (
	"path/filepath"
	"strings"
)

// Kind is an archive format.
type Kind string

// Archive kinds.
const (
	KindUnknown Kind = ""
	KindTar     Kind = "tar"
	KindTarGz   Kind = "tar.gz"
	KindTarBz2  Kind = "tar.bz2"
	KindTarXz   Kind = "tar.xz"
	KindTarZst  Kind = "tar.zst"
	KindZip     Kind = "zip"
	Kind7z      Kind = "7z"
	KindGz      Kind = "gz"
)

var suffixKinds = []struct {
	suffix string
	kind   Kind
}{
	{".tar.gz", KindTarGz},
	{".tgz", KindTarGz},
	{".tar.bz2", KindTarBz2},
	{".tbz", KindTarBz2},
	{".tbz2", KindTarBz2},
	{".tar.xz", KindTarXz},
	{".txz", KindTarXz},
	{".tar.zst", KindTarZst},
	{".tzst", KindTarZst},
	{".tar", KindTar},
	{".zip", KindZip},
	{".jar", KindZip},
	{".war", KindZip},
	{".7z", Kind7z},
	{".gz", KindGz},
}

// DetectKind infers the archive kind from its file name.
func DetectKind(name string) Kind {
	lower := strings.ToLower(filepath.Base(name))
	for _, sk := range suffixKinds {
		if strings.HasSuffix(lower, sk.suffix) {
			return sk.kind
		}
	}
	return KindUnknown
}

// Tool returns the command that unpacks k.
func (k Kind) Tool() string {
	switch k {
	case KindTar, KindTarGz, KindTarBz2, KindTarXz, KindTarZst:
		return "tar"
	case KindZip:
		return "unzip"
	case Kind7z:
		return "7z"
	case KindGz:
		return "gunzip"
	}
	return ""
}

// DefaultFlags returns the flags used when none are configured.
func (k Kind) DefaultFlags() string {
	switch k.Tool() {
	case "tar":
		return "xf"
	case "unzip":
		return "-o"
	case "7z":
		return "x -aoa"
	case "gunzip":
		return "-c"
	}
	return ""
}

// stripGz returns the name of the file a .gz archive decompresses to.
func stripGz(name string) string {
	base := filepath.Base(name)
	if strings.HasSuffix(strings.ToLower(base), ".gz") {
		return base[:len(base)-3]
	}
	return base
}
