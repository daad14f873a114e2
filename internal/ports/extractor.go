package ports

import (
	"context"
	"strings"

	"github.com/alessio/shellescape"
)

// ExtractRequest describes one extraction.
type ExtractRequest struct {
	Archive string // absolute path of the archive file
	Dest    string // absolute path of the target directory
	Command string // custom shell command; a single %s is replaced with the quoted Archive
	Flags   map[string]string
	User    string
	Group   string
}

// CommandLine returns the custom command with its placeholder filled by the
// shell-quoted archive path.
func (r ExtractRequest) CommandLine() string {
	if strings.Count(r.Command, "%s") == 1 {
		return strings.Replace(r.Command, "%s", shellescape.Quote(r.Archive), 1)
	}
	return r.Command
}

// FlagsFor returns the override flags for tool, if any.
// A single entry under "*" applies to every tool.
func (r ExtractRequest) FlagsFor(tool string) (string, bool) {
	if f, ok := r.Flags[tool]; ok {
		return f, true
	}
	f, ok := r.Flags["*"]
	return f, ok
}

// Extractor unpacks archives.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) error
}
