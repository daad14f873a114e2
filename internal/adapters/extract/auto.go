package extract

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// Backend selects how archives are extracted.
type Backend string

// Extraction backends.
const (
	BackendAuto    Backend = "auto"
	BackendNative  Backend = "native"
	BackendCommand Backend = "command"
)

// ParseBackend validates a backend name. Empty means auto.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendNative, BackendCommand:
		return b, nil
	}
	return "", fmt.Errorf("unknown extract backend %q (auto|native|command)", s)
}

// Auto uses the native extractor when it can honor the request and falls
// back to the command-line tools otherwise. Custom commands and flags
// always go to the tools.
type Auto struct {
	native  *NativeExtractor
	command *CommandExtractor
}

// NewAuto creates a new Auto extractor.
func NewAuto(native *NativeExtractor, command *CommandExtractor) *Auto {
	return &Auto{native: native, command: command}
}

// Extract implements ports.Extractor.
func (a *Auto) Extract(ctx context.Context, req ports.ExtractRequest) error {
	if req.Command == "" && len(req.Flags) == 0 && a.native.Supports(DetectKind(req.Archive)) {
		return a.native.Extract(ctx, req)
	}
	return a.command.Extract(ctx, req)
}

// New builds the extractor for backend.
func New(backend Backend, fs ports.FileSystem, runner ports.CommandRunner) (ports.Extractor, error) {
	native := NewNativeExtractor(fs)
	command := NewCommandExtractor(runner, fs)
	switch backend {
	case BackendNative:
		return native, nil
	case BackendCommand:
		return command, nil
	case BackendAuto, "":
		return NewAuto(native, command), nil
	}
	return nil, fmt.Errorf("unknown extract backend %q", backend)
}

// Ensure Auto implements ports.Extractor.
var _ ports.Extractor = (*Auto)(nil)
