package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// CommandExtractor runs tar, unzip, 7z or gunzip inside the destination
// directory. A custom command is run through sh -c.
type CommandExtractor struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewCommandExtractor creates a new CommandExtractor.
func NewCommandExtractor(runner ports.CommandRunner, fs ports.FileSystem) *CommandExtractor {
	return &CommandExtractor{runner: runner, fs: fs}
}

// Extract implements ports.Extractor.
func (e *CommandExtractor) Extract(ctx context.Context, req ports.ExtractRequest) error {
	if req.Command != "" {
		if err := e.run(ctx, req.Dest, ports.CommandCall{Command: "sh", Args: []string{"-c", req.CommandLine()}}); err != nil {
			return err
		}
		return e.chown(ctx, req)
	}

	kind := DetectKind(req.Archive)
	if kind == KindUnknown {
		return fmt.Errorf("cannot tell how to extract %s", filepath.Base(req.Archive))
	}

	if kind == KindGz {
		if err := e.gunzip(ctx, req); err != nil {
			return err
		}
		return e.chown(ctx, req)
	}

	if err := e.run(ctx, req.Dest, Command(kind, req)); err != nil {
		return err
	}
	return e.chown(ctx, req)
}

// Command builds the tool invocation for kind.
func Command(kind Kind, req ports.ExtractRequest) ports.CommandCall {
	tool := kind.Tool()
	flags, ok := req.FlagsFor(tool)
	if !ok {
		flags = kind.DefaultFlags()
	}
	args := strings.Fields(flags)

	switch tool {
	case "unzip":
		args = append(args, req.Archive, "-d", req.Dest)
	case "7z":
		args = append(args, req.Archive, "-o"+req.Dest)
	default:
		args = append(args, req.Archive)
	}
	return ports.CommandCall{Dir: req.Dest, Command: tool, Args: args}
}

// gunzip writes the decompressed stream next to the other extracted files.
func (e *CommandExtractor) gunzip(ctx context.Context, req ports.ExtractRequest) error {
	call := Command(KindGz, req)
	result, err := e.runner.Run(ctx, call.Dir, call.Command, call.Args...)
	if err != nil {
		return fmt.Errorf("%s: %w", call, err)
	}
	if !result.Success() {
		return commandFailed(call, result)
	}

	out, err := e.fs.Create(filepath.Join(req.Dest, stripGz(req.Archive)), 0o644)
	if err != nil {
		return err
	}
	if _, err := out.Write([]byte(result.Stdout)); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (e *CommandExtractor) chown(ctx context.Context, req ports.ExtractRequest) error {
	if req.User == "" && req.Group == "" {
		return nil
	}
	owner := req.User
	if req.Group != "" {
		owner += ":" + req.Group
	}
	return e.run(ctx, "", ports.CommandCall{Command: "chown", Args: []string{"-R", owner, req.Dest}})
}

func (e *CommandExtractor) run(ctx context.Context, dir string, call ports.CommandCall) error {
	result, err := e.runner.Run(ctx, dir, call.Command, call.Args...)
	if err != nil {
		return fmt.Errorf("%s: %w", call, err)
	}
	if !result.Success() {
		return commandFailed(call, result)
	}
	return nil
}

func commandFailed(call ports.CommandCall, result ports.CommandResult) error {
	msg := strings.TrimSpace(result.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(result.Stdout)
	}
	return fmt.Errorf("%s: exit status %d: %s", call, result.ExitCode, msg)
}

// Ensure CommandExtractor implements ports.Extractor.
var _ ports.Extractor = (*CommandExtractor)(nil)
