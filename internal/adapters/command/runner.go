// Package command runs external tools such as tar and unzip.
package command

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// RealRunner executes actual commands.
type RealRunner struct {
	env []string
}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// WithEnv returns a copy that appends env to the inherited environment.
func (r *RealRunner) WithEnv(env ...string) *RealRunner {
	clone := *r
	clone.env = append(append([]string(nil), r.env...), env...)
	return &clone
}

// Run executes a command in dir and returns the result. A non-zero exit is
// reported through the result, not as an error.
func (r *RealRunner) Run(ctx context.Context, dir, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// Ensure RealRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*RealRunner)(nil)
