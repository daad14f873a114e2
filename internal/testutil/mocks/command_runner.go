// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
// Unregistered commands fail unless SucceedByDefault was called.
type CommandRunner struct {
	mu        sync.RWMutex
	results   map[string]ports.CommandResult
	errors    map[string]error
	calls     []ports.CommandCall
	succeedOK bool
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results: make(map[string]ports.CommandResult),
		errors:  make(map[string]error),
		calls:   make([]ports.CommandCall, 0),
	}
}

// SucceedByDefault makes unregistered commands exit 0 with no output.
func (m *CommandRunner) SucceedByDefault() *CommandRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.succeedOK = true
	return m
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should return an error.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, dir, command string, args ...string) (ports.CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, ports.CommandCall{
		Dir:     dir,
		Command: command,
		Args:    append([]string(nil), args...),
	})

	key := buildKey(command, args)
	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}
	if result, ok := m.results[key]; ok {
		return result, nil
	}
	if m.succeedOK {
		return ports.CommandResult{}, nil
	}
	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + "\x00" + strings.Join(args, "\x00")
}

// Ensure CommandRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*CommandRunner)(nil)
