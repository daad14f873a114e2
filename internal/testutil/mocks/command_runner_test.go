package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

func TestCommandRunner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	runner := NewCommandRunner()
	runner.AddResult("tar", []string{"xf", "a.tar"}, ports.CommandResult{ExitCode: 2, Stderr: "bad"})
	runner.AddError("unzip", []string{"a.zip"}, errors.New("exec: not found"))

	res, err := runner.Run(ctx, "/opt", "tar", "xf", "a.tar")
	require.NoError(t, err)
	assert.False(t, res.Success())

	_, err = runner.Run(ctx, "", "unzip", "a.zip")
	assert.EqualError(t, err, "exec: not found")

	_, err = runner.Run(ctx, "", "7z", "x")
	assert.Error(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "/opt", calls[0].Dir)
	assert.Equal(t, "unzip a.zip", calls[1].String())
}

func TestCommandRunner_SucceedByDefault(t *testing.T) {
	t.Parallel()

	runner := NewCommandRunner().SucceedByDefault()
	res, err := runner.Run(context.Background(), "/srv", "chown", "-R", "app", "/srv")
	require.NoError(t, err)
	assert.True(t, res.Success())
}
