package runner

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/trimneck/internal/model"
)

// TestRun_Success verifies that a zero-exit command produces a
// CommandResult with the joined command line and captured stdout.
func TestRun_Success(t *testing.T) {
	r := New(NewLocalExecutor(), false, &bytes.Buffer{})

	result, err := r.Run(context.Background(), "", "sh", "-c", "echo hello")
	require.NoError(t, err)

	assert.Equal(t, "sh -c echo hello", result.CmdStr)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Empty(t, result.Stderr)
}

// TestRun_CapturesStderrSeparately verifies the two streams are not merged.
func TestRun_CapturesStderrSeparately(t *testing.T) {
	r := New(NewLocalExecutor(), false, &bytes.Buffer{})

	result, err := r.Run(context.Background(), "", "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)

	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
}

// TestRun_WorkDir verifies the command runs with the scratch directory as
// its working directory when one is given.
func TestRun_WorkDir(t *testing.T) {
	dir := t.TempDir()
	r := New(NewLocalExecutor(), false, &bytes.Buffer{})

	result, err := r.Run(context.Background(), dir, "pwd")
	require.NoError(t, err)

	// On macOS t.TempDir() may sit behind a /var symlink, so check for the
	// test-named path component rather than the full resolved path.
	assert.Contains(t, result.Stdout, "TestRun_WorkDir", "pwd output should be inside the temp dir")
}

// TestRun_NonZeroExit verifies that a failing command returns a
// PipelineError carrying the command line, and that both streams plus the
// command line are dumped to the console even when not verbose.
func TestRun_NonZeroExit(t *testing.T) {
	console := &bytes.Buffer{}
	r := New(NewLocalExecutor(), false, console)

	result, err := r.Run(context.Background(), "", "sh", "-c", "echo partial; echo broken 1>&2; exit 3")
	require.Error(t, err)
	assert.Nil(t, result)

	var pe *model.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "sh -c echo partial; echo broken 1>&2; exit 3", pe.Cmd)

	out := console.String()
	assert.Contains(t, out, "Error running command: sh -c")
	assert.Contains(t, out, "command stdout:\npartial")
	assert.Contains(t, out, "command stderr:\nbroken")
	// The diagnostic stack trace names this package's Run frame.
	assert.Contains(t, out, "runner")
}

// TestRun_VerboseEchoesCommandAndStreams verifies the verbose echo format:
// a running banner, the joined command line, and both streams.
func TestRun_VerboseEchoesCommandAndStreams(t *testing.T) {
	console := &bytes.Buffer{}
	r := New(NewLocalExecutor(), true, console)

	_, err := r.Run(context.Background(), "", "sh", "-c", "echo visible")
	require.NoError(t, err)

	out := console.String()
	assert.Contains(t, out, "--- Running sh ---")
	assert.Contains(t, out, "sh -c echo visible")
	assert.Contains(t, out, "--- command stdout ---")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "--- end sh ---")
}

// TestRun_MissingBinary verifies that an unresolvable tool name fails with
// a PipelineError rather than a panic or silent success.
func TestRun_MissingBinary(t *testing.T) {
	r := New(NewLocalExecutor(), false, &bytes.Buffer{})

	_, err := r.Run(context.Background(), "", "definitely-not-a-real-tool-4027")
	require.Error(t, err)

	var pe *model.PipelineError
	assert.True(t, errors.As(err, &pe))
}

// TestRun_EmptyCommand verifies the non-empty argv precondition.
func TestRun_EmptyCommand(t *testing.T) {
	r := New(NewLocalExecutor(), false, &bytes.Buffer{})

	_, err := r.Run(context.Background(), "")
	assert.Error(t, err)
}

// TestProbe verifies the help-style availability check both ways.
func TestProbe(t *testing.T) {
	console := &bytes.Buffer{}
	r := New(NewLocalExecutor(), false, console)

	// `true` ignores -h and exits 0, standing in for a well-behaved tool.
	assert.NoError(t, r.Probe(context.Background(), "true"))

	// A tool that is not installed must fail the probe.
	assert.Error(t, r.Probe(context.Background(), "definitely-not-a-real-tool-4027"))
}
