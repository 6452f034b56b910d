package native_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/native"
)

// writeScript writes an executable shell script and returns its path.
// native.Run shells out to a real binary, so these tests exercise the
// real exec.Cmd/process-group path rather than mocking it.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRunCapturesStdoutAndExitCode(t *testing.T) {
	path := writeScript(t, `echo hello; exit 0`)
	res, err := native.Run(path, native.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestRunPropagatesNonZeroExitCode(t *testing.T) {
	path := writeScript(t, `exit 7`)
	res, err := native.Run(path, native.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)
}

func TestRunPassesThroughArgs(t *testing.T) {
	path := writeScript(t, `echo "$1-$2"`)
	res, err := native.Run(path, native.RunOptions{Args: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a-b\n", res.Stdout)
}

func TestRunEnforcesTimeoutAndKillsProcessGroup(t *testing.T) {
	path := writeScript(t, `sleep 5; echo should-not-appear`)
	res, err := native.Run(path, native.RunOptions{Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Equal(t, native.TimeoutExitCode, res.ExitCode)
	assert.NotContains(t, res.Stdout, "should-not-appear")
}

func TestCompileReportsMissingLLCAsDriverError(t *testing.T) {
	dir := t.TempDir()
	irPath := filepath.Join(dir, "out.ll")
	require.NoError(t, os.WriteFile(irPath, []byte("; empty\n"), 0o644))

	err := native.Compile(irPath, filepath.Join(dir, "out"), filepath.Join(dir, "shim.c"),
		native.CompileOptions{LLCPath: filepath.Join(dir, "no-such-llc")})
	require.Error(t, err)
	rep, ok := err.(*diag.Report)
	require.True(t, ok, "expected *diag.Report, got %T", err)
	assert.Equal(t, diag.DRV003, rep.Code)
}
