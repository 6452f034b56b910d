package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProgram = `
fn add(a: Int, b: Int) -> Int { return a + b; }
fn main() -> Int { return add(2, 3); }
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.kooix")
	require.NoError(t, os.WriteFile(path, []byte(sampleProgram), 0o644))
	return path
}

// captureStdout redirects os.Stdout for the duration of fn, mirroring the
// pack's captureOutput helper (cmd/nerd/main_test.go), since these
// subcommands print directly to os.Stdout rather than returning text.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestCheckCmdAcceptsValidProgram(t *testing.T) {
	entry := writeSample(t)
	out := captureStdout(t, func() {
		require.NoError(t, checkCmd.RunE(checkCmd, []string{entry}))
	})
	assert.Contains(t, out, "OK")
}

func TestASTCmdPrintsModule(t *testing.T) {
	entry := writeSample(t)
	out := captureStdout(t, func() {
		require.NoError(t, astCmd.RunE(astCmd, []string{entry}))
	})
	assert.Contains(t, out, "fn add")
	assert.Contains(t, out, "fn main")
}

func TestHIRCmdPrintsLoweredProgram(t *testing.T) {
	entry := writeSample(t)
	out := captureStdout(t, func() {
		require.NoError(t, hirCmd.RunE(hirCmd, []string{entry}))
	})
	assert.Contains(t, out, "fn add")
}

func TestMIRCmdPrintsBlocks(t *testing.T) {
	entry := writeSample(t)
	out := captureStdout(t, func() {
		require.NoError(t, mirCmd.RunE(mirCmd, []string{entry}))
	})
	assert.NotEmpty(t, out)
}

func TestLLVMCmdPrintsModule(t *testing.T) {
	entry := writeSample(t)
	out := captureStdout(t, func() {
		require.NoError(t, llvmCmd.RunE(llvmCmd, []string{entry}))
	})
	assert.Contains(t, out, "define i64 @kx_add")
	assert.Contains(t, out, "declare i64 @kx_malloc")
}

func TestCheckModulesCmdReportsOKForSingleFileProgram(t *testing.T) {
	entry := writeSample(t)
	checkModulesJSON, checkModulesPretty, checkModulesStrictWarnings = true, false, false
	defer func() { checkModulesJSON, checkModulesPretty, checkModulesStrictWarnings = false, false, false }()

	out := captureStdout(t, func() {
		require.NoError(t, runCheckModules(entry))
	})
	assert.Contains(t, out, `"ok":true`)
}

func TestRunCmdInterpretsMain(t *testing.T) {
	entry := writeSample(t)
	out := captureStdout(t, func() {
		require.NoError(t, runCmd.RunE(runCmd, []string{entry}))
	})
	assert.Contains(t, out, "5")
}
