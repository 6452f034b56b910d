package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telagod/kooix/internal/config"
	"github.com/telagod/kooix/internal/diag"
)

func writeManifest(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(body), 0o644))
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `entry: src/main.kooix`)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.ModeInclude, cfg.Mode)
	assert.Equal(t, 10000, cfg.TimeoutMs)
	assert.Equal(t, "llc", cfg.LLCPath)
	assert.Equal(t, "cc", cfg.CCPath)
	assert.False(t, cfg.StrictWarnings)
}

func TestLoadHonorsExplicitFields(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
entry: src/main.kooix
mode: module-aware
strict_warnings: true
search_paths: ["./lib", "./vendor"]
timeout_ms: 5000
llc_path: /usr/bin/llc-17
cc_path: clang
`)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.ModeModuleAware, cfg.Mode)
	assert.True(t, cfg.StrictWarnings)
	assert.Equal(t, []string{"./lib", "./vendor"}, cfg.SearchPaths)
	assert.Equal(t, 5000, cfg.TimeoutMs)
	assert.Equal(t, "/usr/bin/llc-17", cfg.LLCPath)
	assert.Equal(t, "clang", cfg.CCPath)
}

func TestLoadRejectsMissingEntry(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `mode: include`)

	_, err := config.Load(dir)
	require.Error(t, err)
	rep, ok := err.(*diag.Report)
	require.True(t, ok, "expected *diag.Report, got %T", err)
	assert.Equal(t, diag.DRV004, rep.Code)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
entry: src/main.kooix
mode: yolo
`)

	_, err := config.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
entry: src/main.kooix
timeout_ms: 0
`)

	_, err := config.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout_ms")
}

func TestLoadReturnsErrorWhenManifestMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := config.Load(dir)
	require.Error(t, err)
}

func TestFindWalksUpDirectoryTree(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `entry: src/main.kooix`)
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, ok := config.Find(nested)
	require.True(t, ok)
	assert.Equal(t, root, found)
}

func TestFindReturnsFalseWhenNoManifestExists(t *testing.T) {
	dir := t.TempDir()
	_, ok := config.Find(dir)
	assert.False(t, ok)
}

func TestEntryPathAndSearchPathsAbsResolveAgainstRoot(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
entry: src/main.kooix
search_paths: ["./lib"]
`)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src/main.kooix"), cfg.EntryPath())
	assert.Equal(t, []string{filepath.Join(dir, "lib")}, cfg.SearchPathsAbs())
}
