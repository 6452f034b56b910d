package sema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/module"
)

func writeModuleFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeGraphResolvesQualifiedEnumVariant(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "lib.kooix", `enum Option { Some(Int), None }`)
	entry := writeModuleFile(t, dir, "main.kooix", `
import "lib" as Foo;
fn main() -> Int {
	match Foo::Option::Some(42) {
		Foo::Option::Some(x) => x,
		Foo::Option::None => 0,
	}
}
`)

	bag := diag.NewBag()
	g := module.Load(entry, bag)
	require.False(t, bag.HasErrors())

	results := AnalyzeGraph(g)
	entryResult := results[entry]
	require.NotNil(t, entryResult)
	assert.False(t, hasCode(entryResult, diag.RES002))
	assert.False(t, hasCode(entryResult, diag.RES004))
}

func TestAnalyzeGraphUnknownAliasInTypeReportsRES002(t *testing.T) {
	dir := t.TempDir()
	entry := writeModuleFile(t, dir, "main.kooix", `
fn main(x: Ghost::Thing) -> Int { return 1; }
`)

	bag := diag.NewBag()
	g := module.Load(entry, bag)
	require.False(t, bag.HasErrors())

	results := AnalyzeGraph(g)
	assert.True(t, hasCode(results[entry], diag.RES002))
}

func TestAnalyzeGraphUnresolvedQualifiedTypeReportsRES004(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "lib.kooix", `record Known { n: Int }`)
	entry := writeModuleFile(t, dir, "main.kooix", `
import "lib" as Foo;
fn main(x: Foo::GhostType) -> Int { return 1; }
`)

	bag := diag.NewBag()
	g := module.Load(entry, bag)
	require.False(t, bag.HasErrors())

	results := AnalyzeGraph(g)
	assert.True(t, hasCode(results[entry], diag.RES004))
}

func TestAnalyzeGraphResolvesQualifiedType(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "lib.kooix", `record Known { n: Int }`)
	entry := writeModuleFile(t, dir, "main.kooix", `
import "lib" as Foo;
fn main(x: Foo::Known) -> Int { return 1; }
`)

	bag := diag.NewBag()
	g := module.Load(entry, bag)
	require.False(t, bag.HasErrors())

	results := AnalyzeGraph(g)
	assert.False(t, hasCode(results[entry], diag.RES002))
	assert.False(t, hasCode(results[entry], diag.RES004))
}
