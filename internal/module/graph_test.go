package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telagod/kooix/internal/diag"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadKeepsFilesAsSeparateUnits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.kooix", "fn helper() { 1 }\n")
	entry := writeFile(t, dir, "main.kooix", "import \"util\" as Util;\nfn main() { 1 }\n")

	bag := diag.NewBag()
	g := Load(entry, bag)

	assert.False(t, bag.HasErrors())
	require.Len(t, g.Units(), 2)

	entryUnit, ok := g.Unit(entry)
	require.True(t, ok)
	require.Len(t, entryUnit.Program.Items, 1)
	target, ok := ResolveAlias(entryUnit, "Util")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "util.kooix"), target)
}

func TestLoadDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.kooix", "import \"b\";\nfn a() { 1 }\n")
	entry := writeFile(t, dir, "b.kooix", "import \"a\";\nfn b() { 1 }\n")

	bag := diag.NewBag()
	Load(entry, bag)

	require.True(t, bag.HasErrors())
	found := false
	for _, r := range bag.Reports() {
		if r.Code == diag.LDR002 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTopoOrderDependenciesBeforeDependents(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.kooix", "fn base() { 1 }\n")
	entry := writeFile(t, dir, "main.kooix", "import \"base\";\nfn main() { 1 }\n")

	bag := diag.NewBag()
	g := Load(entry, bag)
	require.False(t, bag.HasErrors())

	order := g.TopoOrder()
	baseIdx, entryIdx := -1, -1
	for i, id := range order {
		if id == base {
			baseIdx = i
		}
		if id == entry {
			entryIdx = i
		}
	}
	require.NotEqual(t, -1, baseIdx)
	require.NotEqual(t, -1, entryIdx)
	assert.Less(t, baseIdx, entryIdx)
}

func TestFlattenNameSanitizesPath(t *testing.T) {
	assert.Equal(t, "util_helper", FlattenName("/tmp/util.kooix", "helper"))
	assert.Equal(t, "my_mod_helper", FlattenName("/tmp/my-mod.kooix", "helper"))
}

func TestQualifiedNameSameFileDifferentAliasesAgree(t *testing.T) {
	u1 := &Unit{ID: "entry1", Aliases: map[string]string{"A": "/tmp/util.kooix"}}
	u2 := &Unit{ID: "entry2", Aliases: map[string]string{"B": "/tmp/util.kooix"}}

	n1, target1, ok1 := QualifiedName(u1, "A", "helper")
	n2, target2, ok2 := QualifiedName(u2, "B", "helper")

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, target1, target2)
	assert.Equal(t, n1, n2)
}

func TestQualifiedNameUnknownAliasNotOK(t *testing.T) {
	u := &Unit{ID: "entry", Aliases: map[string]string{}}
	_, _, ok := QualifiedName(u, "Ghost", "helper")
	assert.False(t, ok)
}
