package loader

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

func TestLoadSingleFileNoImports(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.kooix", "fn main() { 1 }\n")

	bag := diag.NewBag()
	res := New(bag).Load(entry)

	assert.False(t, bag.HasErrors())
	require.Len(t, res.Order, 1)
	assert.Contains(t, res.Text, "fn main() { 1 }")
	assert.Contains(t, res.Text, "kooix module:")
}

func TestLoadTransitiveImportsExtensionInferred(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.kooix", "fn helper() { 1 }\n")
	entry := writeFile(t, dir, "main.kooix", "import \"util\" as Util;\nfn main() { 1 }\n")

	bag := diag.NewBag()
	res := New(bag).Load(entry)

	assert.False(t, bag.HasErrors())
	require.Len(t, res.Order, 2)
	// main is recorded first: a file joins the load order before its imports are visited.
	assert.Contains(t, res.Text, "fn helper() { 1 }")
	assert.Contains(t, res.Text, "fn main() { 1 }")
	target, ok := res.Aliases["Util"]
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "util.kooix"), target)
}

func TestLoadSearchesUpDirectoryTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "shared.kooix", "fn shared() { 1 }\n")
	sub := filepath.Join(root, "a", "b", "c")
	entry := writeFile(t, sub, "main.kooix", "import \"shared\";\nfn main() { 1 }\n")

	bag := diag.NewBag()
	res := New(bag).Load(entry)

	assert.False(t, bag.HasErrors())
	require.Len(t, res.Order, 2)
}

func TestLoadMissingImportReportsLDR001(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.kooix", "import \"nope\";\nfn main() { 1 }\n")

	bag := diag.NewBag()
	New(bag).Load(entry)

	require.True(t, bag.HasErrors())
	found := false
	for _, r := range bag.Reports() {
		if r.Code == diag.LDR001 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadImportCycleReportsLDR002(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.kooix", "import \"b\";\nfn a() { 1 }\n")
	entry := writeFile(t, dir, "b.kooix", "import \"a\";\nfn b() { 1 }\n")

	bag := diag.NewBag()
	New(bag).Load(entry)

	require.True(t, bag.HasErrors())
	found := false
	for _, r := range bag.Reports() {
		if r.Code == diag.LDR002 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadAliasCollisionReportsLDR003(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.kooix", "fn a() { 1 }\n")
	sub := filepath.Join(dir, "sub")
	writeFile(t, sub, "a.kooix", "fn a2() { 1 }\n")
	entry := writeFile(t, dir, "main.kooix",
		"import \"a\" as Shared;\nimport \"sub/a\" as Shared;\nfn main() { 1 }\n")

	bag := diag.NewBag()
	New(bag).Load(entry)

	require.True(t, bag.HasErrors())
	found := false
	for _, r := range bag.Reports() {
		if r.Code == diag.LDR003 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadDiamondDependencyDedupes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.kooix", "fn base() { 1 }\n")
	writeFile(t, dir, "left.kooix", "import \"base\";\nfn left() { 1 }\n")
	writeFile(t, dir, "right.kooix", "import \"base\";\nfn right() { 1 }\n")
	entry := writeFile(t, dir, "main.kooix",
		"import \"left\";\nimport \"right\";\nfn main() { 1 }\n")

	bag := diag.NewBag()
	res := New(bag).Load(entry)

	assert.False(t, bag.HasErrors())
	require.Len(t, res.Order, 4)
}
