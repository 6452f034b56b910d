package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
)

func parseSrc(t *testing.T, src string) (*ast.Module, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	mod := ParseFile(src, "test.kooix", "test.kooix", bag)
	return mod, bag
}

func TestParseFileFunctionDeclShape(t *testing.T) {
	mod, bag := parseSrc(t, `fn add(a: Int, b: Int) -> Int { return a + b; }`)
	require.False(t, bag.HasErrors(), "unexpected parse errors: %v", bag.Reports())
	require.Len(t, mod.Items, 1)

	fn, ok := mod.Items[0].(*ast.FunctionDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, "Int", fn.Return.String())

	var paramNames []string
	for _, p := range fn.Params {
		paramNames = append(paramNames, p.Name)
	}
	if diff := cmp.Diff([]string{"a", "b"}, paramNames); diff != "" {
		t.Errorf("param names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFileEffectsAndRequires(t *testing.T) {
	mod, bag := parseSrc(t, `fn f() !{model} requires [Model<"openai", "gpt", 1>] { return 1; }`)
	require.False(t, bag.HasErrors(), "unexpected parse errors: %v", bag.Reports())
	require.Len(t, mod.Items, 1)

	fn := mod.Items[0].(*ast.FunctionDecl)
	var effectNames []string
	for _, e := range fn.Effects {
		effectNames = append(effectNames, e.Name)
	}
	if diff := cmp.Diff([]string{"model"}, effectNames); diff != "" {
		t.Errorf("effect names mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, fn.Requires, 1)
	assert.Equal(t, "Model", fn.Requires[0].Name)
	require.Len(t, fn.Requires[0].Args, 3)
	assert.Equal(t, "openai", *fn.Requires[0].Args[0].StringVal)
	assert.Equal(t, int64(1), *fn.Requires[0].Args[2].IntVal)
}

func TestParseFileRecordAndEnumDecls(t *testing.T) {
	mod, bag := parseSrc(t, `
record Point { x: Int, y: Int }
enum Shape { Circle(Int), Square(Int) }
`)
	require.False(t, bag.HasErrors(), "unexpected parse errors: %v", bag.Reports())
	require.Len(t, mod.Items, 2)

	rec, ok := mod.Items[0].(*ast.RecordDecl)
	require.True(t, ok)
	assert.Equal(t, "Point", rec.Name)
	var fieldNames []string
	for _, f := range rec.Fields {
		fieldNames = append(fieldNames, f.Name)
	}
	if diff := cmp.Diff([]string{"x", "y"}, fieldNames); diff != "" {
		t.Errorf("field names mismatch (-want +got):\n%s", diff)
	}

	enum, ok := mod.Items[1].(*ast.EnumDecl)
	require.True(t, ok)
	assert.Equal(t, "Shape", enum.Name)
	var variantNames []string
	for _, v := range enum.Variants {
		variantNames = append(variantNames, v.Name)
	}
	if diff := cmp.Diff([]string{"Circle", "Square"}, variantNames); diff != "" {
		t.Errorf("variant names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFileImportWithAlias(t *testing.T) {
	mod, bag := parseSrc(t, `
import "lib" as Foo;
fn main() -> Int { return 0; }
`)
	require.False(t, bag.HasErrors(), "unexpected parse errors: %v", bag.Reports())
	require.Len(t, mod.Imports, 1)
	assert.Equal(t, "lib", mod.Imports[0].Path)
	assert.Equal(t, "Foo", mod.Imports[0].Alias)
}

func TestParseFileReportsUnexpectedTokenAsPAR001(t *testing.T) {
	_, bag := parseSrc(t, `fn ( { }`)
	require.True(t, bag.HasErrors())
	found := false
	for _, r := range bag.Reports() {
		if r.Code == diag.PAR001 {
			found = true
		}
	}
	assert.True(t, found, "expected a %s diagnostic among: %v", diag.PAR001, bag.Reports())
}
