package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/hir"
	"github.com/telagod/kooix/internal/interp"
	"github.com/telagod/kooix/internal/parser"
	"github.com/telagod/kooix/internal/sema"
)

func lowerSrc(t *testing.T, src string) *hir.Program {
	t.Helper()
	bag := diag.NewBag()
	mod := parser.ParseFile(src, "test.kooix", "test.kooix", bag)
	require.False(t, bag.HasErrors(), "parse errors: %v", bag.Reports())
	result := sema.Analyze(mod)
	require.False(t, result.Bag.HasErrors(), "sema errors: %v", result.Bag.Reports())
	return hir.Lower(mod, result.Symbols)
}

func TestRunEvaluatesArithmetic(t *testing.T) {
	prog := lowerSrc(t, `fn add(a: Int, b: Int) -> Int { return a + b; }`)
	it := interp.New(prog, 0)
	v, err := it.Run("add", []interp.Value{interp.IntValue{V: 2}, interp.IntValue{V: 3}})
	require.NoError(t, err)
	assert.Equal(t, interp.IntValue{V: 5}, v)
}

func TestRunEvaluatesIfElse(t *testing.T) {
	prog := lowerSrc(t, `
fn max(a: Int, b: Int) -> Int {
	if a > b { return a; } else { return b; }
}
`)
	it := interp.New(prog, 0)
	v, err := it.Run("max", []interp.Value{interp.IntValue{V: 3}, interp.IntValue{V: 7}})
	require.NoError(t, err)
	assert.Equal(t, interp.IntValue{V: 7}, v)
}

func TestRunEvaluatesWhileLoop(t *testing.T) {
	prog := lowerSrc(t, `
fn sumTo(n: Int) -> Int {
	let total = 0;
	let i = 0;
	while i < n {
		total = total + i;
		i = i + 1;
	}
	return total;
}
`)
	it := interp.New(prog, 0)
	v, err := it.Run("sumTo", []interp.Value{interp.IntValue{V: 5}})
	require.NoError(t, err)
	assert.Equal(t, interp.IntValue{V: 10}, v) // 0+1+2+3+4
}

func TestRunRefusesEffectfulFunction(t *testing.T) {
	prog := lowerSrc(t, `
fn log_it(msg: Text) -> Unit !{io} requires [Io] {
}
`)
	it := interp.New(prog, 0)
	_, err := it.Run("log_it", []interp.Value{interp.TextValue{V: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "effect")
}

func TestRunGuardsAgainstNonTerminatingLoop(t *testing.T) {
	prog := lowerSrc(t, `
fn spin() -> Int {
	let i = 0;
	while true {
		i = i + 1;
	}
	return i;
}
`)
	it := interp.New(prog, 10)
	_, err := it.Run("spin", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum iteration guard")
}

func TestRunConstructsAndMatchesEnumValues(t *testing.T) {
	prog := lowerSrc(t, `
enum Shape { Circle(Int), Square(Int) }

fn area(s: Shape) -> Int {
	match s {
		Circle(r) => r + r,
		Square(side) => side,
	}
}

fn makeCircle(r: Int) -> Shape { return Shape::Circle(r); }
`)
	it := interp.New(prog, 0)
	shape, err := it.Run("makeCircle", []interp.Value{interp.IntValue{V: 4}})
	require.NoError(t, err)
	enumVal, ok := shape.(*interp.EnumValue)
	require.True(t, ok)
	assert.Equal(t, "Circle", enumVal.Variant)

	v, err := it.Run("area", []interp.Value{shape})
	require.NoError(t, err)
	assert.Equal(t, interp.IntValue{V: 8}, v)
}

func TestRunBuildsAndProjectsRecordFields(t *testing.T) {
	prog := lowerSrc(t, `
record Point { x: Int, y: Int }

fn sumCoords(p: Point) -> Int { return p.x + p.y; }
fn origin() -> Point { return Point { x: 3, y: 4 }; }
`)
	it := interp.New(prog, 0)
	pt, err := it.Run("origin", nil)
	require.NoError(t, err)
	v, err := it.Run("sumCoords", []interp.Value{pt})
	require.NoError(t, err)
	assert.Equal(t, interp.IntValue{V: 7}, v)
}
