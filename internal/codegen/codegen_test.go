package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telagod/kooix/internal/codegen"
	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/hir"
	"github.com/telagod/kooix/internal/mir"
	"github.com/telagod/kooix/internal/parser"
	"github.com/telagod/kooix/internal/sema"
)

func emitSrc(t *testing.T, src string) string {
	t.Helper()
	bag := diag.NewBag()
	mod := parser.ParseFile(src, "test.kooix", "test.kooix", bag)
	require.False(t, bag.HasErrors(), "parse errors: %v", bag.Reports())
	result := sema.Analyze(mod)
	require.False(t, result.Bag.HasErrors(), "sema errors: %v", result.Bag.Reports())
	hirProg := hir.Lower(mod, result.Symbols)
	mirProg := mir.Lower(hirProg)
	out, err := codegen.Emit(mirProg)
	require.NoError(t, err)
	return out
}

func TestEmitDeclaresRuntimeIntrinsics(t *testing.T) {
	out := emitSrc(t, `fn add(a: Int, b: Int) -> Int { return a + b; }`)
	assert.Contains(t, out, "declare i64 @kx_malloc(i64)")
	assert.Contains(t, out, "declare i64 @text_concat(i64, i64)")
}

func TestEmitFunctionSignatureAndBody(t *testing.T) {
	out := emitSrc(t, `fn add(a: Int, b: Int) -> Int { return a + b; }`)
	assert.Contains(t, out, "define i64 @kx_add(i64 %arg.a, i64 %arg.b)")
	assert.Contains(t, out, "ret i64")
}

func TestEmitIfElseProducesBranchAndBothBlocks(t *testing.T) {
	out := emitSrc(t, `
fn max(a: Int, b: Int) -> Int {
	if a > b { return a; } else { return b; }
}
`)
	assert.Contains(t, out, "icmp")
	assert.Contains(t, out, "br i1")
	assert.Contains(t, out, "then2:")
	assert.Contains(t, out, "else3:")
}

func TestEmitWhileLoopProducesBackEdge(t *testing.T) {
	out := emitSrc(t, `
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
	assert.Contains(t, out, "while2:")
	assert.Contains(t, out, "br label %while2")
}

func TestEmitRecordLiteralAndFieldProjection(t *testing.T) {
	out := emitSrc(t, `
record Point { x: Int, y: Int }
fn sumCoords(p: Point) -> Int { return p.x + p.y; }
fn origin() -> Point { return Point { x: 3, y: 4 }; }
`)
	assert.Contains(t, out, "%record.Point = type [2 x i64]")
	assert.Contains(t, out, "call i64 @kx_malloc(i64 16)")
	assert.Contains(t, out, "getelementptr i64")
}

func TestEmitEnumConstructionAndTagTest(t *testing.T) {
	out := emitSrc(t, `
enum Shape { Circle(Int), Square(Int) }
fn area(s: Shape) -> Int {
	match s {
		Circle(r) => r + r,
		Square(side) => side,
	}
}
fn makeCircle(r: Int) -> Shape { return Shape::Circle(r); }
`)
	assert.Contains(t, out, "%enum.Shape = type { i8, i64 }")
	assert.Contains(t, out, "store i8 0, i8*") // Circle is tag 0 (declaration order)
	assert.Contains(t, out, "icmp eq i64")
}

func TestEmitStringLiteralIsInternedOnce(t *testing.T) {
	out := emitSrc(t, `
fn greetTwice() -> Text {
	let a = "hi";
	let b = "hi";
	a
}
`)
	assert.Equal(t, 1, strings.Count(out, `c"hi\00"`))
}

func TestEmitIsDeterministicAcrossRepeatedRuns(t *testing.T) {
	src := `
record Point { x: Int, y: Int }
enum Shape { Circle(Int), Square(Int) }
fn area(s: Shape) -> Int {
	match s {
		Circle(r) => r + r,
		Square(side) => side,
	}
}
fn sumCoords(p: Point) -> Int { return p.x + p.y; }
`
	first := emitSrc(t, src)
	second := emitSrc(t, src)
	assert.Equal(t, first, second)
}
