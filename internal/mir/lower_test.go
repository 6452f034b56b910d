package mir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/hir"
	"github.com/telagod/kooix/internal/parser"
	"github.com/telagod/kooix/internal/sema"
)

func lowerSrc(t *testing.T, src string) *Program {
	t.Helper()
	bag := diag.NewBag()
	mod := parser.ParseFile(src, "test.kooix", "test.kooix", bag)
	require.False(t, bag.HasErrors(), "parse errors: %v", bag.Reports())
	result := sema.Analyze(mod)
	require.False(t, result.Bag.HasErrors(), "sema errors: %v", result.Bag.Reports())
	hirProg := hir.Lower(mod, result.Symbols)
	return Lower(hirProg)
}

func everyBlockHasOneTerminator(t *testing.T, fn *Function) {
	t.Helper()
	for _, b := range fn.Blocks {
		assert.NotNil(t, b.Term, "block %s has no terminator", b.Label)
	}
}

func TestLowerStraightLineFunctionIsSingleBlock(t *testing.T) {
	prog := lowerSrc(t, `fn add(a: Int, b: Int) -> Int { return a + b; }`)
	require.Len(t, prog.Functions, 1)
	fn := prog.Functions[0]
	require.Len(t, fn.Blocks, 1)
	everyBlockHasOneTerminator(t, fn)
	_, ok := fn.Blocks[0].Term.(*Return)
	assert.True(t, ok)
}

func TestLowerIfElseProducesThreeBlocksAndJoins(t *testing.T) {
	prog := lowerSrc(t, `
fn f(flag: Bool) -> Int {
	if flag { 1 } else { 2 }
}
`)
	fn := prog.Functions[0]
	everyBlockHasOneTerminator(t, fn)
	// entry (branch), then, else, endif(join) -> return
	require.Len(t, fn.Blocks, 4)
	_, ok := fn.Blocks[0].Term.(*Branch)
	require.True(t, ok)
	_, ok = fn.Blocks[len(fn.Blocks)-1].Term.(*Return)
	assert.True(t, ok)
}

func TestLowerWhileLoopHasHeadBodyExitBlocks(t *testing.T) {
	prog := lowerSrc(t, `
fn f() -> Unit {
	let n = 1;
	while n == n {
		n = n;
	}
}
`)
	fn := prog.Functions[0]
	everyBlockHasOneTerminator(t, fn)
	var sawBranch, sawJumpBackToHead bool
	for _, b := range fn.Blocks {
		if br, ok := b.Term.(*Branch); ok {
			sawBranch = true
			_ = br
		}
	}
	for _, b := range fn.Blocks {
		if j, ok := b.Term.(*Jump); ok && j.Target == fn.Blocks[1].Label {
			sawJumpBackToHead = true
		}
	}
	assert.True(t, sawBranch)
	assert.True(t, sawJumpBackToHead)
}

func TestLowerMatchChainsTagTestsAndJoins(t *testing.T) {
	prog := lowerSrc(t, `
enum Shape { Circle(Int), Square(Int) }
fn area(s: Shape) -> Int {
	match s {
		Circle(r) => r,
		Square(side) => side,
	}
}
`)
	fn := prog.Functions[0]
	everyBlockHasOneTerminator(t, fn)

	var sawTagTest bool
	for _, b := range fn.Blocks {
		if br, ok := b.Term.(*Branch); ok {
			if _, ok := br.Cond.(*TagTest); ok {
				sawTagTest = true
			}
		}
	}
	assert.True(t, sawTagTest, "expected a TagTest branch dispatching on the enum tag")
}

func TestFingerprintIsDeterministicAcrossRepeatedLowerings(t *testing.T) {
	src := `
fn add(a: Int, b: Int) -> Int { return a + b; }
fn main() -> Int { return add(1, 2); }
`
	p1 := lowerSrc(t, src)
	p2 := lowerSrc(t, src)
	assert.Equal(t, Fingerprint(p1), Fingerprint(p2))
}

func TestFingerprintDiffersForDifferentPrograms(t *testing.T) {
	p1 := lowerSrc(t, `fn f() -> Int { return 1; }`)
	p2 := lowerSrc(t, `fn f() -> Int { return 2; }`)
	assert.NotEqual(t, Fingerprint(p1), Fingerprint(p2))
}

func TestRecordAndEnumLayoutsPreserveDeclarationOrder(t *testing.T) {
	prog := lowerSrc(t, `
record Point { x: Int, y: Int }
enum Shape { Circle(Int), Square(Int) }
`)
	require.Len(t, prog.Records, 1)
	assert.Equal(t, []string{"x", "y"}, prog.Records[0].Fields)
	off, ok := prog.Records[0].OffsetOf("y")
	require.True(t, ok)
	assert.Equal(t, 1, off)

	require.Len(t, prog.Enums, 1)
	assert.Equal(t, []string{"Circle", "Square"}, prog.Enums[0].Variants)
	tag, ok := prog.Enums[0].TagOf("Square")
	require.True(t, ok)
	assert.Equal(t, 1, tag)
}
