package hir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telagod/kooix/internal/diag"
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
	return Lower(mod, result.Symbols)
}

func TestLowerFunctionProducesResolvedBody(t *testing.T) {
	prog := lowerSrc(t, `fn add(a: Int, b: Int) -> Int { return a + b; }`)
	require.Len(t, prog.Functions, 1)
	fn := prog.Functions[0]
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, "Int", fn.Return.Name)
	require.NotNil(t, fn.Body)
	require.Len(t, fn.Body.Stmts, 1)

	ret, ok := fn.Body.Stmts[0].(*Return)
	require.True(t, ok)
	bin, ok := ret.Value.(*BinOp)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)

	left, ok := bin.Left.(*VarRef)
	require.True(t, ok)
	assert.Equal(t, SymLocal, left.Ref.Kind)
	assert.Equal(t, "a", left.Ref.Name)
}

func TestLowerAssignsStableIDsAcrossReferences(t *testing.T) {
	prog := lowerSrc(t, `
fn helper() -> Int { return 1; }
fn main() -> Int { return helper(); }
`)
	require.Len(t, prog.Functions, 2)
	helperDecl := prog.Functions[0]
	main := prog.Functions[1]

	ret := main.Body.Stmts[0].(*Return)
	call := ret.Value.(*Call)
	assert.Equal(t, SymFunction, call.Target.Kind)
	assert.Equal(t, "helper", call.Target.Name)
	assert.Equal(t, helperDecl.NodeID, call.Target.ID)
}

func TestLowerRecordLiteralResolvesTypeRef(t *testing.T) {
	prog := lowerSrc(t, `
record Point { x: Int, y: Int }
fn origin() -> Point { return Point { x: 0, y: 0 }; }
`)
	require.Len(t, prog.Records, 1)
	require.Len(t, prog.Functions, 1)
	ret := prog.Functions[0].Body.Stmts[0].(*Return)
	lit, ok := ret.Value.(*RecordLit)
	require.True(t, ok)
	assert.Equal(t, "Point", lit.Type.Name)
	assert.Equal(t, SymRecord, lit.Type.Ref.Kind)
	assert.Equal(t, prog.Records[0].NodeID, lit.Type.Ref.ID)
}

func TestLowerMatchResolvesVariantPatternAndBinder(t *testing.T) {
	prog := lowerSrc(t, `
enum Shape { Circle(Int), Square(Int) }
fn area(s: Shape) -> Int {
	match s {
		Circle(r) => r,
		Square(side) => side,
	}
}
`)
	require.Len(t, prog.Enums, 1)
	fn := prog.Functions[0]
	match, ok := fn.Body.Result.(*Match)
	require.True(t, ok)
	require.Len(t, match.Arms, 2)

	circleArm := match.Arms[0]
	pat, ok := circleArm.Pattern.(*VariantPattern)
	require.True(t, ok)
	assert.Equal(t, "Circle", pat.Variant)
	assert.Equal(t, "r", pat.Binder)
	assert.Equal(t, SymEnum, pat.Enum.Kind)
	assert.Equal(t, prog.Enums[0].NodeID, pat.Enum.ID)

	// The binder must resolve as a local inside its own arm body.
	binderRef, ok := circleArm.Expr.(*VarRef)
	require.True(t, ok)
	assert.Equal(t, SymLocal, binderRef.Ref.Kind)
	assert.Equal(t, "r", binderRef.Ref.Name)
}

func TestLowerLetInsideBlockResolvesAsLocal(t *testing.T) {
	prog := lowerSrc(t, `
fn f() -> Int {
	if true { let n = 1; n } else { 0 }
}
`)
	fn := prog.Functions[0]
	ifExpr, ok := fn.Body.Result.(*If)
	require.True(t, ok)
	require.NotNil(t, ifExpr.Then.Result)
	varRef, ok := ifExpr.Then.Result.(*VarRef)
	require.True(t, ok)
	assert.Equal(t, SymLocal, varRef.Ref.Kind)
}

func TestLowerWorkflowStepsResolveTargetsAndOutputBindings(t *testing.T) {
	prog := lowerSrc(t, `
fn fetch(id: Int) -> Int { return id; }
fn square(n: Int) -> Int { return n + n; }

workflow pipeline(id: Int) -> Int
steps {
	fetched: fetch(id);
	squared: square(fetched);
}
output {
	result: Int = squared,
}
`)
	require.Len(t, prog.Workflows, 1)
	wf := prog.Workflows[0]
	require.Len(t, wf.Steps, 2)
	assert.Equal(t, SymFunction, wf.Steps[0].Target.Kind)
	assert.Equal(t, "fetch", wf.Steps[0].Target.Name)
	assert.Equal(t, SymFunction, wf.Steps[1].Target.Kind)
	assert.Equal(t, "square", wf.Steps[1].Target.Name)

	require.Len(t, wf.Output, 1)
	binding, ok := wf.Output[0].Binding.(*VarRef)
	require.True(t, ok)
	assert.Equal(t, SymLocal, binding.Ref.Kind)
	assert.Equal(t, "squared", binding.Ref.Name)
}

func TestLowerAgentCarriesStateAndLoopAnnotations(t *testing.T) {
	prog := lowerSrc(t, `
agent watcher(budget: Int) -> Int
state {
	Idle -> Working;
	Working -> Done;
}
policy {
	allow_tools ["search"];
	max_iterations 5;
}
loop {
	observe, act
	stop when state == "Done"
};
`)
	require.Len(t, prog.Agents, 1)
	ag := prog.Agents[0]
	require.Len(t, ag.State.Transitions, 2)
	assert.Equal(t, "Idle", ag.State.Transitions[0].From)
	assert.Equal(t, []string{"Working"}, ag.State.Transitions[0].To)
	require.NotNil(t, ag.Policy.MaxIterations)
	assert.Equal(t, int64(5), *ag.Policy.MaxIterations)
	assert.Equal(t, []string{"observe", "act"}, ag.Loop.Stages)
	require.NotNil(t, ag.Loop.Stop)
}
