package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telagod/kooix/internal/diag"
)

func TestTypecheckCleanFunctionHasNoDiagnostics(t *testing.T) {
	r := analyzeSrc(t, `fn add(a: Int, b: Int) -> Int { return a + b; }`)
	assert.Empty(t, r.Bag.Reports())
}

func TestTypecheckReturnMismatchReportsTYP002(t *testing.T) {
	r := analyzeSrc(t, `fn f() -> Int { return true; }`)
	assert.True(t, hasCode(r, diag.TYP002))
}

func TestTypecheckIfElseMismatchReportsTYP009(t *testing.T) {
	r := analyzeSrc(t, `
fn f(flag: Bool) -> Int {
	if flag { 1 } else { true }
}
`)
	assert.True(t, hasCode(r, diag.TYP009))
}

func TestTypecheckWhileConditionNotBoolReportsTYP010(t *testing.T) {
	r := analyzeSrc(t, `
fn f() -> Unit {
	let n = 1;
	while n {
		n = n + 1;
	}
}
`)
	assert.True(t, hasCode(r, diag.TYP010))
}

func TestTypecheckAssignToUndeclaredReportsTYP007(t *testing.T) {
	r := analyzeSrc(t, `
fn f() -> Unit {
	ghost = 1;
}
`)
	assert.True(t, hasCode(r, diag.TYP007))
}

func TestTypecheckAssignTypeMismatchReportsTYP008(t *testing.T) {
	r := analyzeSrc(t, `
fn f() -> Unit {
	let n = 1;
	n = true;
}
`)
	assert.True(t, hasCode(r, diag.TYP008))
}

func TestTypecheckRecordMissingFieldReportsTYP004(t *testing.T) {
	r := analyzeSrc(t, `
record Point { x: Int, y: Int }
fn origin() -> Point { return Point { x: 0 }; }
`)
	assert.True(t, hasCode(r, diag.TYP004))
}

func TestTypecheckRecordExtraFieldReportsTYP005(t *testing.T) {
	r := analyzeSrc(t, `
record Point { x: Int, y: Int }
fn origin() -> Point { return Point { x: 0, y: 0, z: 0 }; }
`)
	assert.True(t, hasCode(r, diag.TYP005))
}

func TestTypecheckCallArityMismatchReportsTYP006(t *testing.T) {
	r := analyzeSrc(t, `
fn add(a: Int, b: Int) -> Int { return a + b; }
fn main() -> Int { return add(1); }
`)
	assert.True(t, hasCode(r, diag.TYP006))
}

func TestTypecheckUnknownMemberReportsTYP011(t *testing.T) {
	r := analyzeSrc(t, `
record Point { x: Int, y: Int }
fn f(p: Point) -> Int { return p.z; }
`)
	assert.True(t, hasCode(r, diag.TYP011))
}

func TestTypecheckExhaustiveMatchIsClean(t *testing.T) {
	r := analyzeSrc(t, `
enum Shape { Circle(Int), Square(Int) }
fn area(s: Shape) -> Int {
	match s {
		Circle(r) => r,
		Square(side) => side,
	}
}
`)
	assert.False(t, hasCode(r, diag.TYP003))
}

func TestTypecheckNonExhaustiveMatchReportsTYP003(t *testing.T) {
	r := analyzeSrc(t, `
enum Shape { Circle(Int), Square(Int) }
fn area(s: Shape) -> Int {
	match s {
		Circle(r) => r,
	}
}
`)
	assert.True(t, hasCode(r, diag.TYP003))
}

func TestTypecheckWildcardCoversExhaustiveness(t *testing.T) {
	r := analyzeSrc(t, `
enum Shape { Circle(Int), Square(Int) }
fn area(s: Shape) -> Int {
	match s {
		Circle(r) => r,
		_ => 0,
	}
}
`)
	assert.False(t, hasCode(r, diag.TYP003))
}
