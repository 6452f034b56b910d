package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telagod/kooix/internal/diag"
)

func TestGenericsDuplicateParamNameReportsTYP001(t *testing.T) {
	r := analyzeSrc(t, `record Box<T, T> { value: T }`)
	assert.True(t, hasCode(r, diag.TYP001))
}

func TestGenericsCallArityMismatchReportsTYP001(t *testing.T) {
	r := analyzeSrc(t, `
fn wrap<T>(value: T) -> T { return value; }
fn main() -> Int { return wrap<Int, Bool>(1); }
`)
	assert.True(t, hasCode(r, diag.TYP001))
}

func TestGenericsExactNameBoundSatisfied(t *testing.T) {
	r := analyzeSrc(t, `
fn identify<T: Int>(value: T) -> T { return value; }
fn main() -> Int { return identify<Int>(1); }
`)
	assert.False(t, hasCode(r, diag.BND001))
}

func TestGenericsDeclarativeWhereBoundSatisfied(t *testing.T) {
	r := analyzeSrc(t, `
record Point where [Eq] { x: Int, y: Int }
fn same<T: Eq>(value: T) -> T { return value; }
fn main() -> Point { return same<Point>(Point { x: 1, y: 2 }); }
`)
	assert.False(t, hasCode(r, diag.BND001))
}

func TestGenericsStructuralRecordAsTraitBoundSatisfied(t *testing.T) {
	r := analyzeSrc(t, `
record Named { name: Text }
record Person { name: Text, age: Int }
fn greet<T: Named>(value: T) -> T { return value; }
fn main() -> Person { return greet<Person>(Person { name: "Ada", age: 30 }); }
`)
	assert.False(t, hasCode(r, diag.BND001))
}

// TestGenericsFieldTypeArityMismatchReportsTYP001 covers spec.md §8 "Arity
// closure": a record field typed `Box<Int>` where `Box` itself declares two
// generic parameters is wrong at declaration time, the same as a call-site
// arity mismatch — checkCallGenerics alone never sees this reference.
func TestGenericsFieldTypeArityMismatchReportsTYP001(t *testing.T) {
	r := analyzeSrc(t, `
record Box<A, B> { value: A }
record Holder { boxed: Box<Int> }
`)
	assert.True(t, hasCode(r, diag.TYP001))
}

func TestGenericsParamAndReturnTypeArityMismatchReportsTYP001(t *testing.T) {
	r := analyzeSrc(t, `
enum Option<A, B> { Some(A), None }
fn first(value: Option<Int>) -> Int { return 1; }
`)
	assert.True(t, hasCode(r, diag.TYP001))
}

func TestGenericsNestedTypeArityMismatchReportsTYP001(t *testing.T) {
	r := analyzeSrc(t, `
record Box<A, B> { value: A }
record Pair<A, B> { first: A, second: B }
record Holder { boxed: Pair<Box<Int>, Int> }
`)
	assert.True(t, hasCode(r, diag.TYP001))
}

func TestGenericsMatchingTypeArityIsClean(t *testing.T) {
	r := analyzeSrc(t, `
record Box<A, B> { first: A, second: B }
record Holder { boxed: Box<Int, Bool> }
`)
	assert.False(t, hasCode(r, diag.TYP001))
}

func TestGenericsUnsatisfiedBoundReportsBND001(t *testing.T) {
	r := analyzeSrc(t, `
record Named { name: Text }
record Empty { }
fn greet<T: Named>(value: T) -> T { return value; }
fn main() -> Empty { return greet<Empty>(Empty { }); }
`)
	assert.True(t, hasCode(r, diag.BND001))
}
