package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/parser"
)

func analyzeSrc(t *testing.T, src string) *Result {
	t.Helper()
	bag := diag.NewBag()
	mod := parser.ParseFile(src, "test.kooix", "test.kooix", bag)
	assert.False(t, bag.HasErrors(), "parse errors: %v", bag.Reports())
	return Analyze(mod)
}

func hasCode(r *Result, code string) bool {
	for _, rep := range r.Bag.Reports() {
		if rep.Code == code {
			return true
		}
	}
	return false
}

func TestCapabilitiesUnknownEffectReportsCAP001(t *testing.T) {
	r := analyzeSrc(t, `fn f() !{bogus} { return 1; }`)
	assert.True(t, hasCode(r, diag.CAP001))
}

func TestCapabilitiesMissingRequiresReportsCAP002(t *testing.T) {
	r := analyzeSrc(t, `fn f() !{model} { return 1; }`)
	assert.True(t, hasCode(r, diag.CAP002))
}

func TestCapabilitiesMatchingRequiresIsClean(t *testing.T) {
	r := analyzeSrc(t, `
cap Model<"openai", "gpt", 1>;
fn f() !{model} requires [Model<"openai", "gpt", 1>] { return 1; }
`)
	assert.False(t, hasCode(r, diag.CAP001))
	assert.False(t, hasCode(r, diag.CAP002))
	assert.False(t, hasCode(r, diag.CAP003))
}

func TestCapabilitiesShapeMismatchReportsCAP003(t *testing.T) {
	r := analyzeSrc(t, `
cap Model<"openai", "gpt", 1>;
fn f() !{model} requires [Model<"openai", "gpt", "x">] { return 1; }
`)
	assert.True(t, hasCode(r, diag.CAP003))
}

func TestCapabilitiesArgCountMismatchReportsCAP003(t *testing.T) {
	r := analyzeSrc(t, `
cap Model<"openai", "gpt", 1>;
fn f() !{model} requires [Model<"openai", "gpt">] { return 1; }
`)
	assert.True(t, hasCode(r, diag.CAP003))
}

// TestCapabilitiesDeclShapeMismatchReportsCAP003EvenWhenRequiresAgrees covers
// spec.md §8 seed scenario 1: a `cap` declaration whose own argument kinds
// violate Model's intrinsic (string, string, integer) shape must be rejected
// even when the matching requires[...] entry repeats the same wrong shape —
// agreement between a wrong declaration and a wrong requires entry must not
// cancel out to a clean result.
func TestCapabilitiesDeclShapeMismatchReportsCAP003EvenWhenRequiresAgrees(t *testing.T) {
	r := analyzeSrc(t, `
cap Model<"openai", "gpt", "x">;
fn f() !{model} requires [Model<"openai", "gpt", "x">] { return 1; }
`)
	assert.True(t, hasCode(r, diag.CAP003))
}

func TestCapabilitiesNetDeclShapeMismatchReportsCAP003(t *testing.T) {
	r := analyzeSrc(t, `cap Net<"example.com", "https">;`)
	assert.True(t, hasCode(r, diag.CAP003))
}
