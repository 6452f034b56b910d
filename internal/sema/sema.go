package sema

import (
	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
)

// Result is the outcome of analyzing one module: the accumulated
// diagnostics and the decorated top-level symbol table a downstream HIR
// lowering pass consumes.
type Result struct {
	Bag     *diag.Bag
	Symbols *Symbols
}

// Analyze runs steps 1-6 of the semantic analyzer (spec.md §4.4) over a
// single parsed Module — the whole of include mode, or one unit of
// module-aware mode before step 7 is layered on by AnalyzeGraph. Steps run
// in the order spec.md lists them: later steps assume the symbol table
// step 1 built, and generic/capability checks run before body checking so
// a shape error doesn't cascade into a flood of type errors.
func Analyze(mod *ast.Module) *Result {
	bag := diag.NewBag()
	sym := collectTopLevel(mod, bag)
	checkGenericDecls(sym, bag)
	checkTypeReferenceArity(mod, sym, bag)
	checkCapabilities(mod, sym, bag)
	checkFunctionBodies(mod, sym, bag)
	checkWorkflows(mod, sym, bag)
	checkAgents(mod, sym, bag)
	return &Result{Bag: bag, Symbols: sym}
}

// exports reports whether name is a usable export of this module's Symbols
// for the given reference kind ("type", "value", or "callable"). A
// function name counts as both a "value" (e.g. passed in a predicate
// position, even though Kooix has no first-class functions today — this
// keeps the check conservative rather than rejecting something valid) and
// a "callable". A nullary enum variant bare name counts as a "value".
func (r *Result) exports(kind, name string) bool {
	switch kind {
	case "type":
		_, isRecord := r.Symbols.Records[name]
		_, isEnum := r.Symbols.Enums[name]
		return isRecord || isEnum
	case "callable":
		_, isFn := r.Symbols.Functions[name]
		_, isWf := r.Symbols.Workflows[name]
		_, isAg := r.Symbols.Agents[name]
		return isFn || isWf || isAg
	case "value":
		_, isFn := r.Symbols.Functions[name]
		_, isVariant := r.Symbols.VariantOwners[name]
		return isFn || isVariant
	}
	return false
}
