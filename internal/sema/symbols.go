// Package sema implements the Kooix semantic analyzer (spec.md §4.4): seven
// ordered passes over a parsed Module that decorate declarations, check
// capabilities/effects, verify generic arity and bounds, type-check
// function bodies, analyze workflows and agents, and resolve qualified
// names, producing a HIR-ready decorated symbol table.
package sema

import (
	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
)

// Symbols is the flat top-level symbol table collected in step 1
// (spec.md §4.4 "Top-level collection"). Enum variants are indexed
// separately so an unqualified variant reference that matches more than one
// enum can be detected and reported (spec.md §4.4 item 1).
type Symbols struct {
	Capabilities map[string]*ast.CapabilityDecl
	Records      map[string]*ast.RecordDecl
	Enums        map[string]*ast.EnumDecl
	Functions    map[string]*ast.FunctionDecl
	Workflows    map[string]*ast.WorkflowDecl
	Agents       map[string]*ast.AgentDecl

	// VariantOwners maps a bare variant name to every enum that declares
	// it; len > 1 means an unqualified use of that variant is ambiguous.
	VariantOwners map[string][]string
}

func newSymbols() *Symbols {
	return &Symbols{
		Capabilities:  make(map[string]*ast.CapabilityDecl),
		Records:       make(map[string]*ast.RecordDecl),
		Enums:         make(map[string]*ast.EnumDecl),
		Functions:     make(map[string]*ast.FunctionDecl),
		Workflows:     make(map[string]*ast.WorkflowDecl),
		Agents:        make(map[string]*ast.AgentDecl),
		VariantOwners: make(map[string][]string),
	}
}

// collectTopLevel runs step 1: collect every declared capability, record
// (with arity+bounds carried through unchanged), enum (with its variant
// table), function, workflow and agent, reporting RES001-family duplicate
// names as resolution errors since a duplicate cannot be told apart later.
func collectTopLevel(mod *ast.Module, bag *diag.Bag) *Symbols {
	sym := newSymbols()
	seen := make(map[string]bool)

	declare := func(kind, name string) bool {
		if name == "" {
			return true
		}
		if seen[name] {
			bag.Add(diag.Errorf(diag.RES001, "sema", nil,
				"duplicate top-level declaration %q (%s)", name, kind))
			return false
		}
		seen[name] = true
		return true
	}

	for _, item := range mod.Items {
		switch d := item.(type) {
		case *ast.CapabilityDecl:
			if d.Ref == nil {
				continue
			}
			if _, dup := sym.Capabilities[d.Ref.Name]; dup {
				bag.Add(diag.Errorf(diag.RES001, "sema", nil,
					"duplicate capability declaration %q", d.Ref.Name))
				continue
			}
			checkCapabilityDeclShape(d.Ref, bag)
			sym.Capabilities[d.Ref.Name] = d
		case *ast.RecordDecl:
			if !declare("record", d.Name) {
				continue
			}
			sym.Records[d.Name] = d
		case *ast.EnumDecl:
			if !declare("enum", d.Name) {
				continue
			}
			sym.Enums[d.Name] = d
			for _, v := range d.Variants {
				sym.VariantOwners[v.Name] = append(sym.VariantOwners[v.Name], d.Name)
			}
		case *ast.FunctionDecl:
			if !declare("function", d.Name) {
				continue
			}
			sym.Functions[d.Name] = d
		case *ast.WorkflowDecl:
			if !declare("workflow", d.Name) {
				continue
			}
			sym.Workflows[d.Name] = d
		case *ast.AgentDecl:
			if !declare("agent", d.Name) {
				continue
			}
			sym.Agents[d.Name] = d
		default:
			bag.Add(diag.Errorf(diag.RES001, "sema", nil, "unrecognized top-level item %T", item))
		}
	}
	return sym
}

// resolveCallableName looks up a bare name against functions, workflows and
// agents — the three kinds of thing a Call expression may target.
func (s *Symbols) resolveCallableName(name string) (params []ast.Param, ret ast.Type, generics []ast.GenericParam, ok bool) {
	if fn, ok := s.Functions[name]; ok {
		return fn.Params, fn.Return, fn.Generics, true
	}
	if wf, ok := s.Workflows[name]; ok {
		return wf.Params, wf.Return, nil, true
	}
	if ag, ok := s.Agents[name]; ok {
		return ag.Params, ag.Return, nil, true
	}
	return nil, nil, nil, false
}
