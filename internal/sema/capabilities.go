package sema

import (
	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
)

// effectCapability maps an effect keyword used in a function's `!{...}` set
// to the capability kind it demands be present in that function's
// `requires [...]` list (spec.md §4.4 item 2: "capability/effects mapping
// {model->Model, net->Net, tool->Tool, io->Io}").
var effectCapability = map[string]string{
	"model": "Model",
	"net":   "Net",
	"tool":  "Tool",
	"io":    "Io",
}

// capabilityShapes is the intrinsic argument shape every `cap` declaration
// of a given kind must satisfy (spec.md §4.4 item 2: "Model<provider, name,
// budget> requires three type arguments of kinds string, string, integer").
// Net/Tool/Io follow the same provider/resource-then-budget shape their
// domain implies: a network endpoint (host, port), a tool's identity and
// call budget (name, max calls), and a filesystem capability's path.
var capabilityShapes = map[string][]ast.ArgKind{
	"Model": {ast.ArgString, ast.ArgString, ast.ArgInt}, // provider, model name, token budget
	"Net":   {ast.ArgString, ast.ArgInt},                // host, port
	"Tool":  {ast.ArgString, ast.ArgInt},                // tool name, max calls
	"Io":    {ast.ArgString},                            // path
}

func argKindName(k ast.ArgKind) string {
	switch k {
	case ast.ArgString:
		return "a string"
	case ast.ArgInt:
		return "an integer"
	default:
		return "a type"
	}
}

// checkCapabilityDeclShape validates one top-level `cap` declaration's
// argument list against its kind's intrinsic shape (spec.md §4.4 item 2,
// §8 "Capability soundness", §8 seed scenario 1: `cap Model<"openai","gpt",
// "x">` must be rejected on its own, since `Model`'s third argument is an
// integer — agreeing with a later requires[...] entry that repeats the same
// mistake doesn't make either one correct). An unknown capability kind isn't
// a shape concern here; checkEffects already rejects any effect that can't
// map to a known kind.
func checkCapabilityDeclShape(ref *ast.CapRef, bag *diag.Bag) {
	want, known := capabilityShapes[ref.Name]
	if !known {
		return
	}
	got := ref.Args
	if len(want) != len(got) {
		bag.Add(diag.Errorf(diag.CAP003, "sema", nil,
			"capability %q expects %d argument(s), got %d", ref.Name, len(want), len(got)))
		return
	}
	for i := range want {
		if got[i].Kind() != want[i] {
			bag.Add(diag.Errorf(diag.CAP003, "sema", nil,
				"capability %q argument %d must be %s", ref.Name, i+1, argKindName(want[i])))
		}
	}
}

// checkCapabilities runs step 2 over every function declaration: each
// declared effect must be a known keyword mapping to a capability kind, and
// that capability kind must appear among the function's requires entries.
// Independently, every requires entry (on functions, workflows and agents)
// is checked against its declared `cap` shape.
func checkCapabilities(mod *ast.Module, sym *Symbols, bag *diag.Bag) {
	for _, item := range mod.Items {
		switch d := item.(type) {
		case *ast.FunctionDecl:
			checkEffects(d.Effects, d.Requires, bag)
			checkRequiresShapes(d.Requires, sym, bag)
		case *ast.WorkflowDecl:
			checkRequiresShapes(d.Requires, sym, bag)
		case *ast.AgentDecl:
			checkRequiresShapes(d.Requires, sym, bag)
		}
	}
}

func checkEffects(effects []ast.Effect, requires []*ast.CapRef, bag *diag.Bag) {
	required := make(map[string]bool, len(requires))
	for _, r := range requires {
		required[r.Name] = true
	}
	for _, e := range effects {
		capKind, known := effectCapability[e.Name]
		if !known {
			bag.Add(diag.Errorf(diag.CAP001, "sema", nil,
				"unknown effect %q (expected one of model, net, tool, io)", e.Name))
			continue
		}
		if !required[capKind] {
			bag.Add(diag.Errorf(diag.CAP002, "sema", nil,
				"effect %q requires capability %q in requires[...]", e.Name, capKind))
		}
	}
}

// checkRequiresShapes validates each requires[...] entry's argument list
// against the capability's own declared shape (arg count and TypeArg kind
// per position), when that capability was actually declared. An entry
// naming a capability with no `cap` declaration is skipped here, and no
// other pass reports it either.
func checkRequiresShapes(requires []*ast.CapRef, sym *Symbols, bag *diag.Bag) {
	for _, ref := range requires {
		decl, ok := sym.Capabilities[ref.Name]
		if !ok || decl.Ref == nil {
			continue
		}
		want := decl.Ref.Args
		got := ref.Args
		if len(want) != len(got) {
			bag.Add(diag.Errorf(diag.CAP003, "sema", nil,
				"capability %q expects %d argument(s), got %d", ref.Name, len(want), len(got)))
			continue
		}
		for i := range want {
			if want[i].Kind() != got[i].Kind() {
				bag.Add(diag.Errorf(diag.CAP003, "sema", nil,
					"capability %q argument %d kind mismatch", ref.Name, i+1))
			}
		}
	}
}
