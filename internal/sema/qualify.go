package sema

import (
	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/module"
)

// AnalyzeGraph runs the full seven-step analysis over a module-aware
// dependency graph: steps 1-6 run per unit in isolation (spec.md §4.1:
// "stubs are injected so each module can be checked in isolation" — here,
// simply the fact that each unit's own Symbols table is self-contained
// serves that role), then step 7 resolves every cross-module qualified
// reference against the target unit's own collected Symbols.
func AnalyzeGraph(g *module.Graph) map[string]*Result {
	results := make(map[string]*Result, len(g.Units()))
	for id, unit := range g.Units() {
		results[id] = Analyze(unit.Program)
	}
	for id, unit := range g.Units() {
		checkQualifiedRefs(unit, results, results[id].Bag)
	}
	return results
}

// checkQualifiedRefs walks every qualified reference reachable from unit's
// top-level items and resolves it against the aliased target unit's
// exported Symbols.
func checkQualifiedRefs(unit *module.Unit, results map[string]*Result, bag *diag.Bag) {
	resolve := func(alias, name, kind string) {
		targetID, ok := module.ResolveAlias(unit, alias)
		if !ok {
			bag.Add(diag.Errorf(diag.RES002, "sema", nil, "unknown module alias %q", alias))
			return
		}
		target, ok := results[targetID]
		if !ok {
			bag.Add(diag.Errorf(diag.RES004, "sema", nil, "unresolved import target for alias %q", alias))
			return
		}
		if !target.exports(kind, name) {
			bag.Add(diag.Errorf(diag.RES004, "sema", nil,
				"%s::%s does not resolve to an exported %s in the imported module", alias, name, kind))
		}
	}

	resolveVariant := func(alias, enumName, variant string) {
		targetID, ok := module.ResolveAlias(unit, alias)
		if !ok {
			bag.Add(diag.Errorf(diag.RES002, "sema", nil, "unknown module alias %q", alias))
			return
		}
		target, ok := results[targetID]
		if !ok {
			bag.Add(diag.Errorf(diag.RES004, "sema", nil, "unresolved import target for alias %q", alias))
			return
		}
		enum, ok := target.Symbols.Enums[enumName]
		if !ok {
			bag.Add(diag.Errorf(diag.RES004, "sema", nil,
				"%s::%s::%s does not resolve: no such enum in the imported module", alias, enumName, variant))
			return
		}
		if !hasVariant(enum, variant) {
			bag.Add(diag.Errorf(diag.RES004, "sema", nil,
				"%s::%s has no variant %q in the imported module", alias, enumName, variant))
		}
	}

	var walkType func(t ast.Type)
	walkType = func(t ast.Type) {
		switch v := t.(type) {
		case *ast.QualifiedType:
			resolve(v.Alias, v.Name, "type")
			for _, a := range v.Args {
				walkType(a)
			}
		case *ast.NamedType:
			for _, a := range v.Args {
				walkType(a)
			}
		case *ast.FuncType:
			for _, p := range v.Params {
				walkType(p)
			}
			if v.Return != nil {
				walkType(v.Return)
			}
		}
	}

	var walkExpr func(e ast.Expr)
	walkExpr = func(e ast.Expr) {
		switch x := e.(type) {
		case *ast.Path:
			if x.Alias != "" {
				if x.Tail != "" {
					resolveVariant(x.Alias, x.Head, x.Tail)
				} else {
					resolve(x.Alias, x.Head, "value")
				}
			}
		case *ast.Call:
			if x.Callee != nil && x.Callee.Alias != "" {
				if x.Callee.Tail != "" {
					resolveVariant(x.Callee.Alias, x.Callee.Head, x.Callee.Tail)
				} else {
					resolve(x.Callee.Alias, x.Callee.Head, "callable")
				}
			}
			for _, t := range x.TypeArgs {
				walkType(t)
			}
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.RecordLit:
			if q, ok := x.TypeRef.(*ast.QualifiedType); ok {
				resolve(q.Alias, q.Name, "type")
			}
			for _, f := range x.Fields {
				walkExpr(f.Value)
			}
		case *ast.Member:
			walkExpr(x.Left)
		case *ast.BinOp:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.Let:
			walkExpr(x.Value)
			if x.Type != nil {
				walkType(x.Type)
			}
		case *ast.Assign:
			walkExpr(x.Value)
		case *ast.Return:
			if x.Value != nil {
				walkExpr(x.Value)
			}
		case *ast.If:
			walkExpr(x.Cond)
			walkBlock(x.Then, walkExpr)
			if x.Else != nil {
				walkBlock(x.Else, walkExpr)
			}
		case *ast.While:
			walkExpr(x.Cond)
			walkBlock(x.Body, walkExpr)
		case *ast.Block:
			walkBlock(x, walkExpr)
		case *ast.Match:
			walkExpr(x.Scrutinee)
			for _, arm := range x.Arms {
				if vp, ok := arm.Pattern.(*ast.VariantPattern); ok && vp.Alias != "" {
					resolveVariant(vp.Alias, vp.EnumName, vp.Variant)
				}
				if arm.Expr != nil {
					walkExpr(arm.Expr)
				}
				if arm.Block != nil {
					walkBlock(arm.Block, walkExpr)
				}
			}
		}
	}

	for _, item := range unit.Program.Items {
		switch d := item.(type) {
		case *ast.RecordDecl:
			for _, f := range d.Fields {
				if f.Type != nil {
					walkType(f.Type)
				}
			}
		case *ast.EnumDecl:
			for _, v := range d.Variants {
				if v.Payload != nil {
					walkType(v.Payload)
				}
			}
		case *ast.FunctionDecl:
			for _, p := range d.Params {
				if p.Type != nil {
					walkType(p.Type)
				}
			}
			if d.Return != nil {
				walkType(d.Return)
			}
			for _, ens := range d.Ensures {
				walkExpr(ens.Pred)
			}
			if d.Body != nil {
				walkBlock(d.Body, walkExpr)
			}
		case *ast.WorkflowDecl:
			for _, p := range d.Params {
				if p.Type != nil {
					walkType(p.Type)
				}
			}
			if d.Return != nil {
				walkType(d.Return)
			}
			for _, step := range d.Steps {
				for _, a := range step.Args {
					walkExpr(a)
				}
				for _, ens := range step.Ensures {
					walkExpr(ens.Pred)
				}
			}
			for _, out := range d.Output {
				if out.Type != nil {
					walkType(out.Type)
				}
				if out.Binding != nil {
					walkExpr(out.Binding)
				}
			}
		case *ast.AgentDecl:
			for _, p := range d.Params {
				if p.Type != nil {
					walkType(p.Type)
				}
			}
			if d.Return != nil {
				walkType(d.Return)
			}
			if d.Policy.HumanInLoop != nil {
				walkExpr(d.Policy.HumanInLoop)
			}
			if d.Loop.Stop != nil {
				walkExpr(d.Loop.Stop)
			}
			for _, ens := range d.Ensures {
				walkExpr(ens.Pred)
			}
		}
	}
}

func walkBlock(b *ast.Block, walkExpr func(ast.Expr)) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		walkExpr(s)
	}
	if b.Result != nil {
		walkExpr(b.Result)
	}
}
