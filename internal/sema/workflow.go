package sema

import (
	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
)

// checkWorkflows runs step 5 over every workflow declaration.
func checkWorkflows(mod *ast.Module, sym *Symbols, bag *diag.Bag) {
	for _, item := range mod.Items {
		wf, ok := item.(*ast.WorkflowDecl)
		if !ok {
			continue
		}
		checkWorkflow(wf, sym, bag)
	}
}

func checkWorkflow(wf *ast.WorkflowDecl, sym *Symbols, bag *diag.Bag) {
	env := make(map[string]string, len(wf.Params))
	for _, p := range wf.Params {
		if p.Type != nil {
			env[p.Name] = p.Type.String()
		}
	}
	c := &checker{sym: sym, bag: bag, scopeID: wf.Name}

	seenSteps := make(map[string]bool, len(wf.Steps))
	typeProducers := make(map[string]bool)
	for _, t := range env {
		typeProducers[t] = true
	}

	for _, step := range wf.Steps {
		if seenSteps[step.ID] {
			bag.Add(diag.Errorf(diag.WRK001, "sema", nil, "duplicate step id %q", step.ID))
		}
		seenSteps[step.ID] = true

		params, ret, generics, ok := sym.resolveCallableName(step.Target)
		if !ok {
			bag.Add(diag.Warnf(diag.WRK002, "sema", nil,
				"workflow %q step %q: call target %q is not declared at top level", wf.Name, step.ID, step.Target))
		} else {
			_ = generics
			if len(step.Args) != len(params) {
				bag.Add(diag.Errorf(diag.WRK003, "sema", nil,
					"workflow %q step %q: %q expects %d argument(s), got %d",
					wf.Name, step.ID, step.Target, len(params), len(step.Args)))
			} else {
				for i, p := range params {
					if p.Type == nil {
						continue
					}
					got := c.checkExpr(step.Args[i], env)
					if got != "" && got != "?" && got != p.Type.String() {
						bag.Add(diag.Errorf(diag.WRK003, "sema", nil,
							"workflow %q step %q argument %d: expected %s, got %s",
							wf.Name, step.ID, i+1, p.Type.String(), got))
					}
				}
			}
		}

		for _, ens := range step.Ensures {
			if t := c.checkExpr(ens.Pred, env); t != "" && t != "?" && t != "Bool" {
				bag.Add(diag.Errorf(diag.TYP002, "sema", nil,
					"workflow %q step %q: ensures predicate has type %s, expected Bool", wf.Name, step.ID, t))
			}
		}

		stepType := "Unit"
		if ok && ret != nil {
			stepType = ret.String()
		}
		env[step.ID] = stepType
		typeProducers[stepType] = true
	}

	checkWorkflowOutput(wf, env, typeProducers, c)
}

// checkWorkflowOutput validates output-contract fields: duplicates are an
// error, a declared type with no producer anywhere in the workflow's scope
// is a coverage warning, and an unbound field is either bound by name
// (when a same-typed workflow-scope symbol shares its name) or flagged as
// an ambiguous binding.
func checkWorkflowOutput(wf *ast.WorkflowDecl, env map[string]string, typeProducers map[string]bool, c *checker) {
	seen := make(map[string]bool, len(wf.Output))
	for _, f := range wf.Output {
		if seen[f.Name] {
			c.bag.Add(diag.Errorf(diag.WRK004, "sema", nil, "duplicate output field %q", f.Name))
			continue
		}
		seen[f.Name] = true

		wantType := ""
		if f.Type != nil {
			wantType = f.Type.String()
		}
		if wantType != "" && !typeProducers[wantType] {
			c.bag.Add(diag.Warnf(diag.WRK005, "sema", nil,
				"workflow %q output field %q: type %s is not produced by any parameter or step", wf.Name, f.Name, wantType))
		}

		if f.Binding != nil {
			got := c.checkExpr(f.Binding, env)
			if wantType != "" && got != "" && got != "?" && got != wantType {
				c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil,
					"workflow %q output field %q: binding has type %s, declared type is %s", wf.Name, f.Name, got, wantType))
			}
			continue
		}

		if symType, ok := env[f.Name]; ok && (wantType == "" || symType == wantType) {
			continue // bound by name
		}
		c.bag.Add(diag.Warnf(diag.WRK006, "sema", nil,
			"workflow %q output field %q is unbound and not resolvable by name", wf.Name, f.Name))
	}
}
