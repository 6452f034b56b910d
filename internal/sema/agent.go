package sema

import (
	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/graph"
)

// anyState is the state-machine wildcard keyword (spec.md §4.4 item 6:
// "the wildcard propagates to every declared state").
const anyState = "any"

// allowedPredicateRoots are the root symbols a policy/loop/ensures
// predicate on an agent is permitted to reference (spec.md §4.4 item 6,
// "Predicate allowlists").
var allowedPredicateRoots = map[string]bool{"state": true, "output": true}

// checkAgents runs step 6 over every agent declaration.
func checkAgents(mod *ast.Module, sym *Symbols, bag *diag.Bag) {
	for _, item := range mod.Items {
		ag, ok := item.(*ast.AgentDecl)
		if !ok {
			continue
		}
		checkAgentPolicy(ag, bag)
		checkAgentStateMachine(ag, bag)
		checkAgentPredicates(ag, sym, bag)
	}
}

// checkAgentPolicy validates the allow_tools/deny_tools lists: a tool name
// in both is an error, reported together with a warning documenting that
// deny wins (spec.md §4.4 item 6: "allow/deny on the same tool name is an
// error; overlap warns with deny precedence").
func checkAgentPolicy(ag *ast.AgentDecl, bag *diag.Bag) {
	deny := make(map[string]bool, len(ag.Policy.Deny))
	for _, d := range ag.Policy.Deny {
		deny[d] = true
	}
	for _, a := range ag.Policy.Allow {
		if deny[a] {
			bag.Add(diag.Errorf(diag.AGT001, "sema", nil,
				"agent %q: tool %q is both allowed and denied", ag.Name, a))
			bag.Add(diag.Warnf(diag.AGT002, "sema", nil,
				"agent %q: deny overrides allow for tool %q", ag.Name, a))
		}
	}
}

// checkAgentStateMachine builds the state graph, checks reachability,
// termination, and SCC-based liveness.
func checkAgentStateMachine(ag *ast.AgentDecl, bag *diag.Bag) {
	g := graph.New()
	var initial string
	for _, t := range ag.State.Transitions {
		if t.From != anyState {
			g.AddNode(t.From)
			if initial == "" {
				initial = t.From
			}
		}
		for _, to := range t.To {
			g.AddNode(to)
		}
	}
	for _, t := range ag.State.Transitions {
		if t.From == anyState {
			for _, from := range g.Nodes() {
				for _, to := range t.To {
					g.AddEdge(from, to)
				}
			}
			continue
		}
		for _, to := range t.To {
			g.AddEdge(t.From, to)
		}
	}
	if initial == "" {
		return // no concrete state declared; nothing further to check
	}

	mentioned := make(map[string]bool)
	collectStringLiterals(ag.Loop.Stop, mentioned)

	reachable := g.Reachable(initial)
	for _, n := range g.Nodes() {
		if !reachable[n] {
			bag.Add(diag.Warnf(diag.AGT003, "sema", nil,
				"agent %q: state %q is unreachable from %q", ag.Name, n, initial))
		}
	}
	for stop := range mentioned {
		if !g.Has(stop) {
			bag.Add(diag.Warnf(diag.AGT004, "sema", nil,
				"agent %q: stop condition references unknown state %q", ag.Name, stop))
		}
	}

	hasReachableTerminal := false
	for n := range reachable {
		if len(g.Successors(n)) == 0 {
			hasReachableTerminal = true
			break
		}
	}
	if ag.Policy.MaxIterations == nil && !hasReachableTerminal {
		bag.Add(diag.Warnf(diag.AGT005, "sema", nil,
			"agent %q: no max_iterations and no reachable terminal state; may not terminate", ag.Name))
	}

	for _, scc := range g.SCCs() {
		if !g.HasInternalEdge(scc) {
			continue
		}
		if g.HasExternalEdge(scc) {
			continue
		}
		coveredByStop := false
		for _, n := range scc {
			if mentioned[n] {
				coveredByStop = true
				break
			}
		}
		if !coveredByStop {
			bag.Add(diag.Warnf(diag.AGT006, "sema", nil,
				"agent %q: closed liveness cycle among states %v", ag.Name, scc))
		}
	}
}

// checkAgentPredicates enforces the predicate allowlist over policy's
// human_in_loop, the loop's stop condition, and every ensures clause: every
// root symbol referenced must be `state`, `output`, or one of the agent's
// own declared parameters.
func checkAgentPredicates(ag *ast.AgentDecl, sym *Symbols, bag *diag.Bag) {
	roots := make(map[string]bool, len(allowedPredicateRoots)+len(ag.Params))
	for k := range allowedPredicateRoots {
		roots[k] = true
	}
	for _, p := range ag.Params {
		roots[p.Name] = true
	}

	check := func(e ast.Expr) {
		if e == nil {
			return
		}
		var names []string
		collectPathRoots(e, &names)
		for _, n := range names {
			if !roots[n] {
				bag.Add(diag.Warnf(diag.AGT007, "sema", nil,
					"agent %q: predicate references unknown root %q", ag.Name, n))
			}
		}
	}
	check(ag.Policy.HumanInLoop)
	check(ag.Loop.Stop)
	for _, ens := range ag.Ensures {
		check(ens.Pred)
	}

	_ = sym // reserved: future cross-checks may need the wider symbol table
}

// collectStringLiterals walks e for every string-literal leaf, collecting
// them as candidate state names a stop condition mentions.
func collectStringLiterals(e ast.Expr, out map[string]bool) {
	if e == nil {
		return
	}
	switch x := e.(type) {
	case *ast.Literal:
		if x.Kind == ast.StringLit {
			out[x.Str] = true
		}
	case *ast.BinOp:
		collectStringLiterals(x.Left, out)
		collectStringLiterals(x.Right, out)
	case *ast.Member:
		collectStringLiterals(x.Left, out)
	case *ast.Call:
		for _, a := range x.Args {
			collectStringLiterals(a, out)
		}
	}
}

// collectPathRoots walks e for every unqualified, unsegmented Path leaf —
// the "root symbol" a predicate expression ultimately resolves against.
func collectPathRoots(e ast.Expr, out *[]string) {
	if e == nil {
		return
	}
	switch x := e.(type) {
	case *ast.Path:
		if x.Alias == "" && x.Tail == "" {
			*out = append(*out, x.Head)
		}
	case *ast.Member:
		collectPathRoots(x.Left, out)
	case *ast.BinOp:
		collectPathRoots(x.Left, out)
		collectPathRoots(x.Right, out)
	case *ast.Call:
		for _, a := range x.Args {
			collectPathRoots(a, out)
		}
	case *ast.Block:
		for _, s := range x.Stmts {
			collectPathRoots(s, out)
		}
		collectPathRoots(x.Result, out)
	case *ast.If:
		collectPathRoots(x.Cond, out)
	case *ast.RecordLit:
		for _, f := range x.Fields {
			collectPathRoots(f.Value, out)
		}
	}
}
