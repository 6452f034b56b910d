package hir

import (
	"fmt"
	"strings"
)

// Print renders a Program as an indented summary, the HIR counterpart of
// internal/ast.Print, used by the `kooix hir` subcommand (spec.md §6).
func Print(prog *Program) string {
	var b strings.Builder
	for _, c := range prog.Capabilities {
		fmt.Fprintf(&b, "cap %s #%d\n", c.Name, c.NodeID)
	}
	for _, r := range prog.Records {
		fmt.Fprintf(&b, "record %s #%d (%d fields)\n", r.Name, r.NodeID, len(r.Fields))
	}
	for _, e := range prog.Enums {
		fmt.Fprintf(&b, "enum %s #%d (%d variants)\n", e.Name, e.NodeID, len(e.Variants))
	}
	for _, fn := range prog.Functions {
		effects := make([]string, len(fn.Effects))
		for i, ef := range fn.Effects {
			effects[i] = ef.Name
		}
		fmt.Fprintf(&b, "fn %s #%d(%d params) -> %s !%v\n", fn.Name, fn.NodeID, len(fn.Params), fn.Return, effects)
	}
	for _, w := range prog.Workflows {
		fmt.Fprintf(&b, "workflow %s #%d (%d steps)\n", w.Name, w.NodeID, len(w.Steps))
	}
	for _, a := range prog.Agents {
		fmt.Fprintf(&b, "agent %s #%d\n", a.Name, a.NodeID)
	}
	return b.String()
}
