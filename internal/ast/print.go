package ast

import (
	"fmt"
	"strings"
)

// Print renders a Program as an indented s-expression-ish tree, used by the
// `kooix ast` subcommand (spec.md §6) and by tests comparing structural
// shape without depending on Go's %#v formatting.
func Print(p *Program) string {
	var b strings.Builder
	for _, m := range p.Modules {
		fmt.Fprintf(&b, "module %s\n", m.Path)
		for _, imp := range m.Imports {
			if imp.Alias != "" {
				fmt.Fprintf(&b, "  import %q as %s\n", imp.Path, imp.Alias)
			} else {
				fmt.Fprintf(&b, "  import %q\n", imp.Path)
			}
		}
		for _, it := range m.Items {
			printItem(&b, it, 1)
		}
	}
	return b.String()
}

func indent(b *strings.Builder, n int) {
	b.WriteString(strings.Repeat("  ", n))
}

func printItem(b *strings.Builder, it Item, depth int) {
	indent(b, depth)
	switch d := it.(type) {
	case *CapabilityDecl:
		name := ""
		if d.Ref != nil {
			name = d.Ref.Name
		}
		fmt.Fprintf(b, "cap %s\n", name)
	case *RecordDecl:
		fmt.Fprintf(b, "record %s (%d fields)\n", d.Name, len(d.Fields))
	case *EnumDecl:
		fmt.Fprintf(b, "enum %s (%d variants)\n", d.Name, len(d.Variants))
	case *FunctionDecl:
		fmt.Fprintf(b, "fn %s(%d params) -> %s\n", d.Name, len(d.Params), typeString(d.Return))
	case *WorkflowDecl:
		fmt.Fprintf(b, "workflow %s (%d steps)\n", d.Name, len(d.Steps))
	case *AgentDecl:
		fmt.Fprintf(b, "agent %s (%d transitions)\n", d.Name, len(d.State.Transitions))
	default:
		fmt.Fprintf(b, "<unknown item>\n")
	}
}

func typeString(t Type) string {
	if t == nil {
		return "Unit"
	}
	return t.String()
}
