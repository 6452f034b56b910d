package hir

import (
	"fmt"

	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/sema"
)

// lowerer carries the mutable state of one module's HIR lowering: the
// decorated symbol table step 1-6 produced, and a memoized name->id table
// so every reference to the same declaration resolves to the same stable
// NodeID, the way the teacher's elaborator stamps Core nodes from a single
// monotonic counter (internal/elaborate/elaborate.go's nextID).
type lowerer struct {
	sym    *sema.Symbols
	nextID uint64
	ids    map[string]uint64 // "<kind>:<name>" -> id, assigned on first sight
}

func newLowerer(sym *sema.Symbols) *lowerer {
	return &lowerer{sym: sym, nextID: 1, ids: make(map[string]uint64)}
}

func (l *lowerer) fresh() uint64 {
	id := l.nextID
	l.nextID++
	return id
}

// declID returns the stable id for (kind, name), assigning one the first
// time it is asked for — whether that first ask comes from lowering the
// declaration itself or from lowering a reference that precedes it in
// source order (Kooix, like the teacher's Core IR, resolves names against
// a pre-built table, not in a single forward pass).
func (l *lowerer) declID(kind SymbolKind, name string) uint64 {
	key := fmt.Sprintf("%d:%s", kind, name)
	if id, ok := l.ids[key]; ok {
		return id
	}
	id := l.fresh()
	l.ids[key] = id
	return id
}

func (l *lowerer) ref(kind SymbolKind, name string) Ref {
	return Ref{Kind: kind, Name: name, ID: l.declID(kind, name)}
}

// Lower runs HIR construction over one analyzed module: spec.md §4.5 "all
// names are resolved to internal symbols". It consumes the Symbols table
// Analyze already built rather than re-collecting declarations, so a
// lowering bug can never disagree with what step 1-6 validated.
func Lower(mod *ast.Module, sym *sema.Symbols) *Program {
	l := newLowerer(sym)
	prog := &Program{}

	for _, item := range mod.Items {
		switch d := item.(type) {
		case *ast.CapabilityDecl:
			prog.Capabilities = append(prog.Capabilities, l.lowerCapability(d))
		case *ast.RecordDecl:
			prog.Records = append(prog.Records, l.lowerRecord(d))
		case *ast.EnumDecl:
			prog.Enums = append(prog.Enums, l.lowerEnum(d))
		case *ast.FunctionDecl:
			prog.Functions = append(prog.Functions, l.lowerFunction(d))
		case *ast.WorkflowDecl:
			prog.Workflows = append(prog.Workflows, l.lowerWorkflow(d))
		case *ast.AgentDecl:
			prog.Agents = append(prog.Agents, l.lowerAgent(d))
		}
	}
	return prog
}

// ---- Types ----

func (l *lowerer) lowerType(t ast.Type) Type {
	if t == nil {
		return Type{Name: "Unit"}
	}
	switch v := t.(type) {
	case *ast.NamedType:
		out := Type{Name: v.Name}
		for _, a := range v.Args {
			out.Args = append(out.Args, l.lowerType(a))
		}
		if _, ok := l.sym.Records[v.Name]; ok {
			out.Ref = l.ref(SymRecord, v.Name)
		} else if _, ok := l.sym.Enums[v.Name]; ok {
			out.Ref = l.ref(SymEnum, v.Name)
		}
		return out
	case *ast.QualifiedType:
		out := Type{Name: v.Alias + "::" + v.Name, Ref: Ref{Kind: SymUnresolved, Name: v.Alias + "::" + v.Name}}
		for _, a := range v.Args {
			out.Args = append(out.Args, l.lowerType(a))
		}
		return out
	case *ast.FuncType:
		out := Type{Name: "Func"}
		for _, p := range v.Params {
			out.Args = append(out.Args, l.lowerType(p))
		}
		out.Args = append(out.Args, l.lowerType(v.Return))
		return out
	}
	return Type{Name: "?"}
}

func (l *lowerer) lowerCapArg(a *ast.TypeArg) CapArg {
	out := CapArg{StringVal: a.StringVal, IntVal: a.IntVal}
	if a.TypeVal != nil {
		t := l.lowerType(a.TypeVal)
		out.TypeVal = &t
	}
	return out
}

func (l *lowerer) lowerCapRef(c *ast.CapRef) CapRef {
	// Capabilities have no dedicated SymbolKind: a cap name never collides
	// with a record/enum/function name, so SymUnresolved plus the bare name
	// is enough to print and cross-check against Symbols.Capabilities.
	out := CapRef{Cap: l.ref(SymUnresolved, c.Name)}
	for _, a := range c.Args {
		out.Args = append(out.Args, l.lowerCapArg(a))
	}
	return out
}

func (l *lowerer) lowerCapRefs(cs []*ast.CapRef) []CapRef {
	out := make([]CapRef, 0, len(cs))
	for _, c := range cs {
		out = append(out, l.lowerCapRef(c))
	}
	return out
}

// ---- Declarations ----

func (l *lowerer) lowerCapability(d *ast.CapabilityDecl) *CapabilityDecl {
	out := &CapabilityDecl{Node: Node{NodeID: l.fresh(), Sp: d.Sp}}
	if d.Ref != nil {
		out.Name = d.Ref.Name
		for _, a := range d.Ref.Args {
			out.Args = append(out.Args, l.lowerCapArg(a))
		}
	}
	return out
}

func (l *lowerer) lowerRecord(d *ast.RecordDecl) *RecordDecl {
	out := &RecordDecl{Node: Node{NodeID: l.declID(SymRecord, d.Name), Sp: d.Sp}, Name: d.Name, Where: d.Where}
	for _, p := range d.Params {
		out.Generics = append(out.Generics, p.Name)
	}
	for _, f := range d.Fields {
		out.Fields = append(out.Fields, Field{Name: f.Name, Type: l.lowerType(f.Type)})
	}
	return out
}

func (l *lowerer) lowerEnum(d *ast.EnumDecl) *EnumDecl {
	out := &EnumDecl{Node: Node{NodeID: l.declID(SymEnum, d.Name), Sp: d.Sp}, Name: d.Name}
	for _, p := range d.Params {
		out.Generics = append(out.Generics, p.Name)
	}
	for _, v := range d.Variants {
		variant := Variant{Name: v.Name}
		if v.Payload != nil {
			t := l.lowerType(v.Payload)
			variant.Payload = &t
		}
		out.Variants = append(out.Variants, variant)
	}
	return out
}

func (l *lowerer) lowerParams(ps []ast.Param) []Param {
	out := make([]Param, 0, len(ps))
	for _, p := range ps {
		out = append(out, Param{Name: p.Name, Type: l.lowerType(p.Type)})
	}
	return out
}

func (l *lowerer) lowerEnsures(es []ast.EnsuresClause, scope map[string]bool) []Ensures {
	out := make([]Ensures, 0, len(es))
	for _, e := range es {
		out = append(out, Ensures{Pred: l.lowerExpr(e.Pred, scope)})
	}
	return out
}

func (l *lowerer) lowerFailure(f *ast.FailurePolicy) *FailurePolicy {
	if f == nil {
		return nil
	}
	out := &FailurePolicy{}
	for _, a := range f.Actions {
		act := FailureAction{Kind: int(a.Kind), Count: a.Count}
		if a.Target != "" {
			act.Target = l.ref(SymUnresolved, a.Target)
		}
		out.Actions = append(out.Actions, act)
	}
	return out
}

func (l *lowerer) lowerEvidence(e *ast.Evidence) *Evidence {
	if e == nil {
		return nil
	}
	return &Evidence{Trace: e.Trace, Metrics: e.Metrics}
}

func (l *lowerer) lowerFunction(d *ast.FunctionDecl) *FunctionDecl {
	out := &FunctionDecl{
		Node:     Node{NodeID: l.declID(SymFunction, d.Name), Sp: d.Sp},
		Name:     d.Name,
		Params:   l.lowerParams(d.Params),
		Return:   l.lowerType(d.Return),
		Intent:   d.Intent,
		Requires: l.lowerCapRefs(d.Requires),
		Failure:  l.lowerFailure(d.Failure),
		Evidence: l.lowerEvidence(d.Evidence),
	}
	for _, g := range d.Generics {
		out.Generics = append(out.Generics, g.Name)
	}
	for _, e := range d.Effects {
		out.Effects = append(out.Effects, Effect{Name: e.Name, Arg: e.Arg})
	}

	scope := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		scope[p.Name] = true
	}
	out.Ensures = l.lowerEnsures(d.Ensures, scope)
	if d.Body != nil {
		out.Body = l.lowerBlock(d.Body, scope)
	}
	return out
}

func (l *lowerer) lowerStep(s ast.Step, scope map[string]bool) Step {
	out := Step{ID: s.ID, Target: l.resolveCallable(s.Target)}
	for _, a := range s.Args {
		out.Args = append(out.Args, l.lowerExpr(a, scope))
	}
	out.Ensures = l.lowerEnsures(s.Ensures, scope)
	if s.OnFail != nil {
		act := FailureAction{Kind: int(s.OnFail.Kind), Count: s.OnFail.Count}
		if s.OnFail.Target != "" {
			act.Target = l.ref(SymUnresolved, s.OnFail.Target)
		}
		out.OnFail = &act
	}
	return out
}

// resolveCallable resolves a bare name against functions, workflows and
// agents, mirroring Symbols.resolveCallableName's three-way lookup
// (internal/sema/symbols.go) without exporting a Ref-shaped variant of it
// from sema — HIR only needs the symbol kind, not the signature sema
// already checked it against.
func (l *lowerer) resolveCallable(name string) Ref {
	if _, ok := l.sym.Functions[name]; ok {
		return l.ref(SymFunction, name)
	}
	if _, ok := l.sym.Workflows[name]; ok {
		return l.ref(SymWorkflow, name)
	}
	if _, ok := l.sym.Agents[name]; ok {
		return l.ref(SymAgent, name)
	}
	return Ref{Kind: SymUnresolved, Name: name}
}

func (l *lowerer) lowerWorkflow(d *ast.WorkflowDecl) *WorkflowDecl {
	out := &WorkflowDecl{
		Node:     Node{NodeID: l.declID(SymWorkflow, d.Name), Sp: d.Sp},
		Name:     d.Name,
		Params:   l.lowerParams(d.Params),
		Return:   l.lowerType(d.Return),
		Intent:   d.Intent,
		Requires: l.lowerCapRefs(d.Requires),
		Evidence: l.lowerEvidence(d.Evidence),
	}

	scope := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		scope[p.Name] = true
	}
	for _, s := range d.Steps {
		out.Steps = append(out.Steps, l.lowerStep(s, scope))
		scope[s.ID] = true // step ids become available to later steps and output bindings
	}
	for _, o := range d.Output {
		field := OutputField{Name: o.Name, Type: l.lowerType(o.Type)}
		if o.Binding != nil {
			field.Binding = l.lowerExpr(o.Binding, scope)
		}
		out.Output = append(out.Output, field)
	}
	return out
}

func (l *lowerer) lowerAgent(d *ast.AgentDecl) *AgentDecl {
	out := &AgentDecl{
		Node:     Node{NodeID: l.declID(SymAgent, d.Name), Sp: d.Sp},
		Name:     d.Name,
		Params:   l.lowerParams(d.Params),
		Return:   l.lowerType(d.Return),
		Intent:   d.Intent,
		Requires: l.lowerCapRefs(d.Requires),
		Evidence: l.lowerEvidence(d.Evidence),
	}
	for _, t := range d.State.Transitions {
		out.State.Transitions = append(out.State.Transitions, Transition{From: t.From, To: append([]string(nil), t.To...)})
	}
	out.Policy = ToolPolicy{
		Allow:         append([]string(nil), d.Policy.Allow...),
		Deny:          append([]string(nil), d.Policy.Deny...),
		MaxIterations: d.Policy.MaxIterations,
	}

	scope := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		scope[p.Name] = true
	}
	if d.Policy.HumanInLoop != nil {
		out.Policy.HumanInLoop = l.lowerExpr(d.Policy.HumanInLoop, scope)
	}
	out.Loop.Stages = append([]string(nil), d.Loop.Stages...)
	if d.Loop.Stop != nil {
		out.Loop.Stop = l.lowerExpr(d.Loop.Stop, scope)
	}
	out.Ensures = l.lowerEnsures(d.Ensures, scope)
	return out
}

// ---- Expressions ----

func (l *lowerer) lowerLiteral(lit *ast.Literal) *Literal {
	return &Literal{Node: Node{NodeID: l.fresh(), Sp: lit.Sp}, Kind: LitKind(lit.Kind), Int: lit.Int, Bool: lit.Bool, Str: lit.Str}
}

// lowerExpr resolves e against scope (the flat map of locals/params visible
// at this point — copied per block the same way sema/typecheck.go's
// checker.checkBlock does it, so a `let` inside a block never leaks past
// its closing brace).
func (l *lowerer) lowerExpr(e ast.Expr, scope map[string]bool) Expr {
	switch x := e.(type) {
	case *ast.Literal:
		return l.lowerLiteral(x)

	case *ast.Path:
		return l.lowerPath(x, scope)

	case *ast.Call:
		return l.lowerCall(x, scope)

	case *ast.RecordLit:
		return l.lowerRecordLit(x, scope)

	case *ast.Member:
		return &Member{Node: Node{NodeID: l.fresh(), Sp: x.Sp}, Left: l.lowerExpr(x.Left, scope), Field: x.Field}

	case *ast.BinOp:
		return &BinOp{Node: Node{NodeID: l.fresh(), Sp: x.Sp}, Op: x.Op, Left: l.lowerExpr(x.Left, scope), Right: l.lowerExpr(x.Right, scope)}

	case *ast.Let:
		val := l.lowerExpr(x.Value, scope)
		scope[x.Name] = true
		out := &Let{Node: Node{NodeID: l.fresh(), Sp: x.Sp}, Ref: Ref{Kind: SymLocal, Name: x.Name}, Value: val}
		if x.Type != nil {
			t := l.lowerType(x.Type)
			out.Type = &t
		}
		return out

	case *ast.Assign:
		kind := SymLocal
		if !scope[x.Name] {
			kind = SymUnresolved
		}
		return &Assign{Node: Node{NodeID: l.fresh(), Sp: x.Sp}, Ref: Ref{Kind: kind, Name: x.Name}, Value: l.lowerExpr(x.Value, scope)}

	case *ast.Return:
		out := &Return{Node: Node{NodeID: l.fresh(), Sp: x.Sp}}
		if x.Value != nil {
			out.Value = l.lowerExpr(x.Value, scope)
		}
		return out

	case *ast.If:
		out := &If{Node: Node{NodeID: l.fresh(), Sp: x.Sp}, Cond: l.lowerExpr(x.Cond, scope)}
		out.Then = l.lowerBlock(x.Then, scope)
		if x.Else != nil {
			out.Else = l.lowerBlock(x.Else, scope)
		}
		return out

	case *ast.While:
		return &While{Node: Node{NodeID: l.fresh(), Sp: x.Sp}, Cond: l.lowerExpr(x.Cond, scope), Body: l.lowerBlock(x.Body, scope)}

	case *ast.Block:
		return l.lowerBlock(x, scope)

	case *ast.Match:
		return l.lowerMatch(x, scope)
	}
	return &Literal{Node: Node{NodeID: l.fresh()}, Kind: IntLit}
}

func (l *lowerer) lowerBlock(b *ast.Block, outer map[string]bool) *Block {
	scope := make(map[string]bool, len(outer)+4)
	for k, v := range outer {
		scope[k] = v
	}
	out := &Block{Node: Node{NodeID: l.fresh(), Sp: b.Sp}}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, l.lowerExpr(s, scope))
	}
	if b.Result != nil {
		out.Result = l.lowerExpr(b.Result, scope)
	}
	return out
}

func (l *lowerer) lowerPath(p *ast.Path, scope map[string]bool) Expr {
	node := Node{NodeID: l.fresh(), Sp: p.Sp}
	if p.Alias != "" {
		name := p.Alias + "::" + p.Head
		if p.Tail != "" {
			name += "::" + p.Tail
		}
		return &VarRef{Node: node, Ref: Ref{Kind: SymUnresolved, Name: name}}
	}
	if p.Tail != "" {
		// Namespaced bare variant reference, e.g. `Option::None`.
		return &VarRef{Node: node, Ref: Ref{Kind: SymVariant, Name: p.Tail, ID: l.declID(SymEnum, p.Head)}}
	}
	if scope[p.Head] {
		return &VarRef{Node: node, Ref: Ref{Kind: SymLocal, Name: p.Head}}
	}
	if _, ok := l.sym.Functions[p.Head]; ok {
		return &VarRef{Node: node, Ref: l.ref(SymFunction, p.Head)}
	}
	if owners, ok := l.sym.VariantOwners[p.Head]; ok && len(owners) > 0 {
		return &VarRef{Node: node, Ref: Ref{Kind: SymVariant, Name: p.Head, ID: l.declID(SymEnum, owners[0])}}
	}
	return &VarRef{Node: node, Ref: Ref{Kind: SymUnresolved, Name: p.Head}}
}

func (l *lowerer) lowerCall(c *ast.Call, scope map[string]bool) *Call {
	out := &Call{Node: Node{NodeID: l.fresh(), Sp: c.Sp}}
	for _, t := range c.TypeArgs {
		out.TypeArgs = append(out.TypeArgs, l.lowerType(t))
	}
	for _, a := range c.Args {
		out.Args = append(out.Args, l.lowerExpr(a, scope))
	}

	switch {
	case c.Callee.Alias != "":
		name := c.Callee.Alias + "::" + c.Callee.Head
		if c.Callee.Tail != "" {
			name += "::" + c.Callee.Tail
		}
		out.Target = Ref{Kind: SymUnresolved, Name: name}
	case c.Callee.Tail != "":
		out.Target = Ref{Kind: SymVariant, Name: c.Callee.Tail, ID: l.declID(SymEnum, c.Callee.Head)}
	default:
		out.Target = l.resolveCallable(c.Callee.Head)
	}
	return out
}

func (l *lowerer) lowerRecordLit(rl *ast.RecordLit, scope map[string]bool) *RecordLit {
	out := &RecordLit{Node: Node{NodeID: l.fresh(), Sp: rl.Sp}, Type: l.lowerType(rl.TypeRef)}
	for _, f := range rl.Fields {
		out.Fields = append(out.Fields, FieldInit{Name: f.Name, Value: l.lowerExpr(f.Value, scope)})
	}
	return out
}

func (l *lowerer) lowerMatch(m *ast.Match, scope map[string]bool) *Match {
	out := &Match{Node: Node{NodeID: l.fresh(), Sp: m.Sp}, Scrutinee: l.lowerExpr(m.Scrutinee, scope)}
	for _, arm := range m.Arms {
		armScope := make(map[string]bool, len(scope)+1)
		for k, v := range scope {
			armScope[k] = v
		}
		pattern := l.lowerPattern(arm.Pattern, armScope)
		hirArm := MatchArm{Pattern: pattern}
		if arm.Expr != nil {
			hirArm.Expr = l.lowerExpr(arm.Expr, armScope)
		}
		if arm.Block != nil {
			hirArm.Block = l.lowerBlock(arm.Block, armScope)
		}
		out.Arms = append(out.Arms, hirArm)
	}
	return out
}

func (l *lowerer) lowerPattern(p ast.Pattern, armScope map[string]bool) Pattern {
	switch x := p.(type) {
	case *ast.WildcardPattern:
		return &WildcardPattern{}
	case *ast.LiteralPattern:
		return &LiteralPattern{Lit: l.lowerLiteral(x.Lit)}
	case *ast.VariantPattern:
		if x.Binder != "" {
			armScope[x.Binder] = true
		}
		out := &VariantPattern{Variant: x.Variant, Binder: x.Binder}
		switch {
		case x.Alias != "":
			out.Enum = Ref{Kind: SymUnresolved, Name: x.Alias + "::" + x.EnumName}
		case x.EnumName != "":
			out.Enum = l.ref(SymEnum, x.EnumName)
		default:
			if owners, ok := l.sym.VariantOwners[x.Variant]; ok && len(owners) > 0 {
				out.Enum = l.ref(SymEnum, owners[0])
			} else {
				out.Enum = Ref{Kind: SymUnresolved, Name: x.Variant}
			}
		}
		return out
	}
	return &WildcardPattern{}
}
