package interp

import (
	"fmt"

	"github.com/telagod/kooix/internal/hir"
)

// DefaultMaxIterations is the interpreter's default safety guard against
// non-termination introduced by user bugs (spec.md §4.6: "a configurable
// maximum loop iteration count").
const DefaultMaxIterations = 1_000_000

// Interpreter is a tree-walking evaluator over one lowered HIR program.
// Evaluation is deterministic and single-threaded (spec.md §4.6); it never
// mutates the HIR it walks.
type Interpreter struct {
	funcs         map[string]*hir.FunctionDecl
	enumByID      map[uint64]*hir.EnumDecl
	maxIterations int
}

// New builds an interpreter over prog. maxIterations <= 0 selects
// DefaultMaxIterations.
func New(prog *hir.Program, maxIterations int) *Interpreter {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	it := &Interpreter{
		funcs:         make(map[string]*hir.FunctionDecl, len(prog.Functions)),
		enumByID:      make(map[uint64]*hir.EnumDecl, len(prog.Enums)),
		maxIterations: maxIterations,
	}
	for _, fn := range prog.Functions {
		it.funcs[fn.Name] = fn
	}
	for _, e := range prog.Enums {
		it.enumByID[e.NodeID] = e
	}
	return it
}

// Run invokes the named function with args — the driver's entry point for
// `kooix run` (spec.md §6: "interpret the program's main").
func (it *Interpreter) Run(name string, args []Value) (Value, error) {
	fn, ok := it.funcs[name]
	if !ok {
		return nil, fmt.Errorf("interp: unknown function %q", name)
	}
	return it.call(fn, args)
}

// controlReturn is the sentinel `return` unwinds through evalStmt/evalExpr
// as an error value; call() is the only place that catches it. This keeps
// every evaluator function's signature a plain (Value, error) pair instead
// of threading a separate control-flow result type through every case.
type controlReturn struct{ value Value }

func (c *controlReturn) Error() string { return "return" }

func (it *Interpreter) call(fn *hir.FunctionDecl, args []Value) (Value, error) {
	if len(fn.Effects) > 0 {
		names := make([]string, len(fn.Effects))
		for i, e := range fn.Effects {
			names[i] = e.Name
		}
		return nil, fmt.Errorf("interp: %q carries effect(s) %v; the interpreter refuses effectful calls (spec.md §4.6)", fn.Name, names)
	}
	if fn.Body == nil {
		return nil, fmt.Errorf("interp: %q has no body", fn.Name)
	}
	env := NewEnvironment()
	for i, p := range fn.Params {
		if i < len(args) {
			env.Declare(p.Name, args[i])
		}
	}
	v, err := it.evalBlock(fn.Body, env)
	if cr, ok := err.(*controlReturn); ok {
		return cr.value, nil
	}
	return v, err
}

func (it *Interpreter) evalBlock(b *hir.Block, outer *Environment) (Value, error) {
	env := outer.Child()
	for _, s := range b.Stmts {
		if _, err := it.evalStmt(s, env); err != nil {
			return nil, err
		}
	}
	if b.Result != nil {
		return it.evalExpr(b.Result, env)
	}
	return UnitValue{}, nil
}

// evalStmt evaluates one block-level statement. A `return` inside it
// yields a *controlReturn, which every caller up the chain forwards
// unchanged until call() unwinds it into a final value.
func (it *Interpreter) evalStmt(e hir.Expr, env *Environment) (Value, error) {
	switch s := e.(type) {
	case *hir.Let:
		v, err := it.evalExpr(s.Value, env)
		if err != nil {
			return nil, err
		}
		env.Declare(s.Ref.Name, v)
		return UnitValue{}, nil

	case *hir.Assign:
		v, err := it.evalExpr(s.Value, env)
		if err != nil {
			return nil, err
		}
		if !env.Assign(s.Ref.Name, v) {
			return nil, fmt.Errorf("interp: assignment to undeclared local %q", s.Ref.Name)
		}
		return UnitValue{}, nil

	case *hir.Return:
		v := Value(UnitValue{})
		if s.Value != nil {
			var err error
			v, err = it.evalExpr(s.Value, env)
			if err != nil {
				return nil, err
			}
		}
		return nil, &controlReturn{value: v}

	default:
		return it.evalExpr(e, env)
	}
}

func (it *Interpreter) evalExpr(e hir.Expr, env *Environment) (Value, error) {
	switch x := e.(type) {
	case *hir.Literal:
		return it.evalLiteral(x), nil

	case *hir.VarRef:
		return it.evalVarRef(x, env)

	case *hir.Call:
		return it.evalCall(x, env)

	case *hir.RecordLit:
		return it.evalRecordLit(x, env)

	case *hir.Member:
		return it.evalMember(x, env)

	case *hir.BinOp:
		return it.evalBinOp(x, env)

	case *hir.If:
		condv, err := it.evalExpr(x.Cond, env)
		if err != nil {
			return nil, err
		}
		b, ok := condv.(BoolValue)
		if !ok {
			return nil, fmt.Errorf("interp: if condition did not evaluate to Bool")
		}
		if b.V {
			return it.evalBlock(x.Then, env)
		}
		if x.Else != nil {
			return it.evalBlock(x.Else, env)
		}
		return UnitValue{}, nil

	case *hir.While:
		return it.evalWhile(x, env)

	case *hir.Block:
		return it.evalBlock(x, env)

	case *hir.Match:
		return it.evalMatch(x, env)
	}
	return nil, fmt.Errorf("interp: unhandled expression %T", e)
}

func (it *Interpreter) evalLiteral(lit *hir.Literal) Value {
	switch lit.Kind {
	case hir.IntLit:
		return IntValue{V: lit.Int}
	case hir.BoolLit:
		return BoolValue{V: lit.Bool}
	default:
		return TextValue{V: lit.Str}
	}
}

func (it *Interpreter) evalVarRef(ref *hir.VarRef, env *Environment) (Value, error) {
	if v, ok := env.Get(ref.Ref.Name); ok {
		return v, nil
	}
	if ref.Ref.Kind == hir.SymVariant {
		enum, ok := it.enumByID[ref.Ref.ID]
		if !ok {
			return nil, fmt.Errorf("interp: unresolved enum for variant %q", ref.Ref.Name)
		}
		return &EnumValue{Enum: enum.Name, Variant: ref.Ref.Name}, nil
	}
	return nil, fmt.Errorf("interp: unresolved reference %q", ref.Ref.Name)
}

func (it *Interpreter) evalCall(c *hir.Call, env *Environment) (Value, error) {
	args := make([]Value, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := it.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if c.Target.Kind == hir.SymVariant {
		enum, ok := it.enumByID[c.Target.ID]
		if !ok {
			return nil, fmt.Errorf("interp: unresolved enum for variant constructor %q", c.Target.Name)
		}
		var payload Value
		if len(args) > 0 {
			payload = args[0]
		}
		return &EnumValue{Enum: enum.Name, Variant: c.Target.Name, Payload: payload}, nil
	}

	fn, ok := it.funcs[c.Target.Name]
	if !ok {
		return nil, fmt.Errorf("interp: call to unresolved or non-function target %q (workflows/agents are outside the interpreter's HIR function-body subset, spec.md §4.6)", c.Target.Name)
	}
	return it.call(fn, args)
}

func (it *Interpreter) evalRecordLit(rl *hir.RecordLit, env *Environment) (Value, error) {
	fields := make(map[string]Value, len(rl.Fields))
	for _, f := range rl.Fields {
		v, err := it.evalExpr(f.Value, env)
		if err != nil {
			return nil, err
		}
		fields[f.Name] = v
	}
	return &RecordValue{Type: rl.Type.Name, Fields: fields}, nil
}

func (it *Interpreter) evalMember(m *hir.Member, env *Environment) (Value, error) {
	left, err := it.evalExpr(m.Left, env)
	if err != nil {
		return nil, err
	}
	switch v := left.(type) {
	case *RecordValue:
		fv, ok := v.Fields[m.Field]
		if !ok {
			return nil, fmt.Errorf("interp: record %q has no field %q", v.Type, m.Field)
		}
		return fv, nil
	case *EnumValue:
		if m.Field == "payload" && v.Payload != nil {
			return v.Payload, nil
		}
		return nil, fmt.Errorf("interp: enum value %s::%s has no field %q", v.Enum, v.Variant, m.Field)
	default:
		return nil, fmt.Errorf("interp: member access on a non-record/enum value")
	}
}

func (it *Interpreter) evalBinOp(b *hir.BinOp, env *Environment) (Value, error) {
	l, err := it.evalExpr(b.Left, env)
	if err != nil {
		return nil, err
	}
	r, err := it.evalExpr(b.Right, env)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case "+":
		li, lok := l.(IntValue)
		ri, rok := r.(IntValue)
		if !lok || !rok {
			return nil, fmt.Errorf("interp: `+` requires Int operands")
		}
		return IntValue{V: li.V + ri.V}, nil
	case "==":
		return BoolValue{V: valuesEqual(l, r)}, nil
	case "!=":
		return BoolValue{V: !valuesEqual(l, r)}, nil
	case "<", "<=", ">", ">=":
		li, lok := l.(IntValue)
		ri, rok := r.(IntValue)
		if !lok || !rok {
			return nil, fmt.Errorf("interp: `%s` requires Int operands", b.Op)
		}
		switch b.Op {
		case "<":
			return BoolValue{V: li.V < ri.V}, nil
		case "<=":
			return BoolValue{V: li.V <= ri.V}, nil
		case ">":
			return BoolValue{V: li.V > ri.V}, nil
		default:
			return BoolValue{V: li.V >= ri.V}, nil
		}
	case "&&", "||":
		lb, lok := l.(BoolValue)
		rb, rok := r.(BoolValue)
		if !lok || !rok {
			return nil, fmt.Errorf("interp: `%s` requires Bool operands", b.Op)
		}
		if b.Op == "&&" {
			return BoolValue{V: lb.V && rb.V}, nil
		}
		return BoolValue{V: lb.V || rb.V}, nil
	}
	return nil, fmt.Errorf("interp: unsupported operator %q", b.Op)
}

func valuesEqual(l, r Value) bool {
	switch lv := l.(type) {
	case IntValue:
		rv, ok := r.(IntValue)
		return ok && lv.V == rv.V
	case BoolValue:
		rv, ok := r.(BoolValue)
		return ok && lv.V == rv.V
	case TextValue:
		rv, ok := r.(TextValue)
		return ok && lv.V == rv.V
	case *EnumValue:
		rv, ok := r.(*EnumValue)
		return ok && lv.Enum == rv.Enum && lv.Variant == rv.Variant
	default:
		return false
	}
}

func (it *Interpreter) evalWhile(w *hir.While, env *Environment) (Value, error) {
	iterations := 0
	for {
		condv, err := it.evalExpr(w.Cond, env)
		if err != nil {
			return nil, err
		}
		b, ok := condv.(BoolValue)
		if !ok {
			return nil, fmt.Errorf("interp: while condition did not evaluate to Bool")
		}
		if !b.V {
			return UnitValue{}, nil
		}
		iterations++
		if iterations > it.maxIterations {
			return nil, fmt.Errorf("interp: while loop exceeded the maximum iteration guard (%d)", it.maxIterations)
		}
		if _, err := it.evalBlock(w.Body, env); err != nil {
			return nil, err // propagates a nested `return` or a real error out of the loop
		}
	}
}

func (it *Interpreter) evalMatch(m *hir.Match, env *Environment) (Value, error) {
	scrutv, err := it.evalExpr(m.Scrutinee, env)
	if err != nil {
		return nil, err
	}
	for _, arm := range m.Arms {
		armEnv := env.Child()
		matched, err := it.matchPattern(arm.Pattern, scrutv, armEnv)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		if arm.Block != nil {
			return it.evalBlock(arm.Block, armEnv)
		}
		return it.evalExpr(arm.Expr, armEnv)
	}
	return nil, fmt.Errorf("interp: no match arm matched (non-exhaustiveness should have been rejected by sema)")
}

func (it *Interpreter) matchPattern(p hir.Pattern, v Value, armEnv *Environment) (bool, error) {
	switch pat := p.(type) {
	case *hir.WildcardPattern:
		return true, nil
	case *hir.LiteralPattern:
		return valuesEqual(it.evalLiteral(pat.Lit), v), nil
	case *hir.VariantPattern:
		ev, ok := v.(*EnumValue)
		if !ok || ev.Variant != pat.Variant {
			return false, nil
		}
		if pat.Binder != "" {
			if ev.Payload == nil {
				return false, fmt.Errorf("interp: variant %q has no payload to bind to %q", pat.Variant, pat.Binder)
			}
			armEnv.Declare(pat.Binder, ev.Payload)
		}
		return true, nil
	}
	return false, fmt.Errorf("interp: unhandled pattern %T", p)
}
