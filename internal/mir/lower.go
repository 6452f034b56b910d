package mir

import (
	"fmt"

	"github.com/telagod/kooix/internal/hir"
)

// funcLowerer carries the mutable state of lowering one function body into
// basic blocks: a running block counter and a running temp counter for
// intermediate values a control-flow join needs a name for.
type funcLowerer struct {
	blockN int
	tempN  int
	blocks []*Block
}

func (fl *funcLowerer) newBlock(prefix string) *Block {
	fl.blockN++
	b := &Block{Label: fmt.Sprintf("%s%d", prefix, fl.blockN)}
	fl.blocks = append(fl.blocks, b)
	return b
}

func (fl *funcLowerer) fresh() string {
	fl.tempN++
	return fmt.Sprintf("%%t%d", fl.tempN)
}

func local(name string) *hir.VarRef {
	return &hir.VarRef{Ref: hir.Ref{Kind: hir.SymLocal, Name: name}}
}

// unit is the Unit value every `while` and else-less `if` produces.
// spec.md §4.7 maps Unit to an `i64` zero at the LLVM layer, so an Int
// literal zero is the natural MIR-level stand-in rather than inventing a
// dedicated Unit node.
func unit() *hir.Literal {
	return &hir.Literal{Kind: hir.IntLit, Int: 0}
}

// Lower lowers every function body in prog into CFG-shaped
// MIR, and fixes a heap layout for every record/enum (spec.md §4.5). Only
// functions carry executable bodies in this compiler (workflows and agents
// are specified declaratively and are interpreted/compiled via their own
// analyses, not as MIR functions) — spec.md §4.6 scopes the interpreter and
// (by extension) MIR execution to "the HIR function-body subset".
func Lower(prog *hir.Program) *Program {
	out := &Program{}
	for _, r := range prog.Records {
		layout := &RecordLayout{Name: r.Name}
		for _, f := range r.Fields {
			layout.Fields = append(layout.Fields, f.Name)
		}
		out.Records = append(out.Records, layout)
	}
	for _, e := range prog.Enums {
		layout := &EnumLayout{Name: e.Name}
		for _, v := range e.Variants {
			layout.Variants = append(layout.Variants, v.Name)
		}
		out.Enums = append(out.Enums, layout)
	}
	for _, fn := range prog.Functions {
		out.Functions = append(out.Functions, lowerFunction(fn))
	}
	return out
}

func lowerFunction(fn *hir.FunctionDecl) *Function {
	out := &Function{Name: fn.Name, Params: fn.Params, Return: fn.Return}
	fl := &funcLowerer{}
	entry := fl.newBlock("entry")
	cur := entry
	if fn.Body != nil {
		cur = fl.lowerBlockInto(cur, fn.Body, "")
		if cur.Term == nil {
			var ret interface{}
			if fn.Body.Result == nil {
				ret = nil
			}
			cur.Term = &Return{Value: ret}
		}
	} else if cur.Term == nil {
		cur.Term = &Return{}
	}
	out.Blocks = fl.blocks
	return out
}

// lowerBlockInto lowers b's statements and trailing result into cur
// (splitting into new blocks as control flow demands), returning the block
// execution falls into after b finishes. When resultName is non-empty, the
// block's trailing result is bound to that local rather than treated as an
// implicit function return (used when a `let`/`if`/`match`/`while` nested
// inside another block produces a value its enclosing expression needs).
func (fl *funcLowerer) lowerBlockInto(cur *Block, b *hir.Block, resultName string) *Block {
	for _, stmt := range b.Stmts {
		cur = fl.lowerStmt(cur, stmt)
		if cur.Term != nil {
			return cur // an early return ended the block; no further stmts execute
		}
	}
	if b.Result != nil {
		if resultName != "" {
			cur = fl.lowerBind(cur, resultName, b.Result)
		} else {
			// Trailing expression of a top-level function body: its value
			// is the function's return value.
			cur = fl.lowerReturn(cur, b.Result)
		}
	}
	return cur
}

func (fl *funcLowerer) lowerStmt(cur *Block, stmt hir.Expr) *Block {
	switch s := stmt.(type) {
	case *hir.Let:
		return fl.lowerBind(cur, s.Ref.Name, s.Value)
	case *hir.Assign:
		return fl.lowerBind(cur, s.Ref.Name, s.Value)
	case *hir.Return:
		return fl.lowerReturn(cur, s.Value)
	case *hir.If, *hir.While, *hir.Match, *hir.Block:
		// Control flow used only for effect (no binding): lower with a
		// throwaway result name.
		return fl.lowerBind(cur, fl.fresh(), stmt)
	default:
		cur.Ops = append(cur.Ops, Op{Value: stmt})
		return cur
	}
}

func (fl *funcLowerer) lowerReturn(cur *Block, value hir.Expr) *Block {
	if value == nil {
		cur.Term = &Return{}
		return cur
	}
	if isControlFlow(value) {
		tmp := fl.fresh()
		cur = fl.lowerBind(cur, tmp, value)
		cur.Term = &Return{Value: local(tmp)}
		return cur
	}
	cur.Term = &Return{Value: value}
	return cur
}

func isControlFlow(e hir.Expr) bool {
	switch e.(type) {
	case *hir.If, *hir.While, *hir.Match, *hir.Block:
		return true
	}
	return false
}

// lowerBind evaluates value and binds its result to name in cur (or a
// successor block when value itself requires branching), returning the
// block execution continues in afterward.
func (fl *funcLowerer) lowerBind(cur *Block, name string, value hir.Expr) *Block {
	switch v := value.(type) {
	case *hir.If:
		return fl.lowerIf(cur, name, v)
	case *hir.While:
		return fl.lowerWhile(cur, name, v)
	case *hir.Match:
		return fl.lowerMatch(cur, name, v)
	case *hir.Block:
		join := fl.lowerBlockInto(cur, v, name)
		return join
	default:
		cur.Ops = append(cur.Ops, Op{Dst: name, Value: value})
		return cur
	}
}

func (fl *funcLowerer) lowerIf(cur *Block, name string, v *hir.If) *Block {
	thenB := fl.newBlock("then")
	elseB := fl.newBlock("else")
	join := fl.newBlock("endif")

	cur.Term = &Branch{Cond: v.Cond, True: thenB.Label, False: elseB.Label}

	thenEnd := fl.lowerBlockInto(thenB, v.Then, name)
	if thenEnd.Term == nil {
		thenEnd.Term = &Jump{Target: join.Label}
	}

	if v.Else != nil {
		elseEnd := fl.lowerBlockInto(elseB, v.Else, name)
		if elseEnd.Term == nil {
			elseEnd.Term = &Jump{Target: join.Label}
		}
	} else {
		if name != "" {
			elseB.Ops = append(elseB.Ops, Op{Dst: name, Value: unit()})
		}
		elseB.Term = &Jump{Target: join.Label}
	}

	return join
}

func (fl *funcLowerer) lowerWhile(cur *Block, name string, v *hir.While) *Block {
	head := fl.newBlock("while")
	body := fl.newBlock("do")
	exit := fl.newBlock("endwhile")

	cur.Term = &Jump{Target: head.Label}
	head.Term = &Branch{Cond: v.Cond, True: body.Label, False: exit.Label}

	bodyEnd := fl.lowerBlockInto(body, v.Body, "")
	if bodyEnd.Term == nil {
		bodyEnd.Term = &Jump{Target: head.Label}
	}
	if name != "" {
		exit.Ops = append(exit.Ops, Op{Dst: name, Value: unit()})
	}
	return exit
}

func (fl *funcLowerer) lowerMatch(cur *Block, name string, v *hir.Match) *Block {
	join := fl.newBlock("endmatch")
	for i, arm := range v.Arms {
		last := i == len(v.Arms)-1
		armBody := fl.newBlock("arm")

		vp, isVariant := arm.Pattern.(*hir.VariantPattern)
		if vp != nil && isVariant && !last {
			next := fl.newBlock("arm")
			cur.Term = &Branch{
				Cond:  &TagTest{Scrutinee: v.Scrutinee, Enum: vp.Enum, Variant: vp.Variant},
				True:  armBody.Label,
				False: next.Label,
			}
			cur = next
		} else {
			// Wildcard, literal pattern, or the final arm: falls through
			// unconditionally (exhaustiveness was proved by sema).
			cur.Term = &Jump{Target: armBody.Label}
		}

		if vp != nil && vp.Binder != "" {
			armBody.Ops = append(armBody.Ops, Op{
				Dst:   vp.Binder,
				Value: &hir.Member{Left: v.Scrutinee, Field: "payload"},
			})
		}

		var armEnd *Block
		if arm.Block != nil {
			armEnd = fl.lowerBlockInto(armBody, arm.Block, name)
		} else {
			armEnd = fl.lowerBind(armBody, name, arm.Expr)
		}
		if armEnd.Term == nil {
			armEnd.Term = &Jump{Target: join.Label}
		}
	}
	return join
}
