package codegen

import (
	"fmt"
	"strings"

	"github.com/telagod/kooix/internal/hir"
	"github.com/telagod/kooix/internal/mir"
)

// funcBuilder carries the mutable state of emitting one MIR function: a
// running SSA register counter and the set of named stack slots every
// parameter and every block-local MIR value gets (see package doc for why
// slots rather than phi nodes).
type funcBuilder struct {
	e      *Emitter
	regN   int
	slots  map[string]bool
	order  []string // slot names in first-appearance order
}

func (fb *funcBuilder) freshReg() string {
	fb.regN++
	return fmt.Sprintf("%%r%d", fb.regN)
}

// sanitize maps a MIR value name (a surface identifier or a synthetic
// "%tN" temp) to a slot suffix safe to splice into an LLVM identifier.
func sanitize(name string) string {
	return strings.NewReplacer("%", "t_", ".", "_").Replace(name)
}

func (fb *funcBuilder) declareSlot(name string) {
	if name == "" || fb.slots[name] {
		return
	}
	fb.slots[name] = true
	fb.order = append(fb.order, name)
}

func (fb *funcBuilder) collectSlots(fn *mir.Function) {
	for _, p := range fn.Params {
		fb.declareSlot(p.Name)
	}
	for _, blk := range fn.Blocks {
		for _, op := range blk.Ops {
			fb.declareSlot(op.Dst)
		}
	}
}

// emitFunction renders one MIR function as an LLVM `define`. Every MIR
// block becomes an LLVM basic block with the same label; the first
// block additionally carries the alloca/store prologue that materializes
// every parameter and named local as a stack slot.
func (e *Emitter) emitFunction(fn *mir.Function) (string, error) {
	fb := &funcBuilder{e: e, slots: make(map[string]bool)}
	fb.collectSlots(fn)

	var b strings.Builder
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("i64 %%arg.%s", sanitize(p.Name))
	}
	fmt.Fprintf(&b, "define i64 @kx_%s(%s) {\n", fn.Name, strings.Join(params, ", "))

	var prologue strings.Builder
	for _, name := range fb.order {
		fmt.Fprintf(&prologue, "  %%slot.%s = alloca i64\n", sanitize(name))
	}
	for _, p := range fn.Params {
		fmt.Fprintf(&prologue, "  store i64 %%arg.%s, i64* %%slot.%s\n", sanitize(p.Name), sanitize(p.Name))
	}

	for i, blk := range fn.Blocks {
		fmt.Fprintf(&b, "%s:\n", blk.Label)
		if i == 0 {
			b.WriteString(prologue.String())
		}
		for _, op := range blk.Ops {
			reg, err := fb.emitValue(op.Value, &b)
			if err != nil {
				return "", err
			}
			if op.Dst != "" {
				fmt.Fprintf(&b, "  store i64 %s, i64* %%slot.%s\n", reg, sanitize(op.Dst))
			}
		}
		if err := fb.emitTerminator(blk.Term, &b); err != nil {
			return "", err
		}
	}
	b.WriteString("}\n\n")
	return b.String(), nil
}

func (fb *funcBuilder) emitTerminator(term mir.Terminator, b *strings.Builder) error {
	switch t := term.(type) {
	case *mir.Return:
		if t.Value == nil {
			b.WriteString("  ret i64 0\n")
			return nil
		}
		reg, err := fb.emitValue(t.Value, b)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "  ret i64 %s\n", reg)
		return nil
	case *mir.Jump:
		fmt.Fprintf(b, "  br label %%%s\n", t.Target)
		return nil
	case *mir.Branch:
		condReg, err := fb.emitValue(t.Cond, b)
		if err != nil {
			return err
		}
		boolReg := fb.freshReg()
		fmt.Fprintf(b, "  %s = icmp ne i64 %s, 0\n", boolReg, condReg)
		fmt.Fprintf(b, "  br i1 %s, label %%%s, label %%%s\n", boolReg, t.True, t.False)
		return nil
	case nil:
		return fmt.Errorf("block has no terminator")
	default:
		return fmt.Errorf("unhandled terminator %T", term)
	}
}

// emitValue lowers one MIR operand — a straight-line hir.Expr carried
// verbatim from HIR, or a synthetic *mir.TagTest — into a chain of LLVM
// instructions appended to b, returning the i64 SSA register (or literal
// immediate) holding the result.
func (fb *funcBuilder) emitValue(value interface{}, b *strings.Builder) (string, error) {
	switch v := value.(type) {
	case nil:
		return "0", nil

	case *hir.Literal:
		return fb.emitLiteral(v, b)

	case *hir.VarRef:
		return fb.emitVarRef(v, b)

	case *hir.Call:
		return fb.emitCall(v, b)

	case *hir.RecordLit:
		return fb.emitRecordLit(v, b)

	case *hir.Member:
		return fb.emitMember(v, b)

	case *hir.BinOp:
		return fb.emitBinOp(v, b)

	case *mir.TagTest:
		return fb.emitTagTest(v, b)

	default:
		return "", fmt.Errorf("unhandled MIR operand %T (control-flow expressions must already be expanded into blocks)", value)
	}
}

func (fb *funcBuilder) emitLiteral(lit *hir.Literal, b *strings.Builder) (string, error) {
	switch lit.Kind {
	case hir.IntLit:
		return fmt.Sprintf("%d", lit.Int), nil
	case hir.BoolLit:
		if lit.Bool {
			return "1", nil
		}
		return "0", nil
	default:
		entry := fb.e.internString(lit.Str)
		reg := fb.freshReg()
		fmt.Fprintf(b, "  %s = ptrtoint [%d x i8]* %s to i64\n", reg, entry.Len, entry.Name)
		return reg, nil
	}
}

func (fb *funcBuilder) emitVarRef(v *hir.VarRef, b *strings.Builder) (string, error) {
	switch v.Ref.Kind {
	case hir.SymLocal, hir.SymParam:
		reg := fb.freshReg()
		fmt.Fprintf(b, "  %s = load i64, i64* %%slot.%s\n", reg, sanitize(v.Ref.Name))
		return reg, nil
	case hir.SymVariant:
		return fb.emitEnumConstruct(v.Ref.Name, nil, b)
	default:
		return "", fmt.Errorf("unresolved reference %q cannot be lowered", v.Ref.Name)
	}
}

func (fb *funcBuilder) emitCall(c *hir.Call, b *strings.Builder) (string, error) {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		reg, err := fb.emitValue(a, b)
		if err != nil {
			return "", err
		}
		args[i] = reg
	}
	if c.Target.Kind == hir.SymVariant {
		var payload *string
		if len(args) > 0 {
			payload = &args[0]
		}
		return fb.emitEnumConstruct(c.Target.Name, payload, b)
	}
	if c.Target.Kind == hir.SymUnresolved {
		return "", fmt.Errorf("call to unresolved target %q", c.Target.Name)
	}
	argList := make([]string, len(args))
	for i, a := range args {
		argList[i] = "i64 " + a
	}
	reg := fb.freshReg()
	fmt.Fprintf(b, "  %s = call i64 @kx_%s(%s)\n", reg, c.Target.Name, strings.Join(argList, ", "))
	return reg, nil
}

// emitEnumConstruct mallocs a {i8 tag, i64 payload} box and returns its
// address boxed as an i64. variant is resolved to its owning enum by
// scanning the program's enum layouts for a declaration containing it —
// see DESIGN.md: this only disagrees with HIR's own resolution when two
// distinct enums share a variant name AND the call site relied on
// qualification to pick one, an edge case sema already pushes programs
// away from by requiring `Enum::variant` syntax whenever a bare name is
// ambiguous.
func (fb *funcBuilder) emitEnumConstruct(variant string, payload *string, b *strings.Builder) (string, error) {
	layout, tag, ok := fb.e.findVariant(variant)
	if !ok {
		return "", fmt.Errorf("no enum declares variant %q", variant)
	}
	_ = layout
	boxReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = call i64 @kx_malloc(i64 16)\n", boxReg)
	ptrReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = inttoptr i64 %s to i8*\n", ptrReg, boxReg)
	fmt.Fprintf(b, "  store i8 %d, i8* %s\n", tag, ptrReg)
	if payload != nil {
		payloadAddr := fb.freshReg()
		fmt.Fprintf(b, "  %s = getelementptr i8, i8* %s, i64 8\n", payloadAddr, ptrReg)
		payloadPtr := fb.freshReg()
		fmt.Fprintf(b, "  %s = bitcast i8* %s to i64*\n", payloadPtr, payloadAddr)
		fmt.Fprintf(b, "  store i64 %s, i64* %s\n", *payload, payloadPtr)
	}
	return boxReg, nil
}

func (fb *funcBuilder) emitRecordLit(rl *hir.RecordLit, b *strings.Builder) (string, error) {
	layout, ok := fb.e.recordIndex[rl.Type.Name]
	if !ok {
		return "", fmt.Errorf("unknown record type %q", rl.Type.Name)
	}
	words := len(layout.Fields)
	if words == 0 {
		words = 1
	}
	boxReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = call i64 @kx_malloc(i64 %d)\n", boxReg, words*8)
	ptrReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = inttoptr i64 %s to i64*\n", ptrReg, boxReg)
	for _, f := range rl.Fields {
		valReg, err := fb.emitValue(f.Value, b)
		if err != nil {
			return "", err
		}
		offset, ok := layout.OffsetOf(f.Name)
		if !ok {
			return "", fmt.Errorf("record %q has no field %q", rl.Type.Name, f.Name)
		}
		elemReg := fb.freshReg()
		fmt.Fprintf(b, "  %s = getelementptr i64, i64* %s, i64 %d\n", elemReg, ptrReg, offset)
		fmt.Fprintf(b, "  store i64 %s, i64* %s\n", valReg, elemReg)
	}
	return boxReg, nil
}

func (fb *funcBuilder) emitMember(m *hir.Member, b *strings.Builder) (string, error) {
	leftReg, err := fb.emitValue(m.Left, b)
	if err != nil {
		return "", err
	}
	if m.Field == "payload" {
		return fb.emitEnumPayloadLoad(leftReg, b), nil
	}
	layout, offset, ok := fb.e.findRecordField(m.Field)
	if !ok {
		return "", fmt.Errorf("no record declares field %q", m.Field)
	}
	_ = layout
	ptrReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = inttoptr i64 %s to i64*\n", ptrReg, leftReg)
	elemReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = getelementptr i64, i64* %s, i64 %d\n", elemReg, ptrReg, offset)
	valReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = load i64, i64* %s\n", valReg, elemReg)
	return valReg, nil
}

func (fb *funcBuilder) emitEnumPayloadLoad(boxReg string, b *strings.Builder) string {
	ptrReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = inttoptr i64 %s to i8*\n", ptrReg, boxReg)
	addrReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = getelementptr i8, i8* %s, i64 8\n", addrReg, ptrReg)
	castReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = bitcast i8* %s to i64*\n", castReg, addrReg)
	valReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = load i64, i64* %s\n", valReg, castReg)
	return valReg
}

func (fb *funcBuilder) emitBinOp(op *hir.BinOp, b *strings.Builder) (string, error) {
	l, err := fb.emitValue(op.Left, b)
	if err != nil {
		return "", err
	}
	r, err := fb.emitValue(op.Right, b)
	if err != nil {
		return "", err
	}
	switch op.Op {
	case "+":
		reg := fb.freshReg()
		fmt.Fprintf(b, "  %s = add i64 %s, %s\n", reg, l, r)
		return reg, nil
	case "&&":
		reg := fb.freshReg()
		fmt.Fprintf(b, "  %s = and i64 %s, %s\n", reg, l, r)
		return reg, nil
	case "||":
		reg := fb.freshReg()
		fmt.Fprintf(b, "  %s = or i64 %s, %s\n", reg, l, r)
		return reg, nil
	}
	pred, ok := icmpPredicate[op.Op]
	if !ok {
		return "", fmt.Errorf("unsupported operator %q", op.Op)
	}
	cmpReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = icmp %s i64 %s, %s\n", cmpReg, pred, l, r)
	reg := fb.freshReg()
	fmt.Fprintf(b, "  %s = zext i1 %s to i64\n", reg, cmpReg)
	return reg, nil
}

var icmpPredicate = map[string]string{
	"==": "eq", "!=": "ne", "<": "slt", "<=": "sle", ">": "sgt", ">=": "sge",
}

func (fb *funcBuilder) emitTagTest(t *mir.TagTest, b *strings.Builder) (string, error) {
	scrutReg, err := fb.emitValue(t.Scrutinee, b)
	if err != nil {
		return "", err
	}
	_, tag, ok := fb.e.findVariant(t.Variant)
	if !ok {
		return "", fmt.Errorf("no enum declares variant %q", t.Variant)
	}
	ptrReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = inttoptr i64 %s to i8*\n", ptrReg, scrutReg)
	tagReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = load i8, i8* %s\n", tagReg, ptrReg)
	extReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = zext i8 %s to i64\n", extReg, tagReg)
	cmpReg := fb.freshReg()
	fmt.Fprintf(b, "  %s = icmp eq i64 %s, %d\n", cmpReg, extReg, tag)
	reg := fb.freshReg()
	fmt.Fprintf(b, "  %s = zext i1 %s to i64\n", reg, cmpReg)
	return reg, nil
}
