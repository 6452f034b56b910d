package mir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/telagod/kooix/internal/hir"
)

// Fingerprint computes a SHA-256 hex digest of prog's deterministic textual
// dump. spec.md §8 treats cross-stage output-hash equality (same input,
// same compiler version, byte-identical IR) as a testable property; this
// digest lets that property be checked on the MIR shape without re-running
// the LLVM emitter. The mir package's own tests hash through it.
func Fingerprint(prog *Program) string {
	h := sha256.New()
	h.Write([]byte(dump(prog)))
	return hex.EncodeToString(h.Sum(nil))
}

// Dump exposes the same deterministic textual rendering Fingerprint hashes,
// used directly by the `kooix mir` subcommand (spec.md §6) so what a user
// inspects is exactly what the determinism property is computed over.
func Dump(prog *Program) string {
	return dump(prog)
}

// dump renders prog as deterministic text: declaration order is preserved
// exactly as Lower received it from HIR (itself preserved from the loader's
// module order), so dump never depends on map iteration order.
func dump(prog *Program) string {
	var b strings.Builder
	for _, r := range prog.Records {
		fmt.Fprintf(&b, "record %s%v\n", r.Name, r.Fields)
	}
	for _, e := range prog.Enums {
		fmt.Fprintf(&b, "enum %s%v\n", e.Name, e.Variants)
	}
	for _, fn := range prog.Functions {
		dumpFunction(&b, fn)
	}
	return b.String()
}

func dumpFunction(b *strings.Builder, fn *Function) {
	fmt.Fprintf(b, "fn %s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s:%s", p.Name, p.Type.String())
	}
	fmt.Fprintf(b, ") -> %s\n", fn.Return.String())
	for _, blk := range fn.Blocks {
		dumpBlock(b, blk)
	}
}

func dumpBlock(b *strings.Builder, blk *Block) {
	fmt.Fprintf(b, "%s:\n", blk.Label)
	for _, op := range blk.Ops {
		fmt.Fprintf(b, "  %s = %s\n", op.Dst, dumpValue(op.Value))
	}
	switch t := blk.Term.(type) {
	case *Return:
		fmt.Fprintf(b, "  return %s\n", dumpValue(t.Value))
	case *Branch:
		fmt.Fprintf(b, "  branch %s %s %s\n", dumpValue(t.Cond), t.True, t.False)
	case *Jump:
		fmt.Fprintf(b, "  jump %s\n", t.Target)
	default:
		b.WriteString("  <no terminator>\n")
	}
}

func dumpValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "unit"
	case *TagTest:
		return fmt.Sprintf("tagtest(%s::%s)", x.Enum.Name, x.Variant)
	case hir.Expr:
		return dumpExpr(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// dumpExpr renders a straight-line HIR expression deterministically. It
// does not need to handle If/While/Match/Block — the lowerer guarantees
// those never reach an Op or a Return/Branch value directly.
func dumpExpr(e hir.Expr) string {
	switch x := e.(type) {
	case *hir.Literal:
		switch x.Kind {
		case hir.IntLit:
			return fmt.Sprintf("%d", x.Int)
		case hir.BoolLit:
			return fmt.Sprintf("%v", x.Bool)
		default:
			return fmt.Sprintf("%q", x.Str)
		}
	case *hir.VarRef:
		return fmt.Sprintf("ref(%s#%d:%s)", x.Ref.Name, x.Ref.ID, x.Ref.Kind.String())
	case *hir.Call:
		parts := make([]string, len(x.Args))
		for i, a := range x.Args {
			parts[i] = dumpExpr(a)
		}
		return fmt.Sprintf("call(%s#%d)(%s)", x.Target.Name, x.Target.ID, strings.Join(parts, ","))
	case *hir.RecordLit:
		var sb strings.Builder
		sb.WriteString(x.Type.Name + "{")
		for i, f := range x.Fields {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "%s:%s", f.Name, dumpExpr(f.Value))
		}
		sb.WriteString("}")
		return sb.String()
	case *hir.Member:
		return fmt.Sprintf("%s.%s", dumpExpr(x.Left), x.Field)
	case *hir.BinOp:
		return fmt.Sprintf("(%s %s %s)", dumpExpr(x.Left), x.Op, dumpExpr(x.Right))
	default:
		return "?"
	}
}
