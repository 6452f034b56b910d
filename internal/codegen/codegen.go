// Package codegen converts a lowered MIR program into LLVM IR text
// (spec.md §4.7): per-function basic blocks become LLVM basic blocks,
// every named MIR value becomes a stack slot (alloca + load/store) rather
// than a phi node — the natural codegen counterpart of the mir package's
// own documented choice to let a control-flow join simply reuse a name
// instead of emitting an explicit phi (see internal/mir's DESIGN.md entry).
//
// Every Kooix runtime value — Int, Bool, Unit, Text, a record, an enum —
// is represented at the LLVM level as one boxed i64 "word": pointers
// (Text/record/enum) are ptrtoint'd into that word at the point they're
// produced and inttoptr'd back out at the point they're dereferenced.
// This keeps every local slot, every call argument and every intrinsic
// signature a uniform i64, which matters because HIR does not persist
// per-local static types past the semantic analyzer (sema's typecheck
// pass computes them but throws them away once a function is accepted) —
// without a parallel typed-register discipline, a uniform boxed word is
// the simplest representation codegen can build on. This mirrors a
// common bootstrap-interpreter/compiler boxing strategy and is recorded
// as a deliberate simplification, not an oversight, in DESIGN.md.
package codegen

import (
	"fmt"
	"strings"

	"github.com/telagod/kooix/internal/hir"
	"github.com/telagod/kooix/internal/mir"
)

// runtimeHeader declares the C-ABI intrinsics spec.md §4.7 requires the
// emitted module to call directly. Every intrinsic is declared in terms
// of the boxed-i64-word convention described above; the C runtime shim
// (internal/native's responsibility) is what actually unboxes/reboxes at
// its boundary.
const runtimeHeader = `; Kooix-generated LLVM IR module.
; Boxed representation: Int/Bool/Unit/Text/record/enum are all i64 words;
; Text/record/enum words are pointers produced by ptrtoint and consumed by
; inttoptr at the point of use.

declare i64 @kx_malloc(i64)
declare i64 @text_concat(i64, i64)
declare i64 @int_to_text(i64)
declare i64 @text_len(i64)
declare i64 @text_starts_with(i64, i64)
declare i64 @text_byte_at(i64, i64)
declare i64 @text_slice(i64, i64, i64)
declare i64 @host_read_file(i64)
declare i64 @host_write_file(i64, i64)
declare i64 @host_load_source_map(i64)
declare i64 @host_eprintln(i64)
declare i64 @host_argc()
declare i64 @host_argv(i64)
declare i64 @host_link_llvm_ir_file(i64, i64)
`

// stringEntry is one interned literal's global name, escaped body and
// total byte length (including the trailing NUL).
type stringEntry struct {
	Name    string
	Escaped string
	Len     int
}

// Emitter holds the cross-function state string interning and enum/record
// layout lookups need to stay deterministic: every literal is assigned a
// global name the first time it is seen, in declaration order, and reused
// on every later sighting.
type Emitter struct {
	recordIndex map[string]*mir.RecordLayout
	recordOrder []string
	enumIndex   map[string]*mir.EnumLayout
	enumOrder   []string
	variantEnum map[string]*mir.EnumLayout
	variantTag  map[string]int

	stringEntries map[string]stringEntry
	stringOrder   []string
}

func newEmitter(prog *mir.Program) *Emitter {
	e := &Emitter{
		recordIndex:   make(map[string]*mir.RecordLayout, len(prog.Records)),
		enumIndex:     make(map[string]*mir.EnumLayout, len(prog.Enums)),
		variantEnum:   make(map[string]*mir.EnumLayout),
		variantTag:    make(map[string]int),
		stringEntries: make(map[string]stringEntry),
	}
	for _, r := range prog.Records {
		if _, dup := e.recordIndex[r.Name]; dup {
			continue
		}
		e.recordIndex[r.Name] = r
		e.recordOrder = append(e.recordOrder, r.Name)
	}
	for _, en := range prog.Enums {
		if _, dup := e.enumIndex[en.Name]; dup {
			continue
		}
		e.enumIndex[en.Name] = en
		e.enumOrder = append(e.enumOrder, en.Name)
		for i, v := range en.Variants {
			if _, dup := e.variantEnum[v]; dup {
				continue // first enum to declare a given variant name wins; see func.go's emitEnumConstruct doc
			}
			e.variantEnum[v] = en
			e.variantTag[v] = i
		}
	}
	return e
}

// findVariant returns the enum layout owning variant and its declaration-
// order tag index.
func (e *Emitter) findVariant(variant string) (*mir.EnumLayout, int, bool) {
	en, ok := e.variantEnum[variant]
	if !ok {
		return nil, 0, false
	}
	return en, e.variantTag[variant], true
}

// findRecordField returns the first (declaration-order) record layout
// that declares field, and its word offset.
func (e *Emitter) findRecordField(field string) (*mir.RecordLayout, int, bool) {
	for _, name := range e.recordOrder {
		layout := e.recordIndex[name]
		if offset, ok := layout.OffsetOf(field); ok {
			return layout, offset, true
		}
	}
	return nil, 0, false
}

// internString returns the stringEntry for lit, assigning a fresh global
// name the first time lit is seen (first-sighting order), so repeated
// identical literals across functions emit exactly one backing global
// (spec.md §4.7).
func (e *Emitter) internString(lit string) stringEntry {
	if entry, ok := e.stringEntries[lit]; ok {
		return entry
	}
	escaped, n := escapeLLVMString(lit)
	entry := stringEntry{Name: fmt.Sprintf("@.str.%d", len(e.stringOrder)), Escaped: escaped, Len: n}
	e.stringEntries[lit] = entry
	e.stringOrder = append(e.stringOrder, lit)
	return entry
}

// Emit converts prog into a complete LLVM IR text module. Functions,
// globals and string literals all emit in HIR/MIR declaration order —
// nothing here iterates a Go map without first sorting through a
// declaration-order slice, so two calls on an unchanged prog produce
// byte-identical text (spec.md §8's cross-stage hash-equality property).
func Emit(prog *mir.Program) (string, error) {
	e := newEmitter(prog)

	funcChunks := make([]string, 0, len(prog.Functions))
	for _, fn := range prog.Functions {
		chunk, err := e.emitFunction(fn)
		if err != nil {
			return "", fmt.Errorf("codegen: function %q: %w", fn.Name, err)
		}
		funcChunks = append(funcChunks, chunk)
	}

	// String/enum/record chunks are rendered after functions (interning
	// happens as a side effect of walking function bodies) but placed
	// ahead of them in the final module text — LLVM does not require
	// declaration-before-use for globals, so ordering here is purely
	// cosmetic and kept deterministic for readability, not correctness.
	chunks := []string{runtimeHeader, e.emitTypeDecls(), e.emitStringGlobals()}
	chunks = append(chunks, funcChunks...)

	return joinChunks(chunks), nil
}

// joinChunks merges chunks with a balanced, round-based pairwise join
// instead of a naive left-fold concatenation (spec.md §4.7: "avoids
// quadratic blow-up... a documented problem the project hit during
// bootstrap"). Each round halves the chunk count by concatenating
// neighbors two at a time, so the total bytes copied across all rounds is
// O(n log n) rather than O(n^2).
func joinChunks(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	for len(chunks) > 1 {
		next := make([]string, 0, (len(chunks)+1)/2)
		for i := 0; i < len(chunks); i += 2 {
			if i+1 < len(chunks) {
				var b strings.Builder
				b.Grow(len(chunks[i]) + len(chunks[i+1]))
				b.WriteString(chunks[i])
				b.WriteString(chunks[i+1])
				next = append(next, b.String())
			} else {
				next = append(next, chunks[i])
			}
		}
		chunks = next
	}
	return chunks[0]
}

// emitTypeDecls declares the record/enum heap layouts: a record is a
// contiguous word array (field i at word offset i); an enum is the fixed
// `{i8 tag, i64 payload}` pair (spec.md §4.7).
func (e *Emitter) emitTypeDecls() string {
	var b strings.Builder
	for _, name := range e.recordOrder {
		r := e.recordIndex[name]
		words := len(r.Fields)
		if words == 0 {
			words = 1
		}
		fmt.Fprintf(&b, "%%record.%s = type [%d x i64]\n", r.Name, words)
	}
	for _, name := range e.enumOrder {
		en := e.enumIndex[name]
		fmt.Fprintf(&b, "%%enum.%s = type { i8, i64 }\n", en.Name)
	}
	b.WriteString("\n")
	return b.String()
}

// emitStringGlobals renders every interned literal as a private global
// constant, in first-seen order (spec.md §4.7: "identical literals are
// emitted once").
func (e *Emitter) emitStringGlobals() string {
	var b strings.Builder
	for _, lit := range e.stringOrder {
		entry := e.stringEntries[lit]
		fmt.Fprintf(&b, "%s = private unnamed_addr constant [%d x i8] c\"%s\"\n", entry.Name, entry.Len, entry.Escaped)
	}
	b.WriteString("\n")
	return b.String()
}

// escapeLLVMString renders s as an LLVM string-constant body (NUL
// terminated, non-printable/backslash/quote bytes as \XX hex escapes)
// and returns the escaped text plus the total byte length including the
// trailing NUL.
func escapeLLVMString(s string) (string, int) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' || c < 0x20 || c >= 0x7f {
			fmt.Fprintf(&b, "\\%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	b.WriteString("\\00")
	return b.String(), len(s) + 1
}

// llvmType returns the boxed representation's uniform register type.
// Every Kooix value is a single i64 word at rest; this function exists so
// call sites read as type-aware even though the answer is always the
// same — kept as a function rather than inlined "i64" literals because
// spec.md's layout table is phrased per-type and a future non-boxed
// backend would only need to change this one function's body.
func llvmType(_ hir.Type) string { return "i64" }
