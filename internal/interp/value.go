// Package interp implements the Kooix bootstrap interpreter (spec.md
// §4.6): a tree-walking evaluator over the HIR function-body subset plus
// record/enum values, enforcing the "no effects" contract and a
// configurable maximum loop iteration count.
package interp

import "fmt"

// Value is any runtime value the interpreter produces.
type Value interface {
	fmt.Stringer
	valueNode()
}

// IntValue is a Kooix Int.
type IntValue struct{ V int64 }

func (v IntValue) String() string { return fmt.Sprintf("%d", v.V) }
func (IntValue) valueNode()       {}

// BoolValue is a Kooix Bool.
type BoolValue struct{ V bool }

func (v BoolValue) String() string { return fmt.Sprintf("%v", v.V) }
func (BoolValue) valueNode()       {}

// TextValue is a Kooix Text.
type TextValue struct{ V string }

func (v TextValue) String() string { return v.V }
func (TextValue) valueNode()       {}

// UnitValue is the value every statement-only expression produces.
type UnitValue struct{}

func (UnitValue) String() string { return "()" }
func (UnitValue) valueNode()     {}

// RecordValue is a heap-shaped record value: named fields, order
// irrelevant at this layer (MIR/codegen fix the word-offset layout).
type RecordValue struct {
	Type   string
	Fields map[string]Value
}

func (v *RecordValue) String() string {
	return fmt.Sprintf("%s{...}", v.Type)
}
func (*RecordValue) valueNode() {}

// EnumValue is a tagged variant value with at most one payload, mirroring
// the `{i8 tag, i64 payload}` heap shape spec.md §4.5/§4.7 describe.
type EnumValue struct {
	Enum    string
	Variant string
	Payload Value // nil if the variant carries none
}

func (v *EnumValue) String() string {
	if v.Payload == nil {
		return fmt.Sprintf("%s::%s", v.Enum, v.Variant)
	}
	return fmt.Sprintf("%s::%s(%s)", v.Enum, v.Variant, v.Payload)
}
func (*EnumValue) valueNode() {}
