// Package ast implements the Kooix abstract syntax tree: a closed set of
// tagged-variant node kinds for declarations, types, expressions and
// patterns (spec.md §3).
package ast

import (
	"fmt"
	"strings"

	"github.com/telagod/kooix/internal/source"
)

// Node is the base interface every AST node implements.
type Node interface {
	Span() source.Span
}

// Program is a set of modules (spec.md §3 "Module graph"). In include mode
// the loader produces exactly one Module holding the concatenated program;
// in module-aware mode one Module per source file.
type Program struct {
	Modules []*Module
}

// Module owns an ordered sequence of top-level items and a list of imports.
type Module struct {
	Path    string // normalized import path / file identity
	Imports []*Import
	Items   []Item
	Sp      source.Span
}

func (m *Module) Span() source.Span { return m.Sp }

// Import is `import "path";` or `import "path" as Alias;`.
type Import struct {
	Path  string
	Alias string // "" if unaliased
	Sp    source.Span
}

func (i *Import) Span() source.Span { return i.Sp }

// Item is any top-level declaration.
type Item interface {
	Node
	itemNode()
}

// ---- Types ----

// Type is any type reference: primitive, named (record/enum, possibly
// parameterized), function type, or a generic parameter reference.
type Type interface {
	Node
	typeNode()
	String() string
}

// NamedType is `Name` or `Name<Arg, ...>` — covers primitives (Int, Bool,
// Text, Unit), records, enums and generic parameter references; which one
// it denotes is resolved by the semantic analyzer against the symbol table.
type NamedType struct {
	Name string
	Args []Type
	Sp   source.Span
}

func (t *NamedType) Span() source.Span { return t.Sp }
func (t *NamedType) typeNode()         {}
func (t *NamedType) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ", "))
}

// QualifiedType is `Alias::Name<Args>` for a module-qualified type
// reference (module-aware mode only).
type QualifiedType struct {
	Alias string
	Name  string
	Args  []Type
	Sp    source.Span
}

func (t *QualifiedType) Span() source.Span { return t.Sp }
func (t *QualifiedType) typeNode()         {}
func (t *QualifiedType) String() string {
	base := fmt.Sprintf("%s::%s", t.Alias, t.Name)
	if len(t.Args) == 0 {
		return base
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", base, strings.Join(parts, ", "))
}

// FuncType is a compiler-internal function type (parameter types + return
// type); it never appears written directly in source.
type FuncType struct {
	Params []Type
	Return Type
	Sp     source.Span
}

func (t *FuncType) Span() source.Span { return t.Sp }
func (t *FuncType) typeNode()         {}
func (t *FuncType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	ret := "Unit"
	if t.Return != nil {
		ret = t.Return.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), ret)
}

// TypeArg is a concrete type argument to a capability, which may be a
// string literal, an integer literal, or a type (spec.md §3 CapabilityDecl).
type TypeArg struct {
	StringVal *string
	IntVal    *int64
	TypeVal   Type
	Sp        source.Span
}

func (a *TypeArg) Span() source.Span { return a.Sp }
func (a *TypeArg) String() string {
	switch {
	case a.StringVal != nil:
		return fmt.Sprintf("%q", *a.StringVal)
	case a.IntVal != nil:
		return fmt.Sprintf("%d", *a.IntVal)
	case a.TypeVal != nil:
		return a.TypeVal.String()
	}
	return "?"
}

// Kind classifies a TypeArg for generic-bound / capability-shape checks.
type ArgKind int

const (
	ArgString ArgKind = iota
	ArgInt
	ArgType
)

func (a *TypeArg) Kind() ArgKind {
	switch {
	case a.StringVal != nil:
		return ArgString
	case a.IntVal != nil:
		return ArgInt
	default:
		return ArgType
	}
}

// ---- Generic parameters ----

// GenericParam is one `<T: Bound1 + Bound2>` entry.
type GenericParam struct {
	Name   string
	Bounds []string // bound type names
	Sp     source.Span
}

// ---- Declarations (Items) ----

// CapRef is a reference to a capability kind with concrete type arguments,
// e.g. `Model<"openai", "gpt", 4096>` — used both by `cap` declarations and
// by a function/workflow/agent's `requires [...]` list.
type CapRef struct {
	Name string
	Args []*TypeArg
	Sp   source.Span
}

func (c *CapRef) Span() source.Span { return c.Sp }

// CapabilityDecl: `cap Name<arg, ...>;`
type CapabilityDecl struct {
	Ref *CapRef
	Sp  source.Span
}

func (d *CapabilityDecl) Span() source.Span { return d.Sp }
func (d *CapabilityDecl) itemNode()         {}

// Field is one named field in a record declaration or record literal.
type Field struct {
	Name string
	Type Type // nil in a record literal initializer
	Sp   source.Span
}

// RecordDecl: `record Name<TP...> where [...] { field: Type, ... }`
type RecordDecl struct {
	Name    string
	Params  []GenericParam
	Where   []string // additional bound type names applying across params
	Fields  []Field
	Sp      source.Span
}

func (d *RecordDecl) Span() source.Span { return d.Sp }
func (d *RecordDecl) itemNode()         {}

// Variant is one enum variant, with an optional payload type.
type Variant struct {
	Name    string
	Payload Type // nil if the variant carries no payload
	Sp      source.Span
}

// EnumDecl: `enum Name<TP...> { Variant(Payload)?, ... }`
type EnumDecl struct {
	Name     string
	Params   []GenericParam
	Variants []Variant
	Sp       source.Span
}

func (d *EnumDecl) Span() source.Span { return d.Sp }
func (d *EnumDecl) itemNode()         {}

// Param is a formal function/workflow/agent parameter.
type Param struct {
	Name string
	Type Type
	Sp   source.Span
}

// Effect is one entry of a function's `!{...}` effect set, e.g. `model`,
// `net`, `tool`, `io`, with an optional call-style argument (unused by the
// analyzer beyond presence today, carried for forward compatibility).
type Effect struct {
	Name string
	Arg  string // "" if none
	Sp   source.Span
}

// EnsuresClause is one predicate entry of an `ensures [...]` block.
type EnsuresClause struct {
	Pred Expr
	Sp   source.Span
}

// FailurePolicy is a function/workflow `failure { ... }` block: an ordered
// list of actions tried in turn.
type FailurePolicy struct {
	Actions []FailureAction
	Sp      source.Span
}

type FailureActionKind int

const (
	ActionRetry FailureActionKind = iota
	ActionFallback
	ActionAbort
	ActionCompensate
)

type FailureAction struct {
	Kind   FailureActionKind
	Count  *int64 // for retry N
	Target string // for fallback/compensate: a call target name
	Sp     source.Span
}

// Evidence is an `evidence { trace, metrics }`-style audit contract.
type Evidence struct {
	Trace   bool
	Metrics bool
	Sp      source.Span
}

// FunctionDecl: `fn name<TP>(params) -> Type <contracts> <body?>;`
type FunctionDecl struct {
	Name       string
	Generics   []GenericParam
	Params     []Param
	Return     Type
	Effects    []Effect
	Requires   []*CapRef
	Intent     string
	Ensures    []EnsuresClause
	Failure    *FailurePolicy
	Evidence   *Evidence
	Body       *Block // nil if the function has no body (signature only)
	Sp         source.Span
}

func (d *FunctionDecl) Span() source.Span { return d.Sp }
func (d *FunctionDecl) itemNode()         {}

// Step is one `steps { id: call(args) ensures [...]? on_fail action? }` entry.
type Step struct {
	ID       string
	Target   string
	Args     []Expr
	Ensures  []EnsuresClause
	OnFail   *FailureAction
	Sp       source.Span
}

// OutputField is one entry of a workflow's `output { name: Type = expr? }`.
type OutputField struct {
	Name    string
	Type    Type
	Binding Expr // optional `= symbol.path` binding expression
	Sp      source.Span
}

// WorkflowDecl: spec.md §3 WorkflowDecl.
type WorkflowDecl struct {
	Name     string
	Params   []Param
	Return   Type
	Intent   string
	Requires []*CapRef
	Steps    []Step
	Output   []OutputField
	Evidence *Evidence
	Sp       source.Span
}

func (d *WorkflowDecl) Span() source.Span { return d.Sp }
func (d *WorkflowDecl) itemNode()         {}

// Transition is one `from -> to, to2, ...` state-machine entry; From may be
// the literal "any" wildcard.
type Transition struct {
	From string
	To   []string
	Sp   source.Span
}

// StateMachine is the agent's required `state { ... }` block.
type StateMachine struct {
	Transitions []Transition
	Sp          source.Span
}

// ToolPolicy is the agent's required `policy { allow_tools [...] deny_tools
// [...] max_iterations N? human_in_loop when <pred>? }` block.
type ToolPolicy struct {
	Allow         []string
	Deny          []string
	MaxIterations *int64
	HumanInLoop   Expr // predicate, nil if absent
	Sp            source.Span
}

// LoopSpec is the agent's required `loop { stage, stage, ... stop when
// <pred> }`.
type LoopSpec struct {
	Stages []string
	Stop   Expr
	Sp     source.Span
}

// AgentDecl: spec.md §3 AgentDecl.
type AgentDecl struct {
	Name     string
	Params   []Param
	Return   Type
	Intent   string
	State    StateMachine
	Policy   ToolPolicy
	Requires []*CapRef
	Loop     LoopSpec
	Ensures  []EnsuresClause
	Evidence *Evidence
	Sp       source.Span
}

func (d *AgentDecl) Span() source.Span { return d.Sp }
func (d *AgentDecl) itemNode()         {}
