// Package hir implements the Kooix high-level intermediate representation
// (spec.md §4.5): a desugared tree in which every name has been resolved to
// a stable internal symbol and intent/evidence/contract blocks survive only
// as optional annotations for analysis and reporting, never for codegen.
// Lowering assigns every node a monotonic NodeID the way the teacher's
// elaborator stamps Core nodes (cycles in ownership are avoided by always
// referring to declarations by id+kind, never by pointer into the AST).
package hir

import "github.com/telagod/kooix/internal/source"

// Node is the base every HIR node embeds: a stable id plus the originating
// surface span, carried through for diagnostics on later stages.
type Node struct {
	NodeID uint64
	Sp     source.Span
}

func (n Node) ID() uint64        { return n.NodeID }
func (n Node) Span() source.Span { return n.Sp }

// SymbolKind classifies what a resolved reference id denotes.
type SymbolKind int

const (
	SymFunction SymbolKind = iota
	SymWorkflow
	SymAgent
	SymRecord
	SymEnum
	SymVariant
	SymLocal
	SymParam
	SymUnresolved // name did not resolve; preserved so later stages can still print it
)

func (k SymbolKind) String() string {
	switch k {
	case SymFunction:
		return "function"
	case SymWorkflow:
		return "workflow"
	case SymAgent:
		return "agent"
	case SymRecord:
		return "record"
	case SymEnum:
		return "enum"
	case SymVariant:
		return "variant"
	case SymLocal:
		return "local"
	case SymParam:
		return "param"
	default:
		return "unresolved"
	}
}

// Ref is a resolved reference: the symbol kind, the declared name (kept for
// printing), and the stable id of the declaration it resolved to. Locals and
// params carry no cross-module id, so ID is 0 and the name alone identifies
// the binding within its owning function's scope.
type Ref struct {
	Kind SymbolKind
	Name string
	ID   uint64
}

// Type mirrors ast.Type but is fully resolved: NamedType.Ref is set when the
// name denotes a declared record/enum, left zero for primitives and generic
// parameter references (both resolve by name alone at this layer).
type Type struct {
	Name string
	Args []Type
	Ref  Ref
}

func (t Type) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	s := t.Name + "<"
	for i, a := range t.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ">"
}

// Program is the whole lowered compilation unit: every declaration of the
// one ast.Module handed to Lower (in include mode, the concatenation of
// every loaded file), grouped by kind and kept in source order within each
// kind, so MIR and the emitter produce deterministic ordering (spec.md §4.7
// "functions, globals ... emit in the order they were declared in HIR").
// Declarations carry no owning-module path.
type Program struct {
	Capabilities []*CapabilityDecl
	Records      []*RecordDecl
	Enums        []*EnumDecl
	Functions    []*FunctionDecl
	Workflows    []*WorkflowDecl
	Agents       []*AgentDecl
}

// CapabilityDecl is a resolved `cap Name<args>;`.
type CapabilityDecl struct {
	Node
	Name string
	Args []CapArg
}

// CapArg is a resolved capability argument: a string, an integer, or a type.
type CapArg struct {
	StringVal *string
	IntVal    *int64
	TypeVal   *Type
}

// Field is a resolved record field.
type Field struct {
	Name string
	Type Type
}

// RecordDecl is a resolved `record Name<TP> where [...] { fields }`.
type RecordDecl struct {
	Node
	Name     string
	Generics []string
	Where    []string
	Fields   []Field
}

// Variant is a resolved enum variant.
type Variant struct {
	Name    string
	Payload *Type // nil if the variant carries no payload
}

// EnumDecl is a resolved `enum Name<TP> { variants }`.
type EnumDecl struct {
	Node
	Name     string
	Generics []string
	Variants []Variant
}

// Param is a resolved function/workflow/agent parameter; it also serves as
// the declaration site a SymParam Ref inside the body points back to.
type Param struct {
	Name string
	Type Type
}

// Effect is a resolved effect-set entry (`model`, `net`, `tool`, `io`, ...).
type Effect struct {
	Name string
	Arg  string
}

// Ensures is one predicate of an `ensures [...]` contract block, kept as an
// annotation (spec.md §4.5: "retained for analysis and reporting, not for
// codegen").
type Ensures struct {
	Pred Expr
}

// FailureAction mirrors ast.FailureAction, resolved.
type FailureAction struct {
	Kind   int // matches ast.FailureActionKind values
	Count  *int64
	Target Ref
}

// FailurePolicy is a resolved `failure { ... }` block.
type FailurePolicy struct {
	Actions []FailureAction
}

// Evidence is a resolved `evidence { trace, metrics }` block.
type Evidence struct {
	Trace   bool
	Metrics bool
}

// FunctionDecl is a fully resolved function: body is a desugared Block of
// Exprs over resolved locals/params, contract blocks are carried as
// annotations only.
type FunctionDecl struct {
	Node
	Name     string
	Generics []string
	Params   []Param
	Return   Type
	Effects  []Effect
	Requires []CapRef
	Intent   string
	Ensures  []Ensures
	Failure  *FailurePolicy
	Evidence *Evidence
	Body     *Block // nil for a signature-only declaration
}

// CapRef is a resolved `requires [...]` entry naming a declared capability.
type CapRef struct {
	Cap  Ref
	Args []CapArg
}

// Step is a resolved workflow step.
type Step struct {
	ID      string
	Target  Ref // resolved callable (function/workflow/agent)
	Args    []Expr
	Ensures []Ensures
	OnFail  *FailureAction
}

// OutputField is a resolved workflow output-contract field.
type OutputField struct {
	Name    string
	Type    Type
	Binding Expr // nil if bound implicitly by name to a step id
}

// WorkflowDecl is a fully resolved workflow.
type WorkflowDecl struct {
	Node
	Name     string
	Params   []Param
	Return   Type
	Intent   string
	Requires []CapRef
	Steps    []Step
	Output   []OutputField
	Evidence *Evidence
}

// Transition is a resolved state-machine edge; From == "any" denotes the
// wildcard expanded by the semantic analyzer to every declared state.
type Transition struct {
	From string
	To   []string
}

// StateMachine is a resolved `state { ... }` block.
type StateMachine struct {
	Transitions []Transition
}

// ToolPolicy is a resolved `policy { ... }` block.
type ToolPolicy struct {
	Allow         []string
	Deny          []string
	MaxIterations *int64
	HumanInLoop   Expr
}

// LoopSpec is a resolved `loop { stages... stop when <pred> }` block.
type LoopSpec struct {
	Stages []string
	Stop   Expr
}

// AgentDecl is a fully resolved agent declaration.
type AgentDecl struct {
	Node
	Name     string
	Params   []Param
	Return   Type
	Intent   string
	State    StateMachine
	Policy   ToolPolicy
	Requires []CapRef
	Loop     LoopSpec
	Ensures  []Ensures
	Evidence *Evidence
}
