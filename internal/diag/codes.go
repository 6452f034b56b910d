// Package diag provides the structured diagnostic model shared by every
// compiler stage: lexer, parser, loader, semantic analyzer and driver.
package diag

// Error code families, one per diagnostic kind in spec.md §7.
const (
	// Lexical errors (LEX###)
	LEX001 = "LEX001" // unterminated string
	LEX002 = "LEX002" // unknown character
	LEX003 = "LEX003" // bad escape sequence

	// Parse errors (PAR###)
	PAR001 = "PAR001" // unexpected token
	PAR002 = "PAR002" // missing delimiter
	PAR003 = "PAR003" // invalid declaration syntax
	PAR004 = "PAR004" // invalid import syntax
	PAR005 = "PAR005" // invalid pattern syntax
	PAR006 = "PAR006" // invalid type annotation
	PAR007 = "PAR007" // invalid effect annotation
	PAR008 = "PAR008" // unparenthesized record literal in condition position
	PAR009 = "PAR009" // invalid contract block
	PAR010 = "PAR010" // logical/comparison operator outside predicate context

	// Resolution errors (RES###)
	RES001 = "RES001" // unknown identifier
	RES002 = "RES002" // unknown module alias
	RES003 = "RES003" // ambiguous unqualified variant
	RES004 = "RES004" // unresolved qualified reference

	// Type errors (TYP###)
	TYP001 = "TYP001" // generic arity mismatch
	TYP002 = "TYP002" // incompatible types
	TYP003 = "TYP003" // non-exhaustive match
	TYP004 = "TYP004" // missing record field
	TYP005 = "TYP005" // extra/unknown record field
	TYP006 = "TYP006" // wrong call arity
	TYP007 = "TYP007" // assignment to undeclared name
	TYP008 = "TYP008" // assignment type mismatch
	TYP009 = "TYP009" // if/else branch mismatch
	TYP010 = "TYP010" // while condition not Bool
	TYP011 = "TYP011" // member projection on unknown field

	// Capability / effect errors (CAP###)
	CAP001 = "CAP001" // unknown effect keyword
	CAP002 = "CAP002" // missing requires entry for effect
	CAP003 = "CAP003" // capability shape mismatch

	// Generic bound errors (BND###)
	BND001 = "BND001" // unsatisfied generic bound

	// Workflow errors (WRK###)
	WRK001 = "WRK001" // duplicate step id
	WRK002 = "WRK002" // unknown step call target
	WRK003 = "WRK003" // step argument type mismatch
	WRK004 = "WRK004" // duplicate output field
	WRK005 = "WRK005" // unreachable output field
	WRK006 = "WRK006" // ambiguous output binding

	// Agent errors/warnings (AGT###)
	AGT001 = "AGT001" // allow/deny on same tool
	AGT002 = "AGT002" // deny overrides allow (warning)
	AGT003 = "AGT003" // unreachable state (warning)
	AGT004 = "AGT004" // unknown stop-target state (warning)
	AGT005 = "AGT005" // non-termination suspicion (warning)
	AGT006 = "AGT006" // closed liveness cycle (warning)
	AGT007 = "AGT007" // unknown predicate root (warning)

	// Loader / module-graph errors (LDR###)
	LDR001 = "LDR001" // file not found
	LDR002 = "LDR002" // import cycle
	LDR003 = "LDR003" // alias collision
	LDR004 = "LDR004" // IO failure

	// Driver errors (DRV###)
	DRV001 = "DRV001" // child process / tool failure
	DRV002 = "DRV002" // timeout
	DRV003 = "DRV003" // missing external tool
	DRV004 = "DRV004" // config error

	// Warnings not tied to a single family above
	WARN_UNUSED_ALIAS = "IMP001" // unused import alias
)
