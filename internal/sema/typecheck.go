package sema

import (
	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
)

// containerKinds are the built-in parametric types whose member
// projections follow fixed rules rather than a user's field table
// (spec.md §4.4 item 5: "member projections on container types (Option,
// Result, Map, List, Vec, Array) apply fixed projection rules").
var containerKinds = map[string]bool{
	"Option": true, "Result": true, "Map": true,
	"List": true, "Vec": true, "Array": true,
}

// checker carries the mutable state of step 4 (and the parts of step 5
// that reduce to ordinary expression type-checking) across one function
// body or one workflow's steps and outputs.
type checker struct {
	sym     *Symbols
	bag     *diag.Bag
	ret     string // declared return type name of the enclosing callable, "" if untyped
	scopeID string // name of the enclosing callable, used only in messages
}

// checkFunctionBodies runs step 4 over every function with a body.
func checkFunctionBodies(mod *ast.Module, sym *Symbols, bag *diag.Bag) {
	for _, item := range mod.Items {
		fn, ok := item.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue
		}
		env := make(map[string]string, len(fn.Params))
		for _, p := range fn.Params {
			if p.Type != nil {
				env[p.Name] = p.Type.String()
			}
		}
		c := &checker{sym: sym, bag: bag, scopeID: fn.Name}
		if fn.Return != nil {
			c.ret = fn.Return.String()
		}
		got := c.checkBlock(fn.Body, env)
		if fn.Return != nil && got != "" && got != "?" && got != fn.Return.String() {
			bag.Add(diag.Errorf(diag.TYP002, "sema", nil,
				"function %q: body produces %s, declared return is %s", fn.Name, got, fn.Return.String()))
		}
	}
}

func (c *checker) checkBlock(b *ast.Block, outer map[string]string) string {
	env := make(map[string]string, len(outer)+4)
	for k, v := range outer {
		env[k] = v
	}
	for _, s := range b.Stmts {
		c.checkStmt(s, env)
	}
	if b.Result != nil {
		return c.checkExpr(b.Result, env)
	}
	if n := len(b.Stmts); n > 0 {
		if _, ok := b.Stmts[n-1].(*ast.Return); ok {
			return "?" // the block always returns before it could produce a value
		}
	}
	return "Unit"
}

func (c *checker) checkStmt(e ast.Expr, env map[string]string) {
	switch s := e.(type) {
	case *ast.Let:
		valType := c.checkExpr(s.Value, env)
		if s.Type != nil {
			want := s.Type.String()
			if valType != "" && valType != "?" && valType != want {
				c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil,
					"let %s: declared type %s, value has type %s", s.Name, want, valType))
			}
			env[s.Name] = want
		} else {
			env[s.Name] = valType
		}
	case *ast.Assign:
		want, declared := env[s.Name]
		if !declared {
			c.bag.Add(diag.Errorf(diag.TYP007, "sema", nil,
				"assignment to undeclared name %q", s.Name))
			c.checkExpr(s.Value, env)
			return
		}
		got := c.checkExpr(s.Value, env)
		if got != "" && got != "?" && want != "" && want != "?" && got != want {
			c.bag.Add(diag.Errorf(diag.TYP008, "sema", nil,
				"assignment to %q: expected %s, got %s", s.Name, want, got))
		}
	case *ast.Return:
		got := "Unit"
		if s.Value != nil {
			got = c.checkExpr(s.Value, env)
		}
		if c.ret != "" && got != "" && got != "?" && got != c.ret {
			c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil,
				"%s: return value has type %s, declared return is %s", c.scopeID, got, c.ret))
		}
	default:
		c.checkExpr(e, env)
	}
}

// checkExpr type-checks e and returns the name of its resulting type, or
// "?" when the type could not be determined (an already-reported error, or
// a deliberately unmodeled construct such as a container projection).
func (c *checker) checkExpr(e ast.Expr, env map[string]string) string {
	switch x := e.(type) {
	case *ast.Literal:
		switch x.Kind {
		case ast.IntLit:
			return "Int"
		case ast.BoolLit:
			return "Bool"
		case ast.StringLit:
			return "Text"
		}
		return "?"

	case *ast.Path:
		return c.checkPath(x, env)

	case *ast.Call:
		return c.checkCall(x, env)

	case *ast.RecordLit:
		return c.checkRecordLit(x, env)

	case *ast.Member:
		return c.checkMember(x, env)

	case *ast.BinOp:
		return c.checkBinOp(x, env)

	case *ast.Block:
		return c.checkBlock(x, env)

	case *ast.If:
		condType := c.checkExpr(x.Cond, env)
		if condType != "" && condType != "?" && condType != "Bool" {
			c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil, "if condition has type %s, expected Bool", condType))
		}
		thenType := c.checkBlock(x.Then, env)
		if x.Else == nil {
			return "Unit"
		}
		elseType := c.checkBlock(x.Else, env)
		if thenType != "?" && elseType != "?" && thenType != elseType {
			c.bag.Add(diag.Errorf(diag.TYP009, "sema", nil,
				"if/else branches disagree: %s vs %s", thenType, elseType))
		}
		return thenType

	case *ast.While:
		condType := c.checkExpr(x.Cond, env)
		if condType != "" && condType != "?" && condType != "Bool" {
			c.bag.Add(diag.Errorf(diag.TYP010, "sema", nil, "while condition has type %s, expected Bool", condType))
		}
		c.checkBlock(x.Body, env)
		return "Unit"

	case *ast.Match:
		return c.checkMatch(x, env)
	}
	return "?"
}

func (c *checker) checkPath(p *ast.Path, env map[string]string) string {
	if p.Alias != "" {
		// Cross-module qualified references resolve in step 7; treat as
		// unknown here rather than double-reporting.
		return "?"
	}
	if p.Tail != "" {
		enumName := p.Head
		if enum, ok := c.sym.Enums[enumName]; ok {
			if !hasVariant(enum, p.Tail) {
				c.bag.Add(diag.Errorf(diag.RES001, "sema", nil,
					"enum %q has no variant %q", enumName, p.Tail))
			}
			return enumName
		}
		c.bag.Add(diag.Errorf(diag.RES001, "sema", nil, "unknown enum %q", enumName))
		return "?"
	}
	if t, ok := env[p.Head]; ok {
		return t
	}
	owners := c.sym.VariantOwners[p.Head]
	switch len(owners) {
	case 0:
		c.bag.Add(diag.Errorf(diag.RES001, "sema", nil, "unknown identifier %q", p.Head))
		return "?"
	case 1:
		return owners[0]
	default:
		c.bag.Add(diag.Errorf(diag.RES003, "sema", nil,
			"variant %q is ambiguous between enums %v; use Enum::%s", p.Head, owners, p.Head))
		return "?"
	}
}

func (c *checker) checkCall(call *ast.Call, env map[string]string) string {
	for _, a := range call.Args {
		c.checkExpr(a, env)
	}
	if call.Callee.Alias != "" {
		return "?" // resolved in step 7
	}
	if call.Callee.Tail != "" {
		enumName := call.Callee.Head
		enum, ok := c.sym.Enums[enumName]
		if !ok {
			c.bag.Add(diag.Errorf(diag.RES001, "sema", nil, "unknown enum %q", enumName))
			return "?"
		}
		variant, ok := findVariant(enum, call.Callee.Tail)
		if !ok {
			c.bag.Add(diag.Errorf(diag.RES001, "sema", nil, "enum %q has no variant %q", enumName, call.Callee.Tail))
			return "?"
		}
		wantArgs := 0
		if variant.Payload != nil {
			wantArgs = 1
		}
		if len(call.Args) != wantArgs {
			c.bag.Add(diag.Errorf(diag.TYP006, "sema", nil,
				"variant %s::%s expects %d argument(s), got %d", enumName, call.Callee.Tail, wantArgs, len(call.Args)))
		}
		return enumName
	}

	params, ret, generics, ok := c.sym.resolveCallableName(call.Callee.Head)
	if !ok {
		c.bag.Add(diag.Errorf(diag.RES001, "sema", nil, "unknown call target %q", call.Callee.Head))
		return "?"
	}
	checkCallGenerics(call, generics, c.sym, c.bag)
	if len(call.Args) != len(params) {
		c.bag.Add(diag.Errorf(diag.TYP006, "sema", nil,
			"%q expects %d argument(s), got %d", call.Callee.Head, len(params), len(call.Args)))
	} else {
		for i, p := range params {
			if p.Type == nil {
				continue
			}
			got := c.checkExpr(call.Args[i], env)
			if got != "" && got != "?" && got != p.Type.String() {
				c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil,
					"%q argument %d (%s): expected %s, got %s", call.Callee.Head, i+1, p.Name, p.Type.String(), got))
			}
		}
	}
	if ret == nil {
		return "Unit"
	}
	return ret.String()
}

func (c *checker) checkRecordLit(rl *ast.RecordLit, env map[string]string) string {
	name := typeName(rl.TypeRef)
	rec, ok := c.sym.Records[name]
	if !ok {
		c.bag.Add(diag.Errorf(diag.RES001, "sema", nil, "unknown record type %q", name))
		for _, f := range rl.Fields {
			c.checkExpr(f.Value, env)
		}
		return "?"
	}
	declared := make(map[string]ast.Type, len(rec.Fields))
	for _, f := range rec.Fields {
		declared[f.Name] = f.Type
	}
	given := make(map[string]bool, len(rl.Fields))
	for _, f := range rl.Fields {
		given[f.Name] = true
		valType := c.checkExpr(f.Value, env)
		want, ok := declared[f.Name]
		if !ok {
			c.bag.Add(diag.Errorf(diag.TYP005, "sema", nil, "record %q has no field %q", name, f.Name))
			continue
		}
		if want != nil && valType != "" && valType != "?" && valType != want.String() {
			c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil,
				"record %q field %q: expected %s, got %s", name, f.Name, want.String(), valType))
		}
	}
	for _, f := range rec.Fields {
		if !given[f.Name] {
			c.bag.Add(diag.Errorf(diag.TYP004, "sema", nil, "record %q missing field %q", name, f.Name))
		}
	}
	return name
}

func (c *checker) checkMember(m *ast.Member, env map[string]string) string {
	leftType := c.checkExpr(m.Left, env)
	if leftType == "" || leftType == "?" {
		return "?"
	}
	if containerKinds[leftType] {
		return "?" // fixed projection rules are beyond the shape this checker models
	}
	rec, ok := c.sym.Records[leftType]
	if !ok {
		// Not a record we know about (could be a primitive or enum); field
		// projection on those is always an error.
		c.bag.Add(diag.Errorf(diag.TYP011, "sema", nil, "type %q has no field %q", leftType, m.Field))
		return "?"
	}
	for _, f := range rec.Fields {
		if f.Name == m.Field {
			if f.Type == nil {
				return "?"
			}
			return f.Type.String()
		}
	}
	c.bag.Add(diag.Errorf(diag.TYP011, "sema", nil, "record %q has no field %q", leftType, m.Field))
	return "?"
}

func (c *checker) checkBinOp(b *ast.BinOp, env map[string]string) string {
	l := c.checkExpr(b.Left, env)
	r := c.checkExpr(b.Right, env)
	switch b.Op {
	case "+":
		if ok := (l == "Int" || l == "?") && (r == "Int" || r == "?"); !ok {
			c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil, "`+` requires Int operands, got %s and %s", l, r))
		}
		return "Int"
	case "==", "!=":
		if l != "?" && r != "?" && l != r {
			c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil, "`%s` operands disagree: %s vs %s", b.Op, l, r))
		}
		return "Bool"
	case "<", "<=", ">", ">=":
		if ok := (l == "Int" || l == "?") && (r == "Int" || r == "?"); !ok {
			c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil, "`%s` requires Int operands, got %s and %s", b.Op, l, r))
		}
		return "Bool"
	case "&&", "||":
		if ok := (l == "Bool" || l == "?") && (r == "Bool" || r == "?"); !ok {
			c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil, "`%s` requires Bool operands, got %s and %s", b.Op, l, r))
		}
		return "Bool"
	}
	return "?"
}

func (c *checker) checkMatch(m *ast.Match, env map[string]string) string {
	scrutType := c.checkExpr(m.Scrutinee, env)
	enum, isEnum := c.sym.Enums[scrutType]

	hasWildcard := false
	covered := make(map[string]bool)
	resultType := "Unit"
	haveResult := false

	for i, arm := range m.Arms {
		armEnv := make(map[string]string, len(env)+1)
		for k, v := range env {
			armEnv[k] = v
		}
		switch p := arm.Pattern.(type) {
		case *ast.WildcardPattern:
			hasWildcard = true
		case *ast.VariantPattern:
			if p.Alias != "" {
				// Cross-module qualified pattern; resolved in step 7.
				covered[p.Variant] = true
				hasWildcard = true
				if p.Binder != "" {
					armEnv[p.Binder] = "?"
				}
				break
			}
			enumName := p.EnumName
			if enumName == "" && isEnum {
				enumName = scrutType
			}
			if enumName == "" {
				owners := c.sym.VariantOwners[p.Variant]
				if len(owners) == 1 {
					enumName = owners[0]
				} else if len(owners) > 1 {
					c.bag.Add(diag.Errorf(diag.RES003, "sema", nil,
						"variant %q is ambiguous between enums %v", p.Variant, owners))
				}
			}
			covered[p.Variant] = true
			if enumName != "" {
				if e, ok := c.sym.Enums[enumName]; ok {
					if v, ok := findVariant(e, p.Variant); ok && p.Binder != "" && v.Payload != nil {
						armEnv[p.Binder] = v.Payload.String()
					}
				}
			}
		}

		var armType string
		switch {
		case arm.Block != nil:
			armType = c.checkBlock(arm.Block, armEnv)
		case arm.Expr != nil:
			armType = c.checkExpr(arm.Expr, armEnv)
		default:
			armType = "Unit"
		}
		if !haveResult {
			resultType = armType
			haveResult = true
		} else if resultType != "?" && armType != "?" && resultType != armType {
			c.bag.Add(diag.Errorf(diag.TYP002, "sema", nil, "match arm %d: type %s disagrees with %s", i+1, armType, resultType))
		}
	}

	if isEnum && !hasWildcard {
		var missing []string
		for _, v := range enum.Variants {
			if !covered[v.Name] {
				missing = append(missing, v.Name)
			}
		}
		if len(missing) > 0 {
			c.bag.Add(diag.Errorf(diag.TYP003, "sema", nil,
				"non-exhaustive match on %q: missing variant(s) %v", scrutType, missing))
		}
	}
	return resultType
}

func hasVariant(e *ast.EnumDecl, name string) bool {
	_, ok := findVariant(e, name)
	return ok
}

func findVariant(e *ast.EnumDecl, name string) (ast.Variant, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return ast.Variant{}, false
}

func typeName(t ast.Type) string {
	switch v := t.(type) {
	case *ast.NamedType:
		return v.Name
	case *ast.QualifiedType:
		return v.Name
	default:
		return t.String()
	}
}
