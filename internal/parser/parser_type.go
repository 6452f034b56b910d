package parser

import (
	"strconv"

	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/lexer"
)

// parseType parses a type reference: `Name`, `Name<Arg, ...>`, or
// `Alias::Name<Arg, ...>` (module-aware qualified form, spec.md §4.4 item 7).
func (p *Parser) parseType() ast.Type {
	start := p.cur
	name, ok := p.expectIdent()
	if !ok {
		return &ast.NamedType{Name: "?", Sp: p.spanFrom(start)}
	}

	if p.curIs(lexer.DCOLON) {
		p.advance()
		inner, ok := p.expectIdent()
		if !ok {
			inner = "?"
		}
		var args []ast.Type
		if p.curIs(lexer.LT) {
			args = p.parseTypeArgList()
		}
		return &ast.QualifiedType{Alias: name, Name: inner, Args: args, Sp: p.spanFrom(start)}
	}

	var args []ast.Type
	if p.curIs(lexer.LT) {
		args = p.parseTypeArgList()
	}
	return &ast.NamedType{Name: name, Args: args, Sp: p.spanFrom(start)}
}

// parseTypeArgList parses `<Type, Type, ...>`.
func (p *Parser) parseTypeArgList() []ast.Type {
	p.advance() // '<'
	var args []ast.Type
	if !p.curIs(lexer.GT) {
		args = append(args, p.parseType())
		for p.curIs(lexer.COMMA) {
			p.advance()
			args = append(args, p.parseType())
		}
	}
	p.expect(lexer.GT)
	return args
}

// parseGenericParams parses `<T: Bound1 + Bound2, U>` after a declaration
// name, if present.
func (p *Parser) parseGenericParams() []ast.GenericParam {
	if !p.curIs(lexer.LT) {
		return nil
	}
	p.advance()
	var params []ast.GenericParam
	for {
		start := p.cur
		name, ok := p.expectIdent()
		if !ok {
			break
		}
		var bounds []string
		if p.curIs(lexer.COLON) {
			p.advance()
			b, ok := p.expectIdent()
			if ok {
				bounds = append(bounds, b)
			}
			for p.curIs(lexer.PLUS) {
				p.advance()
				b, ok := p.expectIdent()
				if ok {
					bounds = append(bounds, b)
				}
			}
		}
		params = append(params, ast.GenericParam{Name: name, Bounds: bounds, Sp: p.spanFrom(start)})
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.GT)
	return params
}

// parseWhereClause parses an optional `where [Bound1, Bound2]` suffix.
func (p *Parser) parseWhereClause() []string {
	if !p.curIs(lexer.WHERE) {
		return nil
	}
	p.advance()
	p.expect(lexer.LBRACKET)
	var bounds []string
	if !p.curIs(lexer.RBRACKET) {
		b, ok := p.expectIdent()
		if ok {
			bounds = append(bounds, b)
		}
		for p.curIs(lexer.COMMA) {
			p.advance()
			b, ok := p.expectIdent()
			if ok {
				bounds = append(bounds, b)
			}
		}
	}
	p.expect(lexer.RBRACKET)
	return bounds
}

// parseTypeArg parses one capability/call type argument: a string literal,
// an integer literal, or a type.
func (p *Parser) parseTypeArg() *ast.TypeArg {
	start := p.cur
	switch p.cur.Type {
	case lexer.STRING:
		s := p.cur.Literal
		p.advance()
		return &ast.TypeArg{StringVal: &s, Sp: p.spanFrom(start)}
	case lexer.INT:
		n, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil {
			p.errorf("PAR001", p.cur, "invalid integer literal %q", p.cur.Literal)
		}
		p.advance()
		return &ast.TypeArg{IntVal: &n, Sp: p.spanFrom(start)}
	default:
		t := p.parseType()
		return &ast.TypeArg{TypeVal: t, Sp: t.Span()}
	}
}

// parseCapRef parses `Name<arg, ...>` as used by `requires [...]` entries
// and `cap` declarations.
func (p *Parser) parseCapRef() *ast.CapRef {
	start := p.cur
	name, ok := p.expectIdent()
	if !ok {
		name = "?"
	}
	var args []*ast.TypeArg
	if p.curIs(lexer.LT) {
		p.advance()
		if !p.curIs(lexer.GT) {
			args = append(args, p.parseTypeArg())
			for p.curIs(lexer.COMMA) {
				p.advance()
				args = append(args, p.parseTypeArg())
			}
		}
		p.expect(lexer.GT)
	}
	return &ast.CapRef{Name: name, Args: args, Sp: p.spanFrom(start)}
}
