package parser

import (
	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/lexer"
)

// parsePattern parses one match-arm pattern: wildcard, bare/namespaced
// variant (with optional single binder), or a literal (spec.md §3
// "Patterns").
func (p *Parser) parsePattern() ast.Pattern {
	start := p.cur

	if p.curIs(lexer.IDENT) && p.cur.Literal == "_" {
		p.advance()
		return &ast.WildcardPattern{Sp: p.spanFrom(start)}
	}

	switch p.cur.Type {
	case lexer.INT:
		lit := p.parseLiteralToken()
		return &ast.LiteralPattern{Lit: lit, Sp: p.spanFrom(start)}
	case lexer.STRING:
		lit := p.parseLiteralToken()
		return &ast.LiteralPattern{Lit: lit, Sp: p.spanFrom(start)}
	case lexer.IDENT:
		name, _ := p.expectIdent()

		alias := ""
		enumName := ""
		variant := name
		if p.curIs(lexer.DCOLON) || p.curIs(lexer.DOT) {
			p.advance()
			v, ok := p.expectIdent()
			if ok {
				enumName = name
				variant = v
			}
			if p.curIs(lexer.DCOLON) || p.curIs(lexer.DOT) {
				p.advance()
				tail, ok := p.expectIdent()
				if ok {
					alias, enumName, variant = name, variant, tail
				}
			}
		}

		binder := ""
		if p.curIs(lexer.LPAREN) {
			p.advance()
			b, ok := p.expectIdent()
			if ok {
				binder = b
			}
			p.expect(lexer.RPAREN)
		}

		return &ast.VariantPattern{Alias: alias, EnumName: enumName, Variant: variant, Binder: binder, Sp: p.spanFrom(start)}
	default:
		p.errorf("PAR005", p.cur, "invalid pattern starting with %q", p.cur.Literal)
		p.advance()
		return &ast.WildcardPattern{Sp: p.spanFrom(start)}
	}
}

// parseLiteralToken consumes the current INT or STRING token as an
// *ast.Literal; any other token is consumed and yields an integer literal 0.
func (p *Parser) parseLiteralToken() *ast.Literal {
	start := p.cur
	switch p.cur.Type {
	case lexer.INT:
		lit := p.intLiteral(start)
		p.advance()
		return lit
	case lexer.STRING:
		lit := &ast.Literal{Kind: ast.StringLit, Str: p.cur.Literal, Sp: p.spanFrom(start)}
		p.advance()
		return lit
	}
	p.advance()
	return &ast.Literal{Kind: ast.IntLit, Sp: p.spanFrom(start)}
}
