package parser

import (
	"strconv"

	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/lexer"
	"github.com/telagod/kooix/internal/source"
)

// binPrec gives the binding power of a binary operator token. Higher binds
// tighter. Only PLUS is available in every expression context; EQ/NEQ and
// the relational/logical operators are gated by the `predicate` flag
// (spec.md §9 Open Question: comparison/logical tokens are lexed everywhere
// but only legal inside predicate positions — if/while/match conditions,
// ensures/policy/loop `stop when` clauses).
func binPrec(t lexer.Type) int {
	switch t {
	case lexer.OR:
		return 1
	case lexer.AND:
		return 2
	case lexer.EQ, lexer.NEQ:
		return 3
	case lexer.LT, lexer.LTE, lexer.GT, lexer.GTE:
		return 4
	case lexer.PLUS:
		return 5
	}
	return 0
}

func isPredicateOnly(t lexer.Type) bool {
	switch t {
	case lexer.OR, lexer.AND, lexer.EQ, lexer.NEQ, lexer.LT, lexer.LTE, lexer.GT, lexer.GTE:
		return true
	}
	return false
}

// parserSnapshot is a restore point for the bounded backtracking used to
// disambiguate `name<Type>(args)` (explicit generic call) from `name < x`
// (a relational comparison) — both start identically after the identifier.
type parserSnapshot struct {
	lx     lexer.State
	cur    lexer.Token
	peek   lexer.Token
	bagLen int
}

func (p *Parser) snapshot() parserSnapshot {
	return parserSnapshot{lx: p.l.Save(), cur: p.cur, peek: p.peek, bagLen: len(p.bag.Reports())}
}

func (p *Parser) restore(s parserSnapshot) {
	p.l.Restore(s.lx)
	p.cur, p.peek = s.cur, s.peek
	p.bag.Truncate(s.bagLen)
}

// parseExpr parses a full expression. predicate allows EQ/NEQ/relational/
// logical operators to combine at top level; noRecordLit suppresses
// treating a leading `Ident {` as a record literal, so that an unparenthesized
// if/while/match condition or scrutinee leaves the `{` for the following
// block (spec.md §4.3 "record literal ambiguity").
func (p *Parser) parseExpr(predicate, noRecordLit bool) ast.Expr {
	return p.parseBinary(predicate, noRecordLit, 0)
}

func (p *Parser) parseBinary(predicate, noRecordLit bool, minPrec int) ast.Expr {
	left := p.parseUnary(noRecordLit)
	for {
		prec := binPrec(p.cur.Type)
		if prec == 0 || prec < minPrec {
			break
		}
		if isPredicateOnly(p.cur.Type) && !predicate {
			p.errorf("PAR010", p.cur, "operator %q is only allowed in a predicate position (if/while/match, ensures, policy, loop stop)", p.cur.Literal)
			break
		}
		op := p.cur.Literal
		p.advance()
		right := p.parseBinary(predicate, false, prec+1)
		left = &ast.BinOp{Op: op, Left: left, Right: right, Sp: source.Join(left.Span(), right.Span())}
	}
	return left
}

// parseUnary handles postfix member projection; Kooix has no prefix unary
// operators (spec.md §3 lists only the binary operator set).
func (p *Parser) parseUnary(noRecordLit bool) ast.Expr {
	left := p.parsePrimary(noRecordLit)
	for p.curIs(lexer.DOT) {
		start := p.cur
		p.advance()
		field, ok := p.expectIdent()
		if !ok {
			break
		}
		left = &ast.Member{Left: left, Field: field, Sp: source.Join(left.Span(), p.spanFrom(start))}
	}
	return left
}

func (p *Parser) parsePrimary(noRecordLit bool) ast.Expr {
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
	case lexer.LPAREN:
		p.advance()
		e := p.parseExpr(true, false)
		p.expect(lexer.RPAREN)
		return e
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IDENT:
		return p.parseIdentExpr(noRecordLit)
	default:
		p.errorf("PAR001", p.cur, "unexpected token %q in expression", p.cur.Literal)
		p.advance()
		return &ast.Literal{Kind: ast.IntLit, Sp: p.spanFrom(start)}
	}
}

func (p *Parser) intLiteral(tok lexer.Token) *ast.Literal {
	n, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.errorf("PAR001", tok, "invalid integer literal %q", tok.Literal)
	}
	return &ast.Literal{Kind: ast.IntLit, Int: n, Sp: p.spanFrom(tok)}
}

// parseIdentExpr parses everything that can start with a bare identifier:
// a boolean literal, a (possibly alias::-qualified) path, a call, or a
// record literal.
func (p *Parser) parseIdentExpr(noRecordLit bool) ast.Expr {
	start := p.cur
	name, _ := p.expectIdent()

	if name == "true" || name == "false" {
		return &ast.Literal{Kind: ast.BoolLit, Bool: name == "true", Sp: p.spanFrom(start)}
	}

	path := &ast.Path{Head: name, Sp: p.spanFrom(start)}
	if p.curIs(lexer.DCOLON) {
		p.advance()
		seg, ok := p.expectIdent()
		if ok {
			path.Head, path.Tail = seg, ""
			if p.curIs(lexer.DCOLON) {
				p.advance()
				tail, ok := p.expectIdent()
				if ok {
					path.Alias, path.Head, path.Tail = name, seg, tail
				}
			} else {
				path.Alias, path.Head, path.Tail = "", name, seg
			}
		}
		path.Sp = p.spanFrom(start)
	}

	var typeArgs []ast.Type
	if p.curIs(lexer.LT) {
		if args, ok := p.trySpeculativeTypeArgs(); ok {
			typeArgs = args
		}
	}

	if p.curIs(lexer.LPAREN) {
		p.advance()
		var args []ast.Expr
		if !p.curIs(lexer.RPAREN) {
			args = append(args, p.parseExpr(false, false))
			for p.curIs(lexer.COMMA) {
				p.advance()
				args = append(args, p.parseExpr(false, false))
			}
		}
		p.expect(lexer.RPAREN)
		return &ast.Call{Callee: path, TypeArgs: typeArgs, Args: args, Sp: p.spanFrom(start)}
	}

	if p.curIs(lexer.LBRACE) && !noRecordLit {
		return p.parseRecordLit(path, typeArgs, start)
	}

	return path
}

// trySpeculativeTypeArgs attempts to parse `<Type, ...>` followed by `(`,
// the only context explicit generic type arguments are legal in. On
// failure it rewinds the lexer and parser state so `<` is free to be
// re-read as a relational operator in predicate position.
func (p *Parser) trySpeculativeTypeArgs() ([]ast.Type, bool) {
	snap := p.snapshot()
	args := p.parseTypeArgList()
	if p.curIs(lexer.LPAREN) {
		return args, true
	}
	p.restore(snap)
	return nil, false
}

func (p *Parser) parseRecordLit(path *ast.Path, typeArgs []ast.Type, start lexer.Token) ast.Expr {
	var typeRef ast.Type
	if path.Alias != "" {
		typeRef = &ast.QualifiedType{Alias: path.Alias, Name: path.Head, Args: typeArgs, Sp: path.Sp}
	} else {
		typeRef = &ast.NamedType{Name: path.Head, Args: typeArgs, Sp: path.Sp}
	}

	p.advance() // '{'
	var fields []ast.FieldInit
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fstart := p.cur
		fname, ok := p.expectIdent()
		if !ok {
			p.recoverToItemBoundary()
			break
		}
		p.expect(lexer.COLON)
		val := p.parseExpr(false, false)
		fields = append(fields, ast.FieldInit{Name: fname, Value: val, Sp: p.spanFrom(fstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE)
	return &ast.RecordLit{TypeRef: typeRef, Fields: fields, Sp: p.spanFrom(start)}
}

// parseBlock parses `{ stmt; stmt; trailing-expr? }`.
func (p *Parser) parseBlock() *ast.Block {
	start := p.cur
	p.expect(lexer.LBRACE)

	var stmts []ast.Expr
	var result ast.Expr
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		e := p.parseStmt()
		if p.curIs(lexer.SEMI) {
			p.advance()
			stmts = append(stmts, e)
			continue
		}
		// A brace-bodied if/while/match needs no ';' when more of the
		// enclosing block follows it.
		switch e.(type) {
		case *ast.If, *ast.While, *ast.Match:
			if !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
				stmts = append(stmts, e)
				continue
			}
		}
		result = e
		break
	}
	p.expect(lexer.RBRACE)
	return &ast.Block{Stmts: stmts, Result: result, Sp: p.spanFrom(start)}
}

// parseStmt parses one block-level statement or trailing expression.
func (p *Parser) parseStmt() ast.Expr {
	switch p.cur.Type {
	case lexer.LET:
		return p.parseLet()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.MATCH:
		return p.parseMatch()
	case lexer.IDENT:
		if p.peekIs(lexer.ASSIGN) {
			return p.parseAssign()
		}
	}
	return p.parseExpr(false, false)
}

func (p *Parser) parseLet() ast.Expr {
	start := p.cur
	p.advance() // 'let'
	name, _ := p.expectIdent()
	var typ ast.Type
	if p.curIs(lexer.COLON) {
		p.advance()
		typ = p.parseType()
	}
	p.expect(lexer.ASSIGN)
	val := p.parseExpr(false, false)
	return &ast.Let{Name: name, Type: typ, Value: val, Sp: p.spanFrom(start)}
}

func (p *Parser) parseAssign() ast.Expr {
	start := p.cur
	name, _ := p.expectIdent()
	p.expect(lexer.ASSIGN)
	val := p.parseExpr(false, false)
	return &ast.Assign{Name: name, Value: val, Sp: p.spanFrom(start)}
}

func (p *Parser) parseReturn() ast.Expr {
	start := p.cur
	p.advance() // 'return'
	var val ast.Expr
	if !p.curIs(lexer.SEMI) && !p.curIs(lexer.RBRACE) {
		val = p.parseExpr(false, false)
	}
	return &ast.Return{Value: val, Sp: p.spanFrom(start)}
}

func (p *Parser) parseIf() ast.Expr {
	start := p.cur
	p.advance() // 'if'
	cond := p.parseExpr(true, true)
	then := p.parseBlock()
	var els *ast.Block
	if p.curIs(lexer.ELSE) {
		p.advance()
		els = p.parseBlock()
	}
	return &ast.If{Cond: cond, Then: then, Else: els, Sp: p.spanFrom(start)}
}

func (p *Parser) parseWhile() ast.Expr {
	start := p.cur
	p.advance() // 'while'
	cond := p.parseExpr(true, true)
	body := p.parseBlock()
	return &ast.While{Cond: cond, Body: body, Sp: p.spanFrom(start)}
}

func (p *Parser) parseMatch() ast.Expr {
	start := p.cur
	p.advance() // 'match'
	scrut := p.parseExpr(true, true)
	p.expect(lexer.LBRACE)

	var arms []ast.MatchArm
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		astart := p.cur
		pat := p.parsePattern()
		p.expect(lexer.FARROW)
		var blk *ast.Block
		var expr ast.Expr
		if p.curIs(lexer.LBRACE) {
			blk = p.parseBlock()
		} else {
			expr = p.parseExpr(false, false)
		}
		arms = append(arms, ast.MatchArm{Pattern: pat, Expr: expr, Block: blk, Sp: p.spanFrom(astart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.Match{Scrutinee: scrut, Arms: arms, Sp: p.spanFrom(start)}
}
