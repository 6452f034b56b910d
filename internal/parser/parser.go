// Package parser implements the Kooix recursive-descent parser (spec.md
// §4.3): one-token lookahead, shallow backtracking only at well-bounded
// expression/record-literal ambiguities, precedence climbing for binary
// operators.
package parser

import (
	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/lexer"
	"github.com/telagod/kooix/internal/source"
)

// Parser holds the lexer, current/peek tokens, and the accumulated
// diagnostic bag. A parse error at the item level recovers by skipping to
// the next ';' or closing brace. A parse error inside an expression is
// recorded and parsing of the same function body continues from there; the
// body is not abandoned.
type Parser struct {
	l    *lexer.Lexer
	file string

	cur  lexer.Token
	peek lexer.Token

	bag *diag.Bag
}

// New creates a Parser over l. bag receives diagnostics; a fresh bag is
// created if nil.
func New(l *lexer.Lexer, file string, bag *diag.Bag) *Parser {
	if bag == nil {
		bag = diag.NewBag()
	}
	p := &Parser{l: l, file: file, bag: bag}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) Bag() *diag.Bag { return p.bag }

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) pos(t lexer.Token) source.Pos {
	return source.Pos{File: p.file, Offset: t.Offset, Line: t.Line, Column: t.Column}
}

func (p *Parser) spanFrom(start lexer.Token) source.Span {
	return source.Span{Start: p.pos(start), End: p.pos(p.cur)}
}

func (p *Parser) errorf(code string, tok lexer.Token, format string, args ...any) {
	sp := source.Span{Start: p.pos(tok), End: p.pos(tok)}
	p.bag.Add(diag.Errorf(code, "parser", &sp, format, args...))
}

func (p *Parser) curIs(t lexer.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.Type) bool { return p.peek.Type == t }

// expect checks the current token is t, records PAR001 otherwise, and
// advances past it regardless (so recovery can keep scanning).
func (p *Parser) expect(t lexer.Type) bool {
	if p.cur.Type != t {
		p.errorf("PAR001", p.cur, "unexpected token %q, expected %s", p.cur.Literal, t)
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expectIdent() (string, bool) {
	if p.cur.Type != lexer.IDENT {
		p.errorf("PAR001", p.cur, "expected identifier, got %q", p.cur.Literal)
		return "", false
	}
	name := p.cur.Literal
	p.advance()
	return name, true
}

// ParseFile parses one file's worth of tokens into an *ast.Module; it is
// what loaders call. path identifies the module for diagnostics and for the
// module-aware graph.
func ParseFile(src, file, path string, bag *diag.Bag) *ast.Module {
	lx := lexer.New(src, file)
	p := New(lx, file, bag)
	mod := p.parseModule(path)
	if lx.Err != nil {
		if lerr, ok := lx.Err.(*lexer.Error); ok {
			sp := source.Span{
				Start: source.Pos{File: lerr.File, Offset: lerr.Offset, Line: lerr.Line, Column: lerr.Column},
				End:   source.Pos{File: lerr.File, Offset: lerr.Offset, Line: lerr.Line, Column: lerr.Column},
			}
			bag.Add(diag.Errorf(lerr.Code, "lexer", &sp, "%s", lerr.Message))
		}
	}
	return mod
}

func (p *Parser) parseModule(path string) *ast.Module {
	start := p.cur
	mod := &ast.Module{Path: path}

	for !p.curIs(lexer.EOF) {
		if p.curIs(lexer.IMPORT) {
			mod.Imports = append(mod.Imports, p.parseImport())
			continue
		}
		item := p.parseItem()
		if item != nil {
			mod.Items = append(mod.Items, item)
		}
	}
	mod.Sp = p.spanFrom(start)
	return mod
}

func (p *Parser) parseImport() *ast.Import {
	start := p.cur
	p.advance() // 'import'
	if p.cur.Type != lexer.STRING {
		p.errorf("PAR004", p.cur, "expected string path after import")
		p.recoverToItemBoundary()
		return &ast.Import{Sp: p.spanFrom(start)}
	}
	path := p.cur.Literal
	p.advance()
	alias := ""
	if p.curIs(lexer.AS) {
		p.advance()
		a, ok := p.expectIdent()
		if ok {
			alias = a
		}
	}
	p.expect(lexer.SEMI)
	return &ast.Import{Path: path, Alias: alias, Sp: p.spanFrom(start)}
}

// parseItem parses one top-level item. Returns nil (with a recorded
// diagnostic) if the current token starts nothing recognizable; the caller
// loop has already recovered to the next item boundary by the time this
// returns.
func (p *Parser) parseItem() ast.Item {
	switch p.cur.Type {
	case lexer.CAP:
		return p.parseCapabilityDecl()
	case lexer.RECORD:
		return p.parseRecordDecl()
	case lexer.ENUM:
		return p.parseEnumDecl()
	case lexer.FN:
		return p.parseFunctionDecl()
	case lexer.WORKFLOW:
		return p.parseWorkflowDecl()
	case lexer.AGENT:
		return p.parseAgentDecl()
	default:
		p.errorf("PAR001", p.cur, "unexpected token %q at top level", p.cur.Literal)
		p.recoverToItemBoundary()
		return nil
	}
}

// recoverToItemBoundary implements spec.md §4.3's minimal recovery: skip to
// the next ';' or closing '}' and continue.
func (p *Parser) recoverToItemBoundary() {
	depth := 0
	for !p.curIs(lexer.EOF) {
		switch p.cur.Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			if depth == 0 {
				p.advance()
				return
			}
			depth--
		case lexer.SEMI:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

