package parser

import (
	"strconv"

	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/lexer"
)

// parseCapabilityDecl: `cap Name<arg, ...>;`
func (p *Parser) parseCapabilityDecl() ast.Item {
	start := p.cur
	p.advance() // 'cap'
	ref := p.parseCapRef()
	p.expect(lexer.SEMI)
	return &ast.CapabilityDecl{Ref: ref, Sp: p.spanFrom(start)}
}

// parseRecordDecl: `record Name<TP> where [...] { field: Type, ... }`
func (p *Parser) parseRecordDecl() ast.Item {
	start := p.cur
	p.advance() // 'record'
	name, _ := p.expectIdent()
	params := p.parseGenericParams()
	where := p.parseWhereClause()
	p.expect(lexer.LBRACE)

	var fields []ast.Field
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fstart := p.cur
		fname, ok := p.expectIdent()
		if !ok {
			p.recoverToItemBoundary()
			break
		}
		p.expect(lexer.COLON)
		ftype := p.parseType()
		fields = append(fields, ast.Field{Name: fname, Type: ftype, Sp: p.spanFrom(fstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE)
	return &ast.RecordDecl{Name: name, Params: params, Where: where, Fields: fields, Sp: p.spanFrom(start)}
}

// parseEnumDecl: `enum Name<TP> { Variant(Payload)?, ... }`
func (p *Parser) parseEnumDecl() ast.Item {
	start := p.cur
	p.advance() // 'enum'
	name, _ := p.expectIdent()
	params := p.parseGenericParams()
	p.expect(lexer.LBRACE)

	var variants []ast.Variant
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		vstart := p.cur
		vname, ok := p.expectIdent()
		if !ok {
			p.recoverToItemBoundary()
			break
		}
		var payload ast.Type
		if p.curIs(lexer.LPAREN) {
			p.advance()
			payload = p.parseType()
			p.expect(lexer.RPAREN)
		}
		variants = append(variants, ast.Variant{Name: vname, Payload: payload, Sp: p.spanFrom(vstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE)
	return &ast.EnumDecl{Name: name, Params: params, Variants: variants, Sp: p.spanFrom(start)}
}

// parseParamList parses a comma-separated `name: Type` list up to (not
// including) the closing ')'.
func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	if p.curIs(lexer.RPAREN) {
		return params
	}
	for {
		pstart := p.cur
		pname, ok := p.expectIdent()
		if !ok {
			break
		}
		p.expect(lexer.COLON)
		ptype := p.parseType()
		params = append(params, ast.Param{Name: pname, Type: ptype, Sp: p.spanFrom(pstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return params
}

// parseRequiresClause: `requires [CapRef, ...]`, shared by fn/workflow/agent.
func (p *Parser) parseRequiresClause() []*ast.CapRef {
	p.advance() // 'requires'
	p.expect(lexer.LBRACKET)
	var reqs []*ast.CapRef
	if !p.curIs(lexer.RBRACKET) {
		reqs = append(reqs, p.parseCapRef())
		for p.curIs(lexer.COMMA) {
			p.advance()
			reqs = append(reqs, p.parseCapRef())
		}
	}
	p.expect(lexer.RBRACKET)
	return reqs
}

// parseEnsuresClause: `ensures [pred, pred, ...]`, shared by fn/step/workflow/agent.
func (p *Parser) parseEnsuresClause() []ast.EnsuresClause {
	p.advance() // 'ensures'
	p.expect(lexer.LBRACKET)
	var out []ast.EnsuresClause
	if !p.curIs(lexer.RBRACKET) {
		for {
			estart := p.cur
			pred := p.parseExpr(true, false)
			out = append(out, ast.EnsuresClause{Pred: pred, Sp: p.spanFrom(estart)})
			if p.curIs(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(lexer.RBRACKET)
	return out
}

// parseEvidenceBlock: `evidence { trace, metrics }`, shared by fn/workflow/agent.
func (p *Parser) parseEvidenceBlock() *ast.Evidence {
	start := p.cur
	p.advance() // 'evidence'
	p.expect(lexer.LBRACE)
	var trace, metrics bool
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.IDENT) {
			switch p.cur.Literal {
			case "trace":
				trace = true
			case "metrics":
				metrics = true
			default:
				p.errorf("PAR001", p.cur, "unknown evidence field %q", p.cur.Literal)
			}
			p.advance()
		} else {
			p.errorf("PAR001", p.cur, "unexpected token %q in evidence block", p.cur.Literal)
			p.advance()
		}
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.Evidence{Trace: trace, Metrics: metrics, Sp: p.spanFrom(start)}
}

// parseFailureAction parses one retry/fallback/abort/compensate action,
// shared by a function's `failure { ... }` block and a workflow step's
// inline failure action.
func (p *Parser) parseFailureAction() *ast.FailureAction {
	start := p.cur
	switch p.cur.Type {
	case lexer.RETRY:
		p.advance()
		var cnt *int64
		if p.curIs(lexer.INT) {
			n, err := strconv.ParseInt(p.cur.Literal, 10, 64)
			if err != nil {
				p.errorf("PAR001", p.cur, "invalid integer literal %q", p.cur.Literal)
			}
			cnt = &n
			p.advance()
		}
		return &ast.FailureAction{Kind: ast.ActionRetry, Count: cnt, Sp: p.spanFrom(start)}
	case lexer.FALLBACK:
		p.advance()
		target, _ := p.expectIdent()
		return &ast.FailureAction{Kind: ast.ActionFallback, Target: target, Sp: p.spanFrom(start)}
	case lexer.ABORT:
		p.advance()
		return &ast.FailureAction{Kind: ast.ActionAbort, Sp: p.spanFrom(start)}
	case lexer.COMPENSATE:
		p.advance()
		target, _ := p.expectIdent()
		return &ast.FailureAction{Kind: ast.ActionCompensate, Target: target, Sp: p.spanFrom(start)}
	default:
		p.errorf("PAR001", p.cur, "expected a failure action (retry/fallback/abort/compensate), got %q", p.cur.Literal)
		p.advance()
		return &ast.FailureAction{Kind: ast.ActionAbort, Sp: p.spanFrom(start)}
	}
}

// parseFailurePolicy: `failure { action; action; ... }`.
func (p *Parser) parseFailurePolicy() *ast.FailurePolicy {
	start := p.cur
	p.advance() // 'failure'
	p.expect(lexer.LBRACE)
	var actions []ast.FailureAction
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		actions = append(actions, *p.parseFailureAction())
		if p.curIs(lexer.SEMI) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.FailurePolicy{Actions: actions, Sp: p.spanFrom(start)}
}

// parseEffectList: comma-separated effect names inside a function's `!{...}`
// effect set, each optionally carrying a string argument: `model("gpt")`.
func (p *Parser) parseEffectList() []ast.Effect {
	var effects []ast.Effect
	if p.curIs(lexer.RBRACE) {
		return effects
	}
	for {
		estart := p.cur
		name, ok := p.expectIdent()
		if !ok {
			break
		}
		arg := ""
		if p.curIs(lexer.LPAREN) {
			p.advance()
			if p.curIs(lexer.STRING) {
				arg = p.cur.Literal
				p.advance()
			}
			p.expect(lexer.RPAREN)
		}
		effects = append(effects, ast.Effect{Name: name, Arg: arg, Sp: p.spanFrom(estart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return effects
}

// parseFunctionDecl: `fn name<TP>(params) -> Type !{effects}? requires[...]?
// intent "..."? ensures[...]? failure{...}? evidence{...}? body-or-';'`.
func (p *Parser) parseFunctionDecl() ast.Item {
	start := p.cur
	p.advance() // 'fn'
	name, _ := p.expectIdent()
	generics := p.parseGenericParams()
	p.expect(lexer.LPAREN)
	params := p.parseParamList()
	p.expect(lexer.RPAREN)

	var ret ast.Type
	if p.curIs(lexer.ARROW) {
		p.advance()
		ret = p.parseType()
	}

	decl := &ast.FunctionDecl{Name: name, Generics: generics, Params: params, Return: ret}

	for {
		switch p.cur.Type {
		case lexer.BANG:
			p.advance()
			p.expect(lexer.LBRACE)
			decl.Effects = p.parseEffectList()
			p.expect(lexer.RBRACE)
			continue
		case lexer.REQUIRES:
			decl.Requires = p.parseRequiresClause()
			continue
		case lexer.INTENT:
			p.advance()
			if p.curIs(lexer.STRING) {
				decl.Intent = p.cur.Literal
				p.advance()
			}
			continue
		case lexer.ENSURES:
			decl.Ensures = p.parseEnsuresClause()
			continue
		case lexer.FAILURE:
			decl.Failure = p.parseFailurePolicy()
			continue
		case lexer.EVIDENCE:
			decl.Evidence = p.parseEvidenceBlock()
			continue
		}
		break
	}

	if p.curIs(lexer.LBRACE) {
		decl.Body = p.parseBlock()
	} else {
		p.expect(lexer.SEMI)
	}
	decl.Sp = p.spanFrom(start)
	return decl
}

// parseSteps parses the body of a workflow's `steps { ... }` block: each
// entry is `id: target(args) ensures[...]? failure <action>?;`.
func (p *Parser) parseSteps() []ast.Step {
	var steps []ast.Step
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		sstart := p.cur
		id, ok := p.expectIdent()
		if !ok {
			p.recoverToItemBoundary()
			break
		}
		p.expect(lexer.COLON)
		target, _ := p.expectIdent()
		p.expect(lexer.LPAREN)
		var args []ast.Expr
		if !p.curIs(lexer.RPAREN) {
			args = append(args, p.parseExpr(false, false))
			for p.curIs(lexer.COMMA) {
				p.advance()
				args = append(args, p.parseExpr(false, false))
			}
		}
		p.expect(lexer.RPAREN)

		var ensures []ast.EnsuresClause
		if p.curIs(lexer.ENSURES) {
			ensures = p.parseEnsuresClause()
		}
		var onFail *ast.FailureAction
		if p.curIs(lexer.FAILURE) {
			p.advance()
			onFail = p.parseFailureAction()
		}
		steps = append(steps, ast.Step{ID: id, Target: target, Args: args, Ensures: ensures, OnFail: onFail, Sp: p.spanFrom(sstart)})
		if p.curIs(lexer.SEMI) {
			p.advance()
		}
	}
	return steps
}

// parseOutputBlock: `output { name: Type = expr?, ... }`.
func (p *Parser) parseOutputBlock() []ast.OutputField {
	p.advance() // 'output'
	p.expect(lexer.LBRACE)
	var fields []ast.OutputField
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fstart := p.cur
		name, ok := p.expectIdent()
		if !ok {
			p.recoverToItemBoundary()
			break
		}
		p.expect(lexer.COLON)
		typ := p.parseType()
		var binding ast.Expr
		if p.curIs(lexer.ASSIGN) {
			p.advance()
			binding = p.parseExpr(false, false)
		}
		fields = append(fields, ast.OutputField{Name: name, Type: typ, Binding: binding, Sp: p.spanFrom(fstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE)
	return fields
}

// parseWorkflowDecl: spec.md §3 WorkflowDecl concrete syntax.
func (p *Parser) parseWorkflowDecl() ast.Item {
	start := p.cur
	p.advance() // 'workflow'
	name, _ := p.expectIdent()
	p.expect(lexer.LPAREN)
	params := p.parseParamList()
	p.expect(lexer.RPAREN)

	var ret ast.Type
	if p.curIs(lexer.ARROW) {
		p.advance()
		ret = p.parseType()
	}

	decl := &ast.WorkflowDecl{Name: name, Params: params, Return: ret}

	for {
		switch p.cur.Type {
		case lexer.INTENT:
			p.advance()
			if p.curIs(lexer.STRING) {
				decl.Intent = p.cur.Literal
				p.advance()
			}
			continue
		case lexer.REQUIRES:
			decl.Requires = p.parseRequiresClause()
			continue
		}
		break
	}

	p.expect(lexer.STEPS)
	p.expect(lexer.LBRACE)
	decl.Steps = p.parseSteps()
	p.expect(lexer.RBRACE)

	if p.curIs(lexer.OUTPUT) {
		decl.Output = p.parseOutputBlock()
	}
	if p.curIs(lexer.EVIDENCE) {
		decl.Evidence = p.parseEvidenceBlock()
	}
	decl.Sp = p.spanFrom(start)
	return decl
}

// parseStateMachine: `state { from -> to, to2; any -> to3; ... }`.
func (p *Parser) parseStateMachine() ast.StateMachine {
	start := p.cur
	p.advance() // 'state'
	p.expect(lexer.LBRACE)
	var transitions []ast.Transition
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		tstart := p.cur
		from := ""
		if p.curIs(lexer.ANY) {
			from = "any"
			p.advance()
		} else {
			from, _ = p.expectIdent()
		}
		p.expect(lexer.ARROW)
		var to []string
		if t, ok := p.expectIdent(); ok {
			to = append(to, t)
		}
		for p.curIs(lexer.COMMA) {
			p.advance()
			if t, ok := p.expectIdent(); ok {
				to = append(to, t)
			}
		}
		transitions = append(transitions, ast.Transition{From: from, To: to, Sp: p.spanFrom(tstart)})
		if p.curIs(lexer.SEMI) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return ast.StateMachine{Transitions: transitions, Sp: p.spanFrom(start)}
}

// parseToolNameList: `[ "name", "name", ... ]`.
func (p *Parser) parseToolNameList() []string {
	p.expect(lexer.LBRACKET)
	var out []string
	if !p.curIs(lexer.RBRACKET) {
		for {
			if p.curIs(lexer.STRING) {
				out = append(out, p.cur.Literal)
				p.advance()
			} else if p.curIs(lexer.IDENT) {
				out = append(out, p.cur.Literal)
				p.advance()
			} else {
				p.errorf("PAR001", p.cur, "expected a tool name, got %q", p.cur.Literal)
				p.advance()
			}
			if p.curIs(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(lexer.RBRACKET)
	return out
}

// parseToolPolicy: `policy { allow_tools [...]; deny_tools [...];
// max_iterations N; human_in_loop when <pred>; }`.
func (p *Parser) parseToolPolicy() ast.ToolPolicy {
	start := p.cur
	p.advance() // 'policy'
	p.expect(lexer.LBRACE)
	var allow, deny []string
	var maxIter *int64
	var hitl ast.Expr
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		switch p.cur.Type {
		case lexer.ALLOW_TOOLS:
			p.advance()
			allow = p.parseToolNameList()
		case lexer.DENY_TOOLS:
			p.advance()
			deny = p.parseToolNameList()
		case lexer.MAX_ITERATIONS:
			p.advance()
			if p.curIs(lexer.INT) {
				n, err := strconv.ParseInt(p.cur.Literal, 10, 64)
				if err != nil {
					p.errorf("PAR001", p.cur, "invalid integer literal %q", p.cur.Literal)
				}
				maxIter = &n
				p.advance()
			}
		case lexer.HUMAN_IN_LOOP:
			p.advance()
			p.expect(lexer.WHEN)
			hitl = p.parseExpr(true, false)
		default:
			p.errorf("PAR001", p.cur, "unexpected token %q in policy block", p.cur.Literal)
			p.advance()
		}
		if p.curIs(lexer.SEMI) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return ast.ToolPolicy{Allow: allow, Deny: deny, MaxIterations: maxIter, HumanInLoop: hitl, Sp: p.spanFrom(start)}
}

// parseLoopSpec: `loop { stage, stage2 stop when <pred> }`.
func (p *Parser) parseLoopSpec() ast.LoopSpec {
	start := p.cur
	p.advance() // 'loop'
	p.expect(lexer.LBRACE)
	var stages []string
	for p.curIs(lexer.IDENT) {
		s, ok := p.expectIdent()
		if ok {
			stages = append(stages, s)
		}
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	var stop ast.Expr
	if p.curIs(lexer.STOP) {
		p.advance()
		p.expect(lexer.WHEN)
		stop = p.parseExpr(true, false)
	}
	p.expect(lexer.RBRACE)
	return ast.LoopSpec{Stages: stages, Stop: stop, Sp: p.spanFrom(start)}
}

// parseAgentDecl: spec.md §3 AgentDecl concrete syntax. state/policy/loop
// blocks and the requires/ensures/evidence clauses may appear in any order.
// A declaration missing its state, policy or loop block is accepted, by the
// parser and by the analyzer alike; the missing part is left empty.
func (p *Parser) parseAgentDecl() ast.Item {
	start := p.cur
	p.advance() // 'agent'
	name, _ := p.expectIdent()
	p.expect(lexer.LPAREN)
	params := p.parseParamList()
	p.expect(lexer.RPAREN)

	var ret ast.Type
	if p.curIs(lexer.ARROW) {
		p.advance()
		ret = p.parseType()
	}

	decl := &ast.AgentDecl{Name: name, Params: params, Return: ret}

	for {
		switch p.cur.Type {
		case lexer.INTENT:
			p.advance()
			if p.curIs(lexer.STRING) {
				decl.Intent = p.cur.Literal
				p.advance()
			}
			continue
		case lexer.STATE:
			decl.State = p.parseStateMachine()
			continue
		case lexer.POLICY:
			decl.Policy = p.parseToolPolicy()
			continue
		case lexer.REQUIRES:
			decl.Requires = p.parseRequiresClause()
			continue
		case lexer.LOOP:
			decl.Loop = p.parseLoopSpec()
			continue
		case lexer.ENSURES:
			decl.Ensures = p.parseEnsuresClause()
			continue
		case lexer.EVIDENCE:
			decl.Evidence = p.parseEvidenceBlock()
			continue
		}
		break
	}

	p.expect(lexer.SEMI)
	decl.Sp = p.spanFrom(start)
	return decl
}
