package parser

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// parseForm parses a parenthesized form. At quote depth zero the head
// symbol selects a typed special-form node; anything else is a Call.
// Inside quasiquote templates everything stays plain data (ListExpr).
func (p *Parser) parseForm() ast.Expr {
	lp, ok := p.expect(token.LPAREN)
	if !ok {
		return nil
	}

	if p.quoteDepth > 0 {
		items, ok := p.parseSeq()
		if !ok {
			return nil
		}
		return &ast.ListExpr{Token: lp, Items: items}
	}

	head := p.peek()
	if head.Type == token.RPAREN {
		p.next()
		return &ast.ListExpr{Token: lp}
	}

	if head.Type == token.SYMBOL {
		switch head.Lexeme {
		case "if":
			return p.parseIf(lp)
		case "do":
			return p.parseDo(lp)
		case "def":
			return p.parseDef(lp, false)
		case "defn":
			return p.parseDefn(lp, false)
		case "defn-":
			return p.parseDefn(lp, true)
		case "fn":
			return p.parseFn(lp)
		case "let":
			return p.parseLet(lp)
		case "match":
			return p.parseMatch(lp)
		case "try":
			return p.parseTry(lp)
		case "defer":
			return p.parseDefer(lp)
		case "loop":
			return p.parseLoop(lp)
		case "recur":
			return p.parseRecur(lp)
		case "when":
			return p.parseWhen(lp)
		case "while":
			return p.parseWhile(lp)
		case "until":
			return p.parseUntil(lp)
		case "while-some":
			return p.parseWhileSome(lp)
		case "until-error":
			return p.parseUntilError(lp)
		case "mac":
			return p.parseMac(lp)
		case "module":
			return p.parseModule(lp)
		case "export":
			return p.parseExport(lp)
		case "use":
			return p.parseUse(lp)
		case "quasiquote":
			p.next()
			p.quoteDepth++
			inner := p.parseExpr()
			p.quoteDepth--
			if inner == nil {
				return nil
			}
			if _, ok := p.expect(token.RPAREN); !ok {
				return nil
			}
			return &ast.QuasiquoteExpr{Token: lp, Expr: inner}
		case "unquote", "unquote-splice":
			// Outside a quasiquote these forms are evaluator errors, but
			// they still have to parse so the evaluator can report them.
			name := head.Lexeme
			p.next()
			inner := p.parseExpr()
			if inner == nil {
				return nil
			}
			if _, ok := p.expect(token.RPAREN); !ok {
				return nil
			}
			if name == "unquote" {
				return &ast.UnquoteExpr{Token: lp, Expr: inner}
			}
			return &ast.UnquoteSpliceExpr{Token: lp, Expr: inner}
		}
	}

	first := p.parseOperand()
	if first == nil {
		return nil
	}

	// A pipe right after the head means this is a parenthesized pipe
	// chain, not a call: (x |> f |> g) groups, it does not invoke.
	if isPipeToken(p.peek().Type) {
		for isPipeToken(p.peek().Type) {
			op := p.next()
			rhs := p.parseOperand()
			if rhs == nil {
				return nil
			}
			first = desugarPipe(op, first, rhs)
		}
		if _, ok := p.expect(token.RPAREN); !ok {
			return nil
		}
		return first
	}

	items, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.CallExpr{Token: lp, Func: first, Args: items}
}

func isPipeToken(tt token.TokenType) bool {
	switch tt {
	case token.PIPE_GT, token.PIPE_GT_Q, token.PIPE_PAR, token.PIPE_ASYNC:
		return true
	}
	return false
}

func (p *Parser) parseIf(lp token.Token) ast.Expr {
	p.next() // 'if'
	test := p.parseExpr()
	if test == nil {
		return nil
	}
	then := p.parseExpr()
	if then == nil {
		return nil
	}
	var els ast.Expr
	if p.peek().Type != token.RPAREN {
		els = p.parseExpr()
		if els == nil {
			return nil
		}
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil
	}
	return &ast.IfExpr{Token: lp, Test: test, Then: then, Else: els}
}

func (p *Parser) parseDo(lp token.Token) ast.Expr {
	p.next() // 'do'
	exprs, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.DoExpr{Token: lp, Exprs: exprs}
}

func (p *Parser) symbolName() (string, token.Token, bool) {
	tok := p.peek()
	if tok.Type != token.SYMBOL {
		p.errorf(tok, "expected a symbol, found %q", tok.Lexeme)
		return "", tok, false
	}
	p.next()
	return tok.Lexeme, tok, true
}

func (p *Parser) parseDef(lp token.Token, private bool) ast.Expr {
	p.next() // 'def'
	name, _, ok := p.symbolName()
	if !ok {
		return nil
	}
	first := p.parseExpr()
	if first == nil {
		return nil
	}
	def := &ast.DefExpr{Token: lp, Name: name, Value: first, IsPrivate: private}
	if p.peek().Type != token.RPAREN {
		// (def n "doc" v) or (def n {:desc "…"} v)
		value := p.parseExpr()
		if value == nil {
			return nil
		}
		switch d := first.(type) {
		case *ast.StringLit:
			def.Doc = d.Value
		case *ast.MapExpr:
			def.Meta = d
		default:
			p.errorf(first.GetToken(), "def takes a doc string or metadata map before the value")
			return nil
		}
		def.Value = value
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil
	}
	return def
}

// parseDefn desugars (defn name [params] body…) into
// (def name (fn [params] (do body…))).
func (p *Parser) parseDefn(lp token.Token, private bool) ast.Expr {
	p.next() // 'defn' / 'defn-'
	name, nameTok, ok := p.symbolName()
	if !ok {
		return nil
	}
	doc := ""
	if p.peek().Type == token.STRING {
		tok := p.next()
		doc = tok.Literal.(string)
	}
	params, variadic, ok := p.parseParams()
	if !ok {
		return nil
	}
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	fn := &ast.FnExpr{
		Token:      lp,
		Name:       name,
		Params:     params,
		Body:       bodyExpr(lp, body),
		IsVariadic: variadic,
	}
	return &ast.DefExpr{Token: nameTok, Name: name, Doc: doc, Value: fn, IsPrivate: private}
}

func (p *Parser) parseFn(lp token.Token) ast.Expr {
	p.next() // 'fn'
	name := ""
	if p.peek().Type == token.SYMBOL && p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Type == token.LBRACKET {
		// optional self-name for display
		name = p.next().Lexeme
	}
	params, variadic, ok := p.parseParams()
	if !ok {
		return nil
	}
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.FnExpr{Token: lp, Name: name, Params: params, Body: bodyExpr(lp, body), IsVariadic: variadic}
}

// parseParams reads a [p1 p2 … & rest] parameter vector. Parameters may
// be destructuring patterns; '&' marks the final parameter variadic.
func (p *Parser) parseParams() ([]ast.Pattern, bool, bool) {
	lb := p.peek()
	if lb.Type != token.LBRACKET {
		p.errorf(lb, "expected a parameter vector, found %q", lb.Lexeme)
		return nil, false, false
	}
	p.next()
	var params []ast.Pattern
	variadic := false
	for {
		tok := p.peek()
		if tok.Type == token.RBRACKET {
			p.next()
			return params, variadic, true
		}
		if tok.Type == token.EOF {
			p.errorf(tok, "unexpected end of input, expected \"]\"")
			return nil, false, false
		}
		if tok.Type == token.AMPERSAND {
			p.next()
			rest := p.peek()
			if rest.Type != token.SYMBOL {
				p.errorf(rest, "'&' needs a name for the rest parameter")
				return nil, false, false
			}
			p.next()
			params = append(params, &ast.VarPat{Token: rest, Name: rest.Lexeme})
			variadic = true
			if _, ok := p.expect(token.RBRACKET); !ok {
				return nil, false, false
			}
			return params, variadic, true
		}
		e := p.parseExpr()
		if e == nil {
			return nil, false, false
		}
		pat := p.patternFromExpr(e)
		if pat == nil {
			return nil, false, false
		}
		params = append(params, pat)
	}
}

func (p *Parser) parseLet(lp token.Token) ast.Expr {
	p.next() // 'let'
	lb := p.peek()
	if lb.Type != token.LBRACKET {
		p.errorf(lb, "expected a binding vector, found %q", lb.Lexeme)
		return nil
	}
	p.next()
	var bindings []ast.LetBinding
	for p.peek().Type != token.RBRACKET {
		if p.peek().Type == token.EOF {
			p.errorf(p.peek(), "unexpected end of input, expected \"]\"")
			return nil
		}
		patExpr := p.parseExpr()
		if patExpr == nil {
			return nil
		}
		pat := p.patternFromExpr(patExpr)
		if pat == nil {
			return nil
		}
		if p.peek().Type == token.RBRACKET {
			p.errorf(p.peek(), "let bindings need an even number of forms")
			return nil
		}
		val := p.parseExpr()
		if val == nil {
			return nil
		}
		bindings = append(bindings, ast.LetBinding{Pattern: pat, Value: val})
	}
	p.next() // ']'
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.LetExpr{Token: lp, Bindings: bindings, Body: body}
}

func (p *Parser) parseMatch(lp token.Token) ast.Expr {
	p.next() // 'match'
	subject := p.parseExpr()
	if subject == nil {
		return nil
	}
	var arms []ast.MatchArm
	for p.peek().Type != token.RPAREN {
		if p.peek().Type == token.EOF {
			p.errorf(p.peek(), "unexpected end of input, expected \")\"")
			return nil
		}
		patExpr := p.parseExpr()
		if patExpr == nil {
			return nil
		}
		pat := p.patternFromExpr(patExpr)
		if pat == nil {
			return nil
		}
		var guard ast.Expr
		if tok := p.peek(); tok.Type == token.KEYWORD && tok.Literal == "when" {
			p.next()
			guard = p.parseExpr()
			if guard == nil {
				return nil
			}
		}
		if p.peek().Type == token.RPAREN {
			p.errorf(p.peek(), "match arm is missing a body")
			return nil
		}
		body := p.parseExpr()
		if body == nil {
			return nil
		}
		arms = append(arms, ast.MatchArm{Pattern: pat, Guard: guard, Body: body})
	}
	p.next() // ')'
	return &ast.MatchExpr{Token: lp, Expr: subject, Arms: arms}
}

func (p *Parser) parseTry(lp token.Token) ast.Expr {
	p.next() // 'try'
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.TryExpr{Token: lp, Expr: bodyExpr(lp, body)}
}

func (p *Parser) parseDefer(lp token.Token) ast.Expr {
	p.next() // 'defer'
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.DeferExpr{Token: lp, Expr: bodyExpr(lp, body)}
}

func (p *Parser) parseLoop(lp token.Token) ast.Expr {
	p.next() // 'loop'
	lb := p.peek()
	if lb.Type != token.LBRACKET {
		p.errorf(lb, "expected a binding vector, found %q", lb.Lexeme)
		return nil
	}
	p.next()
	var bindings []ast.LoopBinding
	for p.peek().Type != token.RBRACKET {
		if p.peek().Type == token.EOF {
			p.errorf(p.peek(), "unexpected end of input, expected \"]\"")
			return nil
		}
		name, _, ok := p.symbolName()
		if !ok {
			return nil
		}
		if p.peek().Type == token.RBRACKET {
			p.errorf(p.peek(), "loop bindings need an even number of forms")
			return nil
		}
		val := p.parseExpr()
		if val == nil {
			return nil
		}
		bindings = append(bindings, ast.LoopBinding{Name: name, Value: val})
	}
	p.next() // ']'
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.LoopExpr{Token: lp, Bindings: bindings, Body: body}
}

func (p *Parser) parseRecur(lp token.Token) ast.Expr {
	p.next() // 'recur'
	args, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.RecurExpr{Token: lp, Args: args}
}

func (p *Parser) parseWhen(lp token.Token) ast.Expr {
	p.next() // 'when'
	test := p.parseExpr()
	if test == nil {
		return nil
	}
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.WhenExpr{Token: lp, Test: test, Body: body}
}

func (p *Parser) parseWhile(lp token.Token) ast.Expr {
	p.next() // 'while'
	test := p.parseExpr()
	if test == nil {
		return nil
	}
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.WhileExpr{Token: lp, Test: test, Body: body}
}

func (p *Parser) parseUntil(lp token.Token) ast.Expr {
	p.next() // 'until'
	test := p.parseExpr()
	if test == nil {
		return nil
	}
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.UntilExpr{Token: lp, Test: test, Body: body}
}

func (p *Parser) parseWhileSome(lp token.Token) ast.Expr {
	p.next() // 'while-some'
	lb := p.peek()
	if lb.Type != token.LBRACKET {
		p.errorf(lb, "expected a binding vector, found %q", lb.Lexeme)
		return nil
	}
	p.next()
	name, _, ok := p.symbolName()
	if !ok {
		return nil
	}
	test := p.parseExpr()
	if test == nil {
		return nil
	}
	if _, ok := p.expect(token.RBRACKET); !ok {
		return nil
	}
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.WhileSomeExpr{Token: lp, Name: name, Test: test, Body: body}
}

func (p *Parser) parseUntilError(lp token.Token) ast.Expr {
	p.next() // 'until-error'
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.UntilErrorExpr{Token: lp, Body: body}
}

func (p *Parser) parseMac(lp token.Token) ast.Expr {
	p.next() // 'mac'
	name, _, ok := p.symbolName()
	if !ok {
		return nil
	}
	params, variadic, ok := p.parseParams()
	if !ok {
		return nil
	}
	body, ok := p.parseSeq()
	if !ok {
		return nil
	}
	return &ast.MacExpr{Token: lp, Name: name, Params: params, Body: bodyExpr(lp, body), IsVariadic: variadic}
}

func (p *Parser) parseModule(lp token.Token) ast.Expr {
	p.next() // 'module'
	name, _, ok := p.symbolName()
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil
	}
	return &ast.ModuleExpr{Token: lp, Name: name}
}

func (p *Parser) parseExport(lp token.Token) ast.Expr {
	p.next() // 'export'
	lb := p.peek()
	if lb.Type != token.LBRACKET {
		p.errorf(lb, "expected a vector of names, found %q", lb.Lexeme)
		return nil
	}
	p.next()
	var names []string
	for p.peek().Type != token.RBRACKET {
		name, _, ok := p.symbolName()
		if !ok {
			return nil
		}
		names = append(names, name)
	}
	p.next() // ']'
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil
	}
	return &ast.ExportExpr{Token: lp, Names: names}
}

func (p *Parser) parseUse(lp token.Token) ast.Expr {
	p.next() // 'use'
	pathTok := p.peek()
	if pathTok.Type != token.STRING {
		p.errorf(pathTok, "use needs a module path string, found %q", pathTok.Lexeme)
		return nil
	}
	p.next()
	use := &ast.UseExpr{Token: lp, Path: pathTok.Literal.(string), Mode: ast.UseAll}
	if p.peek().Type == token.KEYWORD {
		mode := p.next()
		switch mode.Literal {
		case "all":
			use.Mode = ast.UseAll
		case "only":
			use.Mode = ast.UseOnly
			lb := p.peek()
			if lb.Type != token.LBRACKET {
				p.errorf(lb, "use :only needs a vector of names")
				return nil
			}
			p.next()
			for p.peek().Type != token.RBRACKET {
				name, _, ok := p.symbolName()
				if !ok {
					return nil
				}
				use.Names = append(use.Names, name)
			}
			p.next()
		case "as":
			use.Mode = ast.UseAs
			alias, _, ok := p.symbolName()
			if !ok {
				return nil
			}
			use.Alias = alias
		default:
			p.errorf(mode, "unknown use mode :%v", mode.Literal)
			return nil
		}
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil
	}
	return use
}

// bodyExpr wraps a form body in a Do unless it is a single expression.
func bodyExpr(tok token.Token, exprs []ast.Expr) ast.Expr {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ast.DoExpr{Token: tok, Exprs: exprs}
}
