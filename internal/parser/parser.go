package parser

import (
	"fmt"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// ParseError is a syntax error with the span it was detected at.
type ParseError struct {
	Msg  string
	Span token.Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Span.Line, e.Span.Column, e.Msg)
}

type Parser struct {
	tokens []token.Token
	pos    int
	errors []error
	// quoteDepth > 0 means forms are read as data: no special-form
	// recognition, lists stay ListExpr. Used inside quasiquote templates.
	quoteDepth int
}

func New(tokens []token.Token) *Parser {
	// Comments are trivia for evaluation; drop them up front.
	filtered := make([]token.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Type != token.COMMENT {
			filtered = append(filtered, t)
		}
	}
	return &Parser{tokens: filtered}
}

func (p *Parser) Errors() []error { return p.errors }

// ParseProgram reads expressions until EOF.
func (p *Parser) ParseProgram() []ast.Expr {
	var exprs []ast.Expr
	for p.peek().Type != token.EOF {
		e := p.parseExpr()
		if e == nil {
			// Error recovery: skip the offending token and continue so
			// multiple syntax errors surface in one pass.
			p.next()
			continue
		}
		exprs = append(exprs, e)
	}
	return exprs
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return token.Token{Type: token.EOF}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) next() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt token.TokenType) (token.Token, bool) {
	tok := p.peek()
	if tok.Type != tt {
		if tok.Type == token.EOF {
			p.errorf(tok, "unexpected end of input, expected %q", string(tt))
		} else {
			p.errorf(tok, "expected %q, found %q", string(tt), tok.Lexeme)
		}
		return tok, false
	}
	return p.next(), true
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	p.errors = append(p.errors, &ParseError{Msg: fmt.Sprintf(format, args...), Span: tok.Span()})
}

// parseExpr parses one expression followed by any trailing pipe sugar.
func (p *Parser) parseExpr() ast.Expr {
	e := p.parseOperand()
	if e == nil {
		return nil
	}
	for {
		switch p.peek().Type {
		case token.PIPE_GT, token.PIPE_GT_Q, token.PIPE_PAR, token.PIPE_ASYNC:
			op := p.next()
			rhs := p.parseOperand()
			if rhs == nil {
				return nil
			}
			e = desugarPipe(op, e, rhs)
		default:
			return e
		}
	}
}

// desugarPipe rewrites `x <op> f` into the corresponding call. The plain
// pipe inserts x at the first argument position; the railway, parallel
// and async variants defer to evaluator-level helper forms.
func desugarPipe(op token.Token, left, right ast.Expr) ast.Expr {
	if op.Type == token.PIPE_GT {
		if call, ok := right.(*ast.CallExpr); ok {
			args := make([]ast.Expr, 0, len(call.Args)+1)
			args = append(args, left)
			args = append(args, call.Args...)
			return &ast.CallExpr{Token: op, Func: call.Func, Args: args}
		}
		return &ast.CallExpr{Token: op, Func: right, Args: []ast.Expr{left}}
	}
	var helper string
	switch op.Type {
	case token.PIPE_GT_Q:
		helper = "_railway-pipe"
	case token.PIPE_PAR:
		helper = "_par-pipe"
	default:
		helper = "_async-pipe"
	}
	return &ast.CallExpr{
		Token: op,
		Func:  &ast.SymbolExpr{Token: op, Name: helper},
		Args:  []ast.Expr{right, left},
	}
}

// parseOperand parses a single expression without pipe handling.
func (p *Parser) parseOperand() ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case token.EOF:
		p.errorf(tok, "unexpected end of input")
		return nil
	case token.ILLEGAL:
		p.next()
		p.errorf(tok, "%v", tok.Literal)
		return nil
	case token.INT:
		p.next()
		return &ast.IntegerLit{Token: tok, Value: tok.Literal.(int64)}
	case token.FLOAT:
		p.next()
		return &ast.FloatLit{Token: tok, Value: tok.Literal.(float64)}
	case token.STRING:
		p.next()
		return &ast.StringLit{Token: tok, Value: tok.Literal.(string)}
	case token.FSTRING:
		p.next()
		return p.parseFString(tok)
	case token.KEYWORD:
		p.next()
		return &ast.KeywordExpr{Token: tok, Name: tok.Literal.(string)}
	case token.SYMBOL:
		p.next()
		switch tok.Lexeme {
		case "nil":
			return &ast.NilLit{Token: tok}
		case "true":
			return &ast.BoolLit{Token: tok, Value: true}
		case "false":
			return &ast.BoolLit{Token: tok, Value: false}
		}
		return &ast.SymbolExpr{Token: tok, Name: tok.Lexeme}
	case token.AMPERSAND:
		// '&' reads as a plain symbol; param and pattern parsing give it
		// its rest-marker meaning.
		p.next()
		return &ast.SymbolExpr{Token: tok, Name: "&"}
	case token.ARROW, token.FAT_ARROW, token.ELLIPSIS:
		p.next()
		return &ast.SymbolExpr{Token: tok, Name: tok.Lexeme}
	case token.QUOTE:
		p.next()
		inner := p.parseExpr()
		if inner == nil {
			return nil
		}
		return &ast.CallExpr{
			Token: tok,
			Func:  &ast.SymbolExpr{Token: tok, Name: "quote"},
			Args:  []ast.Expr{inner},
		}
	case token.BACKQUOTE:
		p.next()
		p.quoteDepth++
		inner := p.parseExpr()
		p.quoteDepth--
		if inner == nil {
			return nil
		}
		return &ast.QuasiquoteExpr{Token: tok, Expr: inner}
	case token.UNQUOTE:
		p.next()
		p.quoteDepth--
		inner := p.parseExpr()
		p.quoteDepth++
		if inner == nil {
			return nil
		}
		return &ast.UnquoteExpr{Token: tok, Expr: inner}
	case token.UNQUOTE_SPLICE:
		p.next()
		p.quoteDepth--
		inner := p.parseExpr()
		p.quoteDepth++
		if inner == nil {
			return nil
		}
		return &ast.UnquoteSpliceExpr{Token: tok, Expr: inner}
	case token.LPAREN:
		return p.parseForm()
	case token.LBRACKET:
		return p.parseVector()
	case token.LBRACE:
		return p.parseMap()
	case token.AT:
		// @x is shorthand for (deref x)
		p.next()
		inner := p.parseOperand()
		if inner == nil {
			return nil
		}
		return &ast.CallExpr{
			Token: tok,
			Func:  &ast.SymbolExpr{Token: tok, Name: "deref"},
			Args:  []ast.Expr{inner},
		}
	default:
		p.next()
		p.errorf(tok, "unexpected token %q", tok.Lexeme)
		return nil
	}
}

func (p *Parser) parseVector() ast.Expr {
	lb, _ := p.expect(token.LBRACKET)
	var items []ast.Expr
	for {
		tok := p.peek()
		if tok.Type == token.RBRACKET {
			p.next()
			return &ast.VectorExpr{Token: lb, Items: items}
		}
		if tok.Type == token.EOF {
			p.errorf(tok, "unexpected end of input, expected \"]\"")
			return nil
		}
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		items = append(items, e)
	}
}

func (p *Parser) parseMap() ast.Expr {
	lb, _ := p.expect(token.LBRACE)
	var pairs []ast.MapPair
	for {
		tok := p.peek()
		if tok.Type == token.RBRACE {
			p.next()
			return &ast.MapExpr{Token: lb, Pairs: pairs}
		}
		if tok.Type == token.EOF {
			p.errorf(tok, "unexpected end of input, expected \"}\"")
			return nil
		}
		key := p.parseExpr()
		if key == nil {
			return nil
		}
		if p.peek().Type == token.RBRACE || p.peek().Type == token.EOF {
			p.errorf(p.peek(), "map literal needs an even number of forms")
			p.next()
			return nil
		}
		val := p.parseExpr()
		if val == nil {
			return nil
		}
		pairs = append(pairs, ast.MapPair{Key: key, Value: val})
	}
}

// parseList reads expressions until the closing paren, assuming the
// opening paren has been consumed.
func (p *Parser) parseSeq() ([]ast.Expr, bool) {
	var items []ast.Expr
	for {
		tok := p.peek()
		if tok.Type == token.RPAREN {
			p.next()
			return items, true
		}
		if tok.Type == token.EOF {
			p.errorf(tok, "unexpected end of input, expected \")\"")
			return nil, false
		}
		e := p.parseExpr()
		if e == nil {
			return nil, false
		}
		items = append(items, e)
	}
}
