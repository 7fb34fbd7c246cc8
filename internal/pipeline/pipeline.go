package pipeline

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/lexer"
	"github.com/sanohiro/qi-lang-sub000/internal/parser"
	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// Context carries one source unit through the processing stages.
type Context struct {
	Source string
	File   string
	Tokens []token.Token
	Exprs  []ast.Expr
	Errors []error
}

func NewContext(source, file string) *Context {
	return &Context{Source: source, File: file}
}

// Processor is one stage of source processing.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline runs a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages keep running after errors so a
// single pass can collect diagnostics from every stage.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

type LexerProcessor struct{}

func (LexerProcessor) Process(ctx *Context) *Context {
	ctx.Tokens = lexer.New(ctx.Source).Tokenize()
	return ctx
}

type ParserProcessor struct{}

func (ParserProcessor) Process(ctx *Context) *Context {
	p := parser.New(ctx.Tokens)
	ctx.Exprs = p.ParseProgram()
	ctx.Errors = append(ctx.Errors, p.Errors()...)
	return ctx
}

// Parse runs the standard lex+parse pipeline over a source string.
func Parse(source, file string) ([]ast.Expr, []error) {
	ctx := New(LexerProcessor{}, ParserProcessor{}).Run(NewContext(source, file))
	return ctx.Exprs, ctx.Errors
}
