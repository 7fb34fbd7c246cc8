package ast

import (
	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// Expr is the base interface for all AST nodes. Every node carries the
// token it was produced from, which is useful for error reporting.
type Expr interface {
	exprNode()
	GetToken() token.Token
}

type NilLit struct {
	Token token.Token
}

type BoolLit struct {
	Token token.Token
	Value bool
}

type IntegerLit struct {
	Token token.Token
	Value int64
}

type FloatLit struct {
	Token token.Token
	Value float64
}

type StringLit struct {
	Token token.Token
	Value string
}

// FStringPart is one segment of an f-string: either literal text or a
// source fragment to be re-parsed and evaluated at render time.
type FStringPart struct {
	IsCode bool
	Text   string // literal text, escapes already resolved
	Code   string // raw source of a {…} region
}

type FStringLit struct {
	Token token.Token
	Parts []FStringPart
}

type SymbolExpr struct {
	Token token.Token
	Name  string
}

type KeywordExpr struct {
	Token token.Token
	Name  string // without the leading ':'
}

type ListExpr struct {
	Token token.Token
	Items []Expr
}

type VectorExpr struct {
	Token token.Token
	Items []Expr
}

type MapPair struct {
	Key   Expr
	Value Expr
}

type MapExpr struct {
	Token token.Token
	Pairs []MapPair
}

type CallExpr struct {
	Token token.Token
	Func  Expr
	Args  []Expr
}

type IfExpr struct {
	Token token.Token
	Test  Expr
	Then  Expr
	Else  Expr // nil when absent
}

type DoExpr struct {
	Token token.Token
	Exprs []Expr
}

type DefExpr struct {
	Token     token.Token
	Name      string
	Doc       string // optional doc string
	Meta      Expr   // optional metadata map literal
	Value     Expr
	IsPrivate bool
}

type FnExpr struct {
	Token      token.Token
	Name       string // optional, for display only
	Params     []Pattern
	Body       Expr
	IsVariadic bool
}

type LetBinding struct {
	Pattern Pattern
	Value   Expr
}

type LetExpr struct {
	Token    token.Token
	Bindings []LetBinding
	Body     []Expr
}

type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil when absent
	Body    Expr
}

type MatchExpr struct {
	Token token.Token
	Expr  Expr
	Arms  []MatchArm
}

type TryExpr struct {
	Token token.Token
	Expr  Expr
}

type DeferExpr struct {
	Token token.Token
	Expr  Expr
}

type LoopBinding struct {
	Name  string
	Value Expr
}

type LoopExpr struct {
	Token    token.Token
	Bindings []LoopBinding
	Body     []Expr
}

type RecurExpr struct {
	Token token.Token
	Args  []Expr
}

type WhenExpr struct {
	Token token.Token
	Test  Expr
	Body  []Expr
}

type WhileExpr struct {
	Token token.Token
	Test  Expr
	Body  []Expr
}

type UntilExpr struct {
	Token token.Token
	Test  Expr
	Body  []Expr
}

// WhileSomeExpr binds Name to Test on each iteration and runs Body while
// the bound value is not nil.
type WhileSomeExpr struct {
	Token token.Token
	Name  string
	Test  Expr
	Body  []Expr
}

/// UntilErrorExpr runs Body until it yields an {:error …} map.
type UntilErrorExpr struct {
	Token token.Token
	Body  []Expr
}

type MacExpr struct {
	Token      token.Token
	Name       string
	Params     []Pattern
	Body       Expr
	IsVariadic bool
}

type ModuleExpr struct {
	Token token.Token
	Name  string
}

type ExportExpr struct {
	Token token.Token
	Names []string
}

type UseMode int

const (
	UseAll UseMode = iota
	UseOnly
	UseAs
)

type UseExpr struct {
	Token token.Token
	Path  string
	Mode  UseMode
	Names []string // UseOnly
	Alias string   // UseAs
}

// Injected carries an already-computed runtime value into a rebuilt
// expression. The evaluator produces these when it rewrites pipe
// stages; the parser never does.
type Injected struct {
	Token token.Token
	Value interface{}
}

type QuasiquoteExpr struct {
	Token token.Token
	Expr  Expr
}

type UnquoteExpr struct {
	Token token.Token
	Expr  Expr
}

type UnquoteSpliceExpr struct {
	Token token.Token
	Expr  Expr
}

func (n *NilLit) exprNode()            {}
func (n *BoolLit) exprNode()           {}
func (n *IntegerLit) exprNode()        {}
func (n *FloatLit) exprNode()          {}
func (n *StringLit) exprNode()         {}
func (n *FStringLit) exprNode()        {}
func (n *SymbolExpr) exprNode()        {}
func (n *KeywordExpr) exprNode()       {}
func (n *ListExpr) exprNode()          {}
func (n *VectorExpr) exprNode()        {}
func (n *MapExpr) exprNode()           {}
func (n *CallExpr) exprNode()          {}
func (n *IfExpr) exprNode()            {}
func (n *DoExpr) exprNode()            {}
func (n *DefExpr) exprNode()           {}
func (n *FnExpr) exprNode()            {}
func (n *LetExpr) exprNode()           {}
func (n *MatchExpr) exprNode()         {}
func (n *TryExpr) exprNode()           {}
func (n *DeferExpr) exprNode()         {}
func (n *LoopExpr) exprNode()          {}
func (n *RecurExpr) exprNode()         {}
func (n *WhenExpr) exprNode()          {}
func (n *WhileExpr) exprNode()         {}
func (n *UntilExpr) exprNode()         {}
func (n *WhileSomeExpr) exprNode()     {}
func (n *UntilErrorExpr) exprNode()    {}
func (n *MacExpr) exprNode()           {}
func (n *ModuleExpr) exprNode()        {}
func (n *ExportExpr) exprNode()        {}
func (n *UseExpr) exprNode()           {}
func (n *Injected) exprNode()          {}
func (n *QuasiquoteExpr) exprNode()    {}
func (n *UnquoteExpr) exprNode()       {}
func (n *UnquoteSpliceExpr) exprNode() {}

func (n *NilLit) GetToken() token.Token            { return n.Token }
func (n *BoolLit) GetToken() token.Token           { return n.Token }
func (n *IntegerLit) GetToken() token.Token        { return n.Token }
func (n *FloatLit) GetToken() token.Token          { return n.Token }
func (n *StringLit) GetToken() token.Token         { return n.Token }
func (n *FStringLit) GetToken() token.Token        { return n.Token }
func (n *SymbolExpr) GetToken() token.Token        { return n.Token }
func (n *KeywordExpr) GetToken() token.Token       { return n.Token }
func (n *ListExpr) GetToken() token.Token          { return n.Token }
func (n *VectorExpr) GetToken() token.Token        { return n.Token }
func (n *MapExpr) GetToken() token.Token           { return n.Token }
func (n *CallExpr) GetToken() token.Token          { return n.Token }
func (n *IfExpr) GetToken() token.Token            { return n.Token }
func (n *DoExpr) GetToken() token.Token            { return n.Token }
func (n *DefExpr) GetToken() token.Token           { return n.Token }
func (n *FnExpr) GetToken() token.Token            { return n.Token }
func (n *LetExpr) GetToken() token.Token           { return n.Token }
func (n *MatchExpr) GetToken() token.Token         { return n.Token }
func (n *TryExpr) GetToken() token.Token           { return n.Token }
func (n *DeferExpr) GetToken() token.Token         { return n.Token }
func (n *LoopExpr) GetToken() token.Token          { return n.Token }
func (n *RecurExpr) GetToken() token.Token         { return n.Token }
func (n *WhenExpr) GetToken() token.Token          { return n.Token }
func (n *WhileExpr) GetToken() token.Token         { return n.Token }
func (n *UntilExpr) GetToken() token.Token         { return n.Token }
func (n *WhileSomeExpr) GetToken() token.Token     { return n.Token }
func (n *UntilErrorExpr) GetToken() token.Token    { return n.Token }
func (n *MacExpr) GetToken() token.Token           { return n.Token }
func (n *ModuleExpr) GetToken() token.Token        { return n.Token }
func (n *ExportExpr) GetToken() token.Token        { return n.Token }
func (n *UseExpr) GetToken() token.Token           { return n.Token }
func (n *Injected) GetToken() token.Token          { return n.Token }
func (n *QuasiquoteExpr) GetToken() token.Token    { return n.Token }
func (n *UnquoteExpr) GetToken() token.Token       { return n.Token }
func (n *UnquoteSpliceExpr) GetToken() token.Token { return n.Token }
