package ast

import "github.com/sanohiro/qi-lang-sub000/internal/token"

// Pattern is the base interface for destructuring and match patterns.
// Four variants (literal-matching, Or, Transform) are legal only in
// match; the evaluator rejects them at bind time for fn/let.
type Pattern interface {
	patternNode()
	GetToken() token.Token
}

type WildcardPat struct {
	Token token.Token
}

type NilPat struct {
	Token token.Token
}

type BoolPat struct {
	Token token.Token
	Value bool
}

type IntegerPat struct {
	Token token.Token
	Value int64
}

type FloatPat struct {
	Token token.Token
	Value float64
}

type StringPat struct {
	Token token.Token
	Value string
}

type KeywordPat struct {
	Token token.Token
	Name  string
}

type VarPat struct {
	Token token.Token
	Name  string
}

// ListPat matches lists; Rest (if non-nil) binds trailing elements.
type ListPat struct {
	Token token.Token
	Items []Pattern
	Rest  Pattern
}

// VectorPat matches vectors, same shape as ListPat.
type VectorPat struct {
	Token token.Token
	Items []Pattern
	Rest  Pattern
}

type MapPatPair struct {
	Key     Expr // keyword, string, integer or bool literal
	Pattern Pattern
}

type MapPat struct {
	Token token.Token
	Pairs []MapPatPair
	As    string // binds the whole map when non-empty
}

type AsPat struct {
	Token token.Token
	Inner Pattern
	Name  string
}

// TransformPat applies the named function to the value and matches Inner
// against the result.
type TransformPat struct {
	Token  token.Token
	FnName string
	Inner  Pattern
}

type OrPat struct {
	Token token.Token
	Alts  []Pattern
}

func (p *WildcardPat) patternNode()  {}
func (p *NilPat) patternNode()       {}
func (p *BoolPat) patternNode()      {}
func (p *IntegerPat) patternNode()   {}
func (p *FloatPat) patternNode()     {}
func (p *StringPat) patternNode()    {}
func (p *KeywordPat) patternNode()   {}
func (p *VarPat) patternNode()       {}
func (p *ListPat) patternNode()      {}
func (p *VectorPat) patternNode()    {}
func (p *MapPat) patternNode()       {}
func (p *AsPat) patternNode()        {}
func (p *TransformPat) patternNode() {}
func (p *OrPat) patternNode()        {}

func (p *WildcardPat) GetToken() token.Token  { return p.Token }
func (p *NilPat) GetToken() token.Token       { return p.Token }
func (p *BoolPat) GetToken() token.Token      { return p.Token }
func (p *IntegerPat) GetToken() token.Token   { return p.Token }
func (p *FloatPat) GetToken() token.Token     { return p.Token }
func (p *StringPat) GetToken() token.Token    { return p.Token }
func (p *KeywordPat) GetToken() token.Token   { return p.Token }
func (p *VarPat) GetToken() token.Token       { return p.Token }
func (p *ListPat) GetToken() token.Token      { return p.Token }
func (p *VectorPat) GetToken() token.Token    { return p.Token }
func (p *MapPat) GetToken() token.Token       { return p.Token }
func (p *AsPat) GetToken() token.Token        { return p.Token }
func (p *TransformPat) GetToken() token.Token { return p.Token }
func (p *OrPat) GetToken() token.Token        { return p.Token }
