package lexer_test

import (
	"testing"

	"github.com/sanohiro/qi-lang-sub000/internal/lexer"
	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `(defn add [a b] (+ a b)) :key 42 3.14 "hi" x |> f ||> g |>? h ~> k '(1) ` + "`" + `(a ,b ,@c)`

	expected := []struct {
		typ    token.TokenType
		lexeme string
	}{
		{token.LPAREN, "("},
		{token.SYMBOL, "defn"},
		{token.SYMBOL, "add"},
		{token.LBRACKET, "["},
		{token.SYMBOL, "a"},
		{token.SYMBOL, "b"},
		{token.RBRACKET, "]"},
		{token.LPAREN, "("},
		{token.SYMBOL, "+"},
		{token.SYMBOL, "a"},
		{token.SYMBOL, "b"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.KEYWORD, ":key"},
		{token.INT, "42"},
		{token.FLOAT, "3.14"},
		{token.STRING, `"hi"`},
		{token.SYMBOL, "x"},
		{token.PIPE_GT, "|>"},
		{token.SYMBOL, "f"},
		{token.PIPE_PAR, "||>"},
		{token.SYMBOL, "g"},
		{token.PIPE_GT_Q, "|>?"},
		{token.SYMBOL, "h"},
		{token.PIPE_ASYNC, "~>"},
		{token.SYMBOL, "k"},
		{token.QUOTE, "'"},
		{token.LPAREN, "("},
		{token.INT, "1"},
		{token.RPAREN, ")"},
		{token.BACKQUOTE, "`"},
		{token.LPAREN, "("},
		{token.SYMBOL, "a"},
		{token.UNQUOTE, ","},
		{token.SYMBOL, "b"},
		{token.UNQUOTE_SPLICE, ",@"},
		{token.SYMBOL, "c"},
		{token.RPAREN, ")"},
		{token.EOF, ""},
	}

	l := lexer.New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ {
			t.Fatalf("token %d: type = %q, want %q (lexeme %q)", i, tok.Type, want.typ, tok.Lexeme)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		typ   token.TokenType
		want  interface{}
	}{
		{"integer", "42", token.INT, int64(42)},
		{"negative integer", "-7", token.INT, int64(-7)},
		{"positive sign", "+3", token.INT, int64(3)},
		{"float", "3.14", token.FLOAT, 3.14},
		{"negative float", "-0.5", token.FLOAT, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := lexer.New(tt.input).NextToken()
			if tok.Type != tt.typ {
				t.Fatalf("type = %q, want %q", tok.Type, tt.typ)
			}
			if tok.Literal != tt.want {
				t.Errorf("literal = %v (%T), want %v (%T)", tok.Literal, tok.Literal, tt.want, tt.want)
			}
		})
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline", `"a\nb"`, "a\nb"},
		{"tab", `"a\tb"`, "a\tb"},
		{"quote", `"say \"hi\""`, `say "hi"`},
		{"backslash", `"a\\b"`, `a\b`},
		{"unicode", `"\u{1F600}"`, "\U0001F600"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := lexer.New(tt.input).NextToken()
			if tok.Type != token.STRING {
				t.Fatalf("type = %q, want STRING (literal %v)", tok.Type, tok.Literal)
			}
			if tok.Literal != tt.want {
				t.Errorf("literal = %q, want %q", tok.Literal, tt.want)
			}
		})
	}
}

func TestTripleQuotedString(t *testing.T) {
	input := "\"\"\"line1\nline2\"\"\""
	tok := lexer.New(input).NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("type = %q, want STRING", tok.Type)
	}
	if tok.Literal != "line1\nline2" {
		t.Errorf("literal = %q, want %q", tok.Literal, "line1\nline2")
	}
}

func TestComments(t *testing.T) {
	l := lexer.New("; a comment\n42")
	tok := l.NextToken()
	if tok.Type != token.COMMENT {
		t.Fatalf("type = %q, want COMMENT", tok.Type)
	}
	if tok.Lexeme != "; a comment" {
		t.Errorf("lexeme = %q, want %q", tok.Lexeme, "; a comment")
	}
	if tok = l.NextToken(); tok.Type != token.INT {
		t.Fatalf("type after comment = %q, want INT", tok.Type)
	}
}

func TestIllegalTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed string", `"abc`},
		{"empty keyword", ":"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := lexer.New(tt.input)
			for {
				tok := l.NextToken()
				if tok.Type == token.ILLEGAL {
					return
				}
				if tok.Type == token.EOF {
					t.Fatal("reached EOF without an ILLEGAL token")
				}
			}
		})
	}
}

func TestTildeUnquote(t *testing.T) {
	l := lexer.New("~x ~@xs ~> f")
	expected := []struct {
		typ    token.TokenType
		lexeme string
	}{
		{token.UNQUOTE, "~"},
		{token.SYMBOL, "x"},
		{token.UNQUOTE_SPLICE, "~@"},
		{token.SYMBOL, "xs"},
		{token.PIPE_ASYNC, "~>"},
		{token.SYMBOL, "f"},
		{token.EOF, ""},
	}
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ {
			t.Fatalf("token %d: type %s, want %s", i, tok.Type, want.typ)
		}
	}
}

func TestStrayPipeTerminates(t *testing.T) {
	// A lone '|' must be consumed with its ILLEGAL token or the
	// scanner spins on it forever.
	toks := lexer.New("|x").Tokenize()
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want ILLEGAL, SYMBOL, EOF", len(toks))
	}
	if toks[0].Type != token.ILLEGAL {
		t.Fatalf("first token = %s, want ILLEGAL", toks[0].Type)
	}
	if toks[1].Type != token.SYMBOL || toks[1].Lexeme != "x" {
		t.Fatalf("second token = %s %q, want the symbol after the bad character", toks[1].Type, toks[1].Lexeme)
	}
}

func TestPositions(t *testing.T) {
	l := lexer.New("ab\ncd")
	first := l.NextToken()
	second := l.NextToken()
	if first.Line != 1 || second.Line != 2 {
		t.Errorf("lines = %d, %d, want 1, 2", first.Line, second.Line)
	}
	if first.Column != 1 || second.Column != 1 {
		t.Errorf("columns = %d, %d, want 1, 1", first.Column, second.Column)
	}
}
