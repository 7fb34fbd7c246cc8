package token

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"

	QUOTE          TokenType = "'"
	BACKQUOTE      TokenType = "`"
	UNQUOTE        TokenType = ","
	UNQUOTE_SPLICE TokenType = ",@"
	AT             TokenType = "@"
	AMPERSAND      TokenType = "&"

	PIPE_GT    TokenType = "|>"
	PIPE_GT_Q  TokenType = "|>?"
	PIPE_PAR   TokenType = "||>"
	PIPE_ASYNC TokenType = "~>"
	ARROW      TokenType = "->"
	FAT_ARROW  TokenType = "=>"
	ELLIPSIS   TokenType = "..."

	COMMENT TokenType = "COMMENT"

	SYMBOL  TokenType = "SYMBOL"
	KEYWORD TokenType = "KEYWORD"
	INT     TokenType = "INT"
	FLOAT   TokenType = "FLOAT"
	STRING  TokenType = "STRING"
	FSTRING TokenType = "FSTRING"
)

// Token is a single lexeme with its source span. Literal carries the
// decoded payload: int64 for INT, float64 for FLOAT, the processed text
// for STRING, the raw (unprocessed) body for FSTRING, an error message
// for ILLEGAL.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Pos     int // byte offset of the first character
	End     int // byte offset one past the last character
	Line    int
	Column  int
}

// Span is a half-open byte range plus the line/column of its start.
type Span struct {
	Start  int
	End    int
	Line   int
	Column int
}

func (t Token) Span() Span {
	return Span{Start: t.Pos, End: t.End, Line: t.Line, Column: t.Column}
}
