package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekChar2() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	pos2 := l.readPosition + w
	if pos2 >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos2:])
	return r
}

// NextToken returns the next token. Whitespace is skipped; comments are
// emitted as COMMENT tokens so tooling can round-trip them.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	startPos, startLine, startCol := l.position, l.line, l.column

	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Pos: startPos, End: startPos, Line: startLine, Column: startCol}
	case ';':
		return l.readComment()
	case '(':
		return l.single(token.LPAREN)
	case ')':
		return l.single(token.RPAREN)
	case '[':
		return l.single(token.LBRACKET)
	case ']':
		return l.single(token.RBRACKET)
	case '{':
		return l.single(token.LBRACE)
	case '}':
		return l.single(token.RBRACE)
	case '\'':
		return l.single(token.QUOTE)
	case '`':
		return l.single(token.BACKQUOTE)
	case '@':
		return l.single(token.AT)
	case '&':
		return l.single(token.AMPERSAND)
	case ',':
		if l.peekChar() == '@' {
			l.readChar()
			return l.double(token.UNQUOTE_SPLICE, ",@", startPos, startLine, startCol)
		}
		return l.single(token.UNQUOTE)
	case '|':
		if l.peekChar() == '>' {
			l.readChar()
			if l.peekChar() == '?' {
				l.readChar()
				return l.double(token.PIPE_GT_Q, "|>?", startPos, startLine, startCol)
			}
			return l.double(token.PIPE_GT, "|>", startPos, startLine, startCol)
		}
		if l.peekChar() == '|' && l.peekChar2() == '>' {
			l.readChar()
			l.readChar()
			return l.double(token.PIPE_PAR, "||>", startPos, startLine, startCol)
		}
		tok := l.illegal("unexpected character '|'", startPos, startLine, startCol)
		l.readChar()
		return tok
	case '~':
		if l.peekChar() == '>' {
			l.readChar()
			return l.double(token.PIPE_ASYNC, "~>", startPos, startLine, startCol)
		}
		if l.peekChar() == '@' {
			l.readChar()
			return l.double(token.UNQUOTE_SPLICE, "~@", startPos, startLine, startCol)
		}
		return l.single(token.UNQUOTE)
	case '=':
		if l.peekChar() == '>' {
			l.readChar()
			return l.double(token.FAT_ARROW, "=>", startPos, startLine, startCol)
		}
		return l.readSymbol()
	case '.':
		if l.peekChar() == '.' && l.peekChar2() == '.' {
			l.readChar()
			l.readChar()
			return l.double(token.ELLIPSIS, "...", startPos, startLine, startCol)
		}
		return l.readSymbol()
	case ':':
		return l.readKeyword()
	case '"':
		return l.readString()
	case '-', '+':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		if l.ch == '-' && l.peekChar() == '>' && !isSymbolChar(l.peekChar2()) {
			l.readChar()
			return l.double(token.ARROW, "->", startPos, startLine, startCol)
		}
		return l.readSymbol()
	}

	if isDigit(l.ch) {
		return l.readNumber()
	}
	if l.ch == 'f' && l.peekChar() == '"' {
		return l.readFString()
	}
	if isSymbolChar(l.ch) {
		return l.readSymbol()
	}
	tok := l.illegal("unexpected character "+strconv.QuoteRune(l.ch), startPos, startLine, startCol)
	l.readChar()
	return tok
}

// Tokenize reads all tokens up to and including EOF.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) single(tt token.TokenType) token.Token {
	tok := token.Token{
		Type: tt, Lexeme: string(l.ch), Literal: string(l.ch),
		Pos: l.position, End: l.position + utf8.RuneLen(l.ch),
		Line: l.line, Column: l.column,
	}
	l.readChar()
	return tok
}

func (l *Lexer) double(tt token.TokenType, lexeme string, pos, line, col int) token.Token {
	l.readChar()
	return token.Token{Type: tt, Lexeme: lexeme, Literal: lexeme, Pos: pos, End: pos + len(lexeme), Line: line, Column: col}
}

func (l *Lexer) illegal(msg string, pos, line, col int) token.Token {
	return token.Token{Type: token.ILLEGAL, Lexeme: "", Literal: msg, Pos: pos, End: l.readPosition, Line: line, Column: col}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

func (l *Lexer) readComment() token.Token {
	startPos, startLine, startCol := l.position, l.line, l.column
	position := l.position
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	text := l.input[position:l.position]
	return token.Token{Type: token.COMMENT, Lexeme: text, Literal: text, Pos: startPos, End: l.position, Line: startLine, Column: startCol}
}

func (l *Lexer) readSymbol() token.Token {
	startPos, startLine, startCol := l.position, l.line, l.column
	position := l.position
	for isSymbolChar(l.ch) {
		l.readChar()
	}
	name := l.input[position:l.position]
	return token.Token{Type: token.SYMBOL, Lexeme: name, Literal: name, Pos: startPos, End: l.position, Line: startLine, Column: startCol}
}

func (l *Lexer) readKeyword() token.Token {
	startPos, startLine, startCol := l.position, l.line, l.column
	l.readChar() // consume ':'
	position := l.position
	for isSymbolChar(l.ch) {
		l.readChar()
	}
	name := l.input[position:l.position]
	if name == "" {
		return l.illegal("empty keyword", startPos, startLine, startCol)
	}
	return token.Token{Type: token.KEYWORD, Lexeme: ":" + name, Literal: name, Pos: startPos, End: l.position, Line: startLine, Column: startCol}
}

func (l *Lexer) readNumber() token.Token {
	startPos, startLine, startCol := l.position, l.line, l.column
	position := l.position

	if l.ch == '-' || l.ch == '+' {
		l.readChar()
	}
	dots := 0
	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			if !isDigit(l.peekChar()) {
				break
			}
			dots++
		}
		l.readChar()
	}
	lexeme := l.input[position:l.position]

	if dots > 1 || isSymbolChar(l.ch) {
		// Trailing symbol characters glue onto the number: "1.2.3", "1abc".
		for isSymbolChar(l.ch) || l.ch == '.' {
			l.readChar()
		}
		lexeme = l.input[position:l.position]
		return l.illegal("invalid number literal "+strconv.Quote(lexeme), startPos, startLine, startCol)
	}

	if dots == 1 {
		val, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return l.illegal("invalid number literal "+strconv.Quote(lexeme), startPos, startLine, startCol)
		}
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: val, Pos: startPos, End: l.position, Line: startLine, Column: startCol}
	}
	val, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return l.illegal("invalid number literal "+strconv.Quote(lexeme), startPos, startLine, startCol)
	}
	return token.Token{Type: token.INT, Lexeme: lexeme, Literal: val, Pos: startPos, End: l.position, Line: startLine, Column: startCol}
}

func (l *Lexer) readString() token.Token {
	startPos, startLine, startCol := l.position, l.line, l.column

	if l.peekChar() == '"' && l.peekChar2() == '"' {
		return l.readTripleString(startPos, startLine, startCol)
	}

	var sb strings.Builder
	for {
		l.readChar()
		if l.ch == 0 {
			return l.illegal("unclosed string literal", startPos, startLine, startCol)
		}
		if l.ch == '"' {
			l.readChar() // consume closing quote
			break
		}
		if l.ch == '\\' {
			r, ok := l.readEscape()
			if !ok {
				return l.illegal("invalid escape sequence", startPos, startLine, startCol)
			}
			sb.WriteRune(r)
			continue
		}
		sb.WriteRune(l.ch)
	}
	content := sb.String()
	return token.Token{Type: token.STRING, Lexeme: l.input[startPos:l.position], Literal: content, Pos: startPos, End: l.position, Line: startLine, Column: startCol}
}

// readEscape processes the character after a backslash. Supports
// \n \t \r \\ \" and \u{hex}.
func (l *Lexer) readEscape() (rune, bool) {
	l.readChar()
	switch l.ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case 'u':
		if l.peekChar() != '{' {
			return 0, false
		}
		l.readChar() // {
		var hex strings.Builder
		for {
			l.readChar()
			if l.ch == '}' {
				break
			}
			if l.ch == 0 {
				return 0, false
			}
			hex.WriteRune(l.ch)
		}
		val, err := strconv.ParseInt(hex.String(), 16, 32)
		if err != nil {
			return 0, false
		}
		return rune(val), true
	default:
		return 0, false
	}
}

// readTripleString reads a """…""" literal. Newlines are preserved
// verbatim; the only escape recognized is \""" for a literal quote run.
func (l *Lexer) readTripleString(startPos, startLine, startCol int) token.Token {
	l.readChar() // second "
	l.readChar() // third "
	var sb strings.Builder
	for {
		l.readChar()
		if l.ch == 0 {
			return l.illegal("unclosed string literal", startPos, startLine, startCol)
		}
		if l.ch == '\\' && strings.HasPrefix(l.input[l.readPosition:], `"""`) {
			// \""" escapes the terminator
			l.readChar()
			l.readChar()
			l.readChar()
			sb.WriteString(`"""`)
			continue
		}
		if l.ch == '"' && l.peekChar() == '"' && l.peekChar2() == '"' {
			l.readChar()
			l.readChar()
			l.readChar() // past the closing run
			break
		}
		sb.WriteRune(l.ch)
	}
	return token.Token{Type: token.STRING, Lexeme: l.input[startPos:l.position], Literal: sb.String(), Pos: startPos, End: l.position, Line: startLine, Column: startCol}
}

// readFString reads f"…" capturing the raw body. Brace-balanced {…}
// regions are tracked so quotes and braces inside embedded code do not
// terminate the literal; the parser splits the body into parts.
func (l *Lexer) readFString() token.Token {
	startPos, startLine, startCol := l.position, l.line, l.column
	l.readChar() // consume 'f', now at '"'
	var sb strings.Builder
	depth := 0
	inCodeString := false
	for {
		l.readChar()
		if l.ch == 0 {
			if depth > 0 {
				return l.illegal("unclosed '{' in f-string", startPos, startLine, startCol)
			}
			return l.illegal("unclosed string literal", startPos, startLine, startCol)
		}
		if inCodeString {
			if l.ch == '\\' {
				sb.WriteRune(l.ch)
				l.readChar()
				sb.WriteRune(l.ch)
				continue
			}
			if l.ch == '"' {
				inCodeString = false
			}
			sb.WriteRune(l.ch)
			continue
		}
		switch l.ch {
		case '"':
			if depth == 0 {
				l.readChar() // consume closing quote
				return token.Token{Type: token.FSTRING, Lexeme: l.input[startPos:l.position], Literal: sb.String(), Pos: startPos, End: l.position, Line: startLine, Column: startCol}
			}
			inCodeString = true
			sb.WriteRune(l.ch)
		case '{':
			depth++
			sb.WriteRune(l.ch)
		case '}':
			if depth == 0 {
				return l.illegal("unmatched '}' in f-string", startPos, startLine, startCol)
			}
			depth--
			sb.WriteRune(l.ch)
		case '\\':
			if depth == 0 {
				sb.WriteRune(l.ch)
				l.readChar()
				sb.WriteRune(l.ch)
				continue
			}
			sb.WriteRune(l.ch)
		default:
			sb.WriteRune(l.ch)
		}
	}
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

// isSymbolChar reports whether ch may appear in a symbol. Delimiters,
// reader macros and the pipe/variadic markers are excluded.
func isSymbolChar(ch rune) bool {
	if ch == 0 || unicode.IsSpace(ch) {
		return false
	}
	switch ch {
	case '(', ')', '[', ']', '{', '}', '\'', '`', ',', ';', ':', '"', '@', '&', '|', '~':
		return false
	}
	return true
}
