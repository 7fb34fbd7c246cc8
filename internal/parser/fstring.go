package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// parseFString splits an f-string body into literal text and embedded
// code parts. Escapes are resolved in text parts; code parts keep their
// raw source for re-parsing at render time.
func (p *Parser) parseFString(tok token.Token) ast.Expr {
	raw := tok.Literal.(string)
	var parts []ast.FStringPart
	var text strings.Builder

	flushText := func() {
		if text.Len() > 0 {
			parts = append(parts, ast.FStringPart{Text: text.String()})
			text.Reset()
		}
	}

	i := 0
	for i < len(raw) {
		r, w := utf8.DecodeRuneInString(raw[i:])
		switch r {
		case '\\':
			i += w
			if i >= len(raw) {
				p.errorf(tok, "dangling escape in f-string")
				return nil
			}
			esc, ew := utf8.DecodeRuneInString(raw[i:])
			switch esc {
			case 'n':
				text.WriteByte('\n')
			case 't':
				text.WriteByte('\t')
			case 'r':
				text.WriteByte('\r')
			case '\\':
				text.WriteByte('\\')
			case '"':
				text.WriteByte('"')
			case '{':
				text.WriteByte('{')
			case '}':
				text.WriteByte('}')
			default:
				p.errorf(tok, "invalid escape sequence in f-string")
				return nil
			}
			i += ew
		case '{':
			code, rest, ok := scanBraced(raw[i+w:])
			if !ok {
				p.errorf(tok, "unclosed '{' in f-string")
				return nil
			}
			flushText()
			parts = append(parts, ast.FStringPart{IsCode: true, Code: code})
			i = len(raw) - len(rest)
		case '}':
			p.errorf(tok, "unmatched '}' in f-string")
			return nil
		default:
			text.WriteRune(r)
			i += w
		}
	}
	flushText()
	return &ast.FStringLit{Token: tok, Parts: parts}
}

// scanBraced reads a brace-balanced region. s starts just after the
// opening brace; returns the region source and the remainder after the
// closing brace. Strings inside the region are honored so braces in
// string literals do not count.
func scanBraced(s string) (string, string, bool) {
	depth := 1
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\\' {
				i++
				continue
			}
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}
