// Package formula implements the closed expression language used by derived fields.
//
// A formula is a single expression over arithmetic, comparison, logical
// operators, member access and calls to an allow-listed set of builtins.
// There are no statements, assignments, loops or user-defined functions, so
// every evaluation terminates.
package formula

import (
	"fmt"
	"strings"
)

// Version identifies the grammar revision. Bump it when the language changes.
const Version = "1"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber
	TokenString

	// Punctuation
	TokenLParen   // (
	TokenRParen   // )
	TokenLBracket // [
	TokenRBracket // ]
	TokenDot      // .
	TokenComma    // ,
	TokenQuestion // ?
	TokenColon    // :

	// Operators
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenPercent   // %
	TokenNot       // !
	TokenLt        // <
	TokenLe        // <=
	TokenGt        // >
	TokenGe        // >=
	TokenEq        // ==
	TokenNe        // !=
	TokenStrictEq  // ===
	TokenStrictNe  // !==
	TokenAnd       // &&
	TokenOr        // ||
	TokenNullish   // ??
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "end of input",
	TokenIdent:    "identifier",
	TokenNumber:   "number",
	TokenString:   "string",
	TokenLParen:   "(",
	TokenRParen:   ")",
	TokenLBracket: "[",
	TokenRBracket: "]",
	TokenDot:      ".",
	TokenComma:    ",",
	TokenQuestion: "?",
	TokenColon:    ":",
	TokenPlus:     "+",
	TokenMinus:    "-",
	TokenStar:     "*",
	TokenSlash:    "/",
	TokenPercent:  "%",
	TokenNot:      "!",
	TokenLt:       "<",
	TokenLe:       "<=",
	TokenGt:       ">",
	TokenGe:       ">=",
	TokenEq:       "==",
	TokenNe:       "!=",
	TokenStrictEq: "===",
	TokenStrictNe: "!==",
	TokenAnd:      "&&",
	TokenOr:       "||",
	TokenNullish:  "??",
}

// String returns the token type as it appears in source, or its class name.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string // Raw text; decoded contents for strings
	Pos     int    // Byte offset in the formula
}

// operators is ordered longest first so "===" wins over "==" and "=".
var operators = []struct {
	text string
	typ  TokenType
}{
	{"===", TokenStrictEq},
	{"!==", TokenStrictNe},
	{"==", TokenEq},
	{"!=", TokenNe},
	{"<=", TokenLe},
	{">=", TokenGe},
	{"&&", TokenAnd},
	{"||", TokenOr},
	{"??", TokenNullish},
	{"(", TokenLParen},
	{")", TokenRParen},
	{"[", TokenLBracket},
	{"]", TokenRBracket},
	{".", TokenDot},
	{",", TokenComma},
	{"?", TokenQuestion},
	{":", TokenColon},
	{"+", TokenPlus},
	{"-", TokenMinus},
	{"*", TokenStar},
	{"/", TokenSlash},
	{"%", TokenPercent},
	{"!", TokenNot},
	{"<", TokenLt},
	{">", TokenGt},
}

// Lexer splits a formula into tokens.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a lexer over the formula text.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize returns every token up to and including EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next scans the next token.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	ch := l.input[l.pos]
	switch {
	case isIdentStart(ch):
		return l.scanIdent(), nil
	case isDigit(ch) || (ch == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.scanNumber()
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	}

	rest := l.input[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			tok := Token{Type: op.typ, Literal: op.text, Pos: l.pos}
			l.pos += len(op.text)
			return tok, nil
		}
	}
	return Token{}, newError(KindSyntax, l.pos, "unexpected character %q", rune(ch))
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenIdent, Literal: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	if strings.HasPrefix(l.input[l.pos:], "0x") || strings.HasPrefix(l.input[l.pos:], "0X") {
		l.pos += 2
		digits := l.pos
		for l.pos < len(l.input) && isHexDigit(l.input[l.pos]) {
			l.pos++
		}
		if l.pos == digits {
			return Token{}, newError(KindSyntax, start, "malformed hex literal")
		}
		return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: start}, nil
	}

	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		digits := l.pos
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		if l.pos == digits {
			return Token{}, newError(KindSyntax, start, "malformed exponent")
		}
	}
	if l.pos < len(l.input) && isIdentStart(l.input[l.pos]) {
		return Token{}, newError(KindSyntax, l.pos, "identifier directly after number")
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: start}, nil
}

func (l *Lexer) scanString(quote byte) (Token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == quote:
			l.pos++
			return Token{Type: TokenString, Literal: sb.String(), Pos: start}, nil
		case ch == '\n':
			return Token{}, newError(KindSyntax, l.pos, "unterminated string")
		case ch == '\\':
			if l.pos+1 >= len(l.input) {
				return Token{}, newError(KindSyntax, l.pos, "unterminated string")
			}
			if err := l.scanEscape(&sb); err != nil {
				return Token{}, err
			}
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}
	return Token{}, newError(KindSyntax, start, "unterminated string")
}

func (l *Lexer) scanEscape(sb *strings.Builder) error {
	esc := l.input[l.pos+1]
	l.pos += 2
	switch esc {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case '0':
		sb.WriteByte(0)
	case 'u':
		if l.pos+4 > len(l.input) {
			return newError(KindSyntax, l.pos, "malformed unicode escape")
		}
		var r rune
		for _, h := range l.input[l.pos : l.pos+4] {
			d, ok := hexValue(byte(h))
			if !ok {
				return newError(KindSyntax, l.pos, "malformed unicode escape")
			}
			r = r<<4 | rune(d)
		}
		sb.WriteRune(r)
		l.pos += 4
	default:
		// \\, \', \" and any other escaped character stand for themselves
		sb.WriteByte(esc)
	}
	return nil
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	_, ok := hexValue(ch)
	return ok
}

func hexValue(ch byte) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10, true
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10, true
	}
	return 0, false
}
