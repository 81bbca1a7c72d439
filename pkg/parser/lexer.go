package parser

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/gologic/pkg/types"
)

const eof = -1

// Lexer converts formula source into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input      string // Input string being scanned
	length     int    // Length of input string
	start      int    // Start position of current token
	current    int    // Current position in input
	width      int    // Width of last rune read
	lineStarts []int  // Byte offsets at which each line begins
	err        error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	starts := []int{0}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Lexer{
		input:      input,
		length:     len(input),
		lineStarts: starts,
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Check for two-character symbols first (e.g., ==, <=, =>)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols, ASCII or symbolic notation
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	if ch == '"' {
		return l.scanString()
	}

	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}

	if isNameStart(ch) {
		l.backup()
		return l.scanName()
	}

	return l.error(types.ErrUnexpectedChar, "Unexpected character %q", ch)
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// Position converts a byte offset into a line/column position.
func (l *Lexer) Position(offset int) types.Position {
	line := sort.Search(len(l.lineStarts), func(i int) bool { return l.lineStarts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	start := l.lineStarts[line]
	if offset > l.length {
		offset = l.length
	}
	return types.Position{
		Offset: offset,
		Line:   line + 1,
		Column: utf8.RuneCountInString(l.input[start:offset]) + 1,
	}
}

// scanString reads a double-quoted string literal. The opening quote has
// already been consumed. Escapes are validated by the parser.
func (l *Lexer) scanString() Token {
Loop:
	for {
		switch l.nextRune() {
		case '"':
			break Loop
		case '\\':
			// Consume escaped character
			if r := l.nextRune(); r != eof && r != '\n' {
				break
			}
			fallthrough
		case eof, '\n':
			return l.error(types.ErrStringNotClosed, "Unterminated string literal")
		}
	}
	return l.newToken(TokenString)
}

// scanNumber reads a number literal from the current position.
// Supports integers, decimals, and scientific notation.
// Format: [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	// Decimal part
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrSyntaxError, "Expected digits after decimal point")
		}
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrSyntaxError, "Expected digits in exponent")
		}
	}

	if l.accept(isNameStart) {
		return l.error(types.ErrSyntaxError, "Invalid number literal")
	}

	return l.newToken(TokenNumber)
}

// scanName reads an identifier or keyword. Identifiers may be dotted
// (math.add, r.name); each segment starts with a letter or underscore.
// A λ always lexes as its own token so that λx reads as lambda x.
func (l *Lexer) scanName() Token {
	for {
		l.acceptAll(isNameChar)
		if !l.acceptRune('.') {
			break
		}
		if !l.accept(isNameStart) {
			return l.error(types.ErrSyntaxError, "Expected name after '.'")
		}
	}

	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.Position(l.current),
	}
}

func (l *Lexer) error(code types.ErrorCode, format string, args ...any) Token {
	t := l.newToken(TokenError)
	l.err = types.NewParseError(code, t.Position, format, args...)
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.Position(l.start),
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peekRune() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
	l.width = 0
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipWhitespace skips blanks and comments. Comments run from '#' or "//"
// to the end of the line.
func (l *Lexer) skipWhitespace() {
	for {
		l.acceptAll(isWhitespace)
		l.ignore()

		switch {
		case l.acceptRune('#'):
		case l.peekRune() == '/' && l.current+1 < l.length && l.input[l.current+1] == '/':
			l.current += 2
		default:
			return
		}
		for {
			ch := l.nextRune()
			if ch == eof || ch == '\n' {
				break
			}
		}
		l.ignore()
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r != 'λ' && (r == '_' || unicode.IsLetter(r))
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r)
}
