package parser

import "github.com/sandrolain/gologic/pkg/types"

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenString  // "hello"
	TokenNumber  // 123, 3.14, 1e-10
	TokenBoolean // true, false
	TokenNull    // null
	TokenName    // x, math.add, r.name

	// Grouping symbols
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenBraceOpen    // {
	TokenBraceClose   // }
	TokenParenOpen    // (
	TokenParenClose   // )

	// Basic symbols
	TokenComma     // ,
	TokenColon     // :
	TokenSemicolon // ;
	TokenAssign    // =
	TokenArrow     // =>

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /
	TokenMod   // %

	// Comparison operators
	TokenEqual        // ==
	TokenNotEqual     // != ≠
	TokenLess         // <
	TokenLessEqual    // <= ≤
	TokenGreater      // >
	TokenGreaterEqual // >= ≥
	TokenIn           // in ∈

	// Logical operators
	TokenAnd     // and ∧
	TokenOr      // or ∨
	TokenNot     // not ¬
	TokenImplies // implies →
	TokenIff     // iff ↔

	// Binders and control keywords
	TokenForall // forall ∀
	TokenExists // exists ∃
	TokenLambda // lambda λ
	TokenIf     // if
	TokenThen   // then
	TokenElse   // else
	TokenLet    // let
)

var tokenNames = [...]string{
	TokenEOF:          "(eof)",
	TokenError:        "(error)",
	TokenString:       "(string)",
	TokenNumber:       "(number)",
	TokenBoolean:      "(boolean)",
	TokenNull:         "(null)",
	TokenName:         "(name)",
	TokenBracketOpen:  "[",
	TokenBracketClose: "]",
	TokenBraceOpen:    "{",
	TokenBraceClose:   "}",
	TokenParenOpen:    "(",
	TokenParenClose:   ")",
	TokenComma:        ",",
	TokenColon:        ":",
	TokenSemicolon:    ";",
	TokenAssign:       "=",
	TokenArrow:        "=>",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenMult:         "*",
	TokenDiv:          "/",
	TokenMod:          "%",
	TokenEqual:        "==",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenIn:           "in",
	TokenAnd:          "and",
	TokenOr:           "or",
	TokenNot:          "not",
	TokenImplies:      "implies",
	TokenIff:          "iff",
	TokenForall:       "forall",
	TokenExists:       "exists",
	TokenLambda:       "lambda",
	TokenIf:           "if",
	TokenThen:         "then",
	TokenElse:         "else",
	TokenLet:          "let",
}

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	if int(tt) < len(tokenNames) && tokenNames[tt] != "" {
		return tokenNames[tt]
	}
	return "(unknown)"
}

// Token represents a lexical token.
type Token struct {
	Type     TokenType      // Type of the token
	Value    string         // Literal value of the token
	Position types.Position // Where the token starts
}

// symbols1 maps single-character ASCII symbols to token types.
var symbols1 = [...]TokenType{
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	'{': TokenBraceOpen,
	'}': TokenBraceClose,
	'(': TokenParenOpen,
	')': TokenParenClose,
	',': TokenComma,
	';': TokenSemicolon,
	':': TokenColon,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'%': TokenMod,
	'=': TokenAssign,
	'<': TokenLess,
	'>': TokenGreater,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'!': {{'=', TokenNotEqual}},
	'<': {{'=', TokenLessEqual}},
	'>': {{'=', TokenGreaterEqual}},
	'=': {{'=', TokenEqual}, {'>', TokenArrow}},
}

// symbolsUnicode maps the symbolic notation to token types.
var symbolsUnicode = map[rune]TokenType{
	'∀': TokenForall,
	'∃': TokenExists,
	'∧': TokenAnd,
	'∨': TokenOr,
	'¬': TokenNot,
	'→': TokenImplies,
	'↔': TokenIff,
	'∈': TokenIn,
	'≠': TokenNotEqual,
	'≤': TokenLessEqual,
	'≥': TokenGreaterEqual,
	'λ': TokenLambda,
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return symbolsUnicode[r]
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a keyword.
// Returns 0 if the string is not a recognized keyword.
func lookupKeyword(s string) TokenType {
	switch s {
	case "and":
		return TokenAnd
	case "or":
		return TokenOr
	case "not":
		return TokenNot
	case "implies":
		return TokenImplies
	case "iff":
		return TokenIff
	case "in":
		return TokenIn
	case "forall":
		return TokenForall
	case "exists":
		return TokenExists
	case "lambda":
		return TokenLambda
	case "if":
		return TokenIf
	case "then":
		return TokenThen
	case "else":
		return TokenElse
	case "let":
		return TokenLet
	case "true", "false":
		return TokenBoolean
	case "null":
		return TokenNull
	default:
		return 0
	}
}
