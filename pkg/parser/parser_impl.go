package parser

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/sandrolain/gologic/pkg/types"
)

// Parser implements a recursive descent parser for the formula language.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
	opts    CompileOptions
	depth   int
	noIn    bool // while parsing a let value, "in" ends the value
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// ParseProgram parses the whole input as a sequence of statements.
func (p *Parser) ParseProgram() (*types.Program, error) {
	prog := &types.Program{Position: p.current.Position}
	for {
		for p.current.Type == TokenSemicolon {
			p.advance()
		}
		if p.current.Type == TokenEOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
		if p.current.Type == TokenSemicolon {
			continue
		}
		if p.current.Type != TokenEOF {
			return nil, p.error(types.ErrSyntaxError, "Unexpected token: %s", p.describe())
		}
	}
	if len(prog.Statements) == 0 {
		return nil, p.error(types.ErrSyntaxError, "Empty program")
	}
	return prog, nil
}

// ParseExpression parses the whole input as a single expression.
func (p *Parser) ParseExpression() (types.Node, error) {
	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrSyntaxError, "Empty expression")
	}
	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.error(types.ErrSyntaxError, "Unexpected token: %s", p.describe())
	}
	return node, nil
}

// Operator precedence table (binding power)
// Higher values bind more tightly
var precedence = map[TokenType]int{
	TokenIff:          10, // iff ↔
	TokenImplies:      15, // implies → (right associative)
	TokenOr:           20, // or ∨
	TokenAnd:          30, // and ∧
	TokenEqual:        40, // ==
	TokenNotEqual:     40, // != ≠
	TokenLess:         40, // <
	TokenLessEqual:    40, // <= ≤
	TokenGreater:      40, // >
	TokenGreaterEqual: 40, // >= ≥
	TokenIn:           40, // in ∈
	TokenPlus:         50, // +
	TokenMinus:        50, // -
	TokenMult:         60, // *
	TokenDiv:          60, // /
	TokenMod:          60, // %
}

// Prefix binding powers.
const (
	precNot    = 35
	precNegate = 70
)

var binaryOps = map[TokenType]types.Operator{
	TokenIff:          types.OpIff,
	TokenImplies:      types.OpImplies,
	TokenOr:           types.OpOr,
	TokenAnd:          types.OpAnd,
	TokenEqual:        types.OpEq,
	TokenNotEqual:     types.OpNe,
	TokenLess:         types.OpLt,
	TokenLessEqual:    types.OpLe,
	TokenGreater:      types.OpGt,
	TokenGreaterEqual: types.OpGe,
	TokenIn:           types.OpIn,
	TokenPlus:         types.OpAdd,
	TokenMinus:        types.OpSub,
	TokenMult:         types.OpMul,
	TokenDiv:          types.OpDiv,
	TokenMod:          types.OpMod,
}

// getPrecedence returns the infix precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if tt == TokenIn && p.noIn {
		return 0
	}
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// peek returns the token after the current one without consuming it.
func (p *Parser) peek() Token {
	saved := *p.lexer
	t := p.lexer.Next()
	*p.lexer = saved
	return t
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) (Token, error) {
	if p.current.Type != tt {
		return Token{}, p.error(types.ErrExpectedToken, "Expected %s but got %s", tt.String(), p.describe())
	}
	t := p.current
	p.advance()
	return t, nil
}

func (p *Parser) describe() string {
	switch p.current.Type {
	case TokenEOF:
		return "end of input"
	case TokenName, TokenString, TokenNumber:
		return strconv.Quote(p.current.Value)
	}
	return p.current.Type.String()
}

// error creates a parser error at the current token. A pending lexer error
// takes precedence because it explains the bad token.
func (p *Parser) error(code types.ErrorCode, format string, args ...any) error {
	if p.current.Type == TokenError {
		if err := p.lexer.Error(); err != nil {
			return err
		}
	}
	if p.current.Type == TokenEOF && code == types.ErrSyntaxError {
		code = types.ErrUnexpectedEnd
	}
	return types.NewParseError(code, p.current.Position, format, args...)
}

// withIn parses with "in" enabled as an operator regardless of context.
func (p *Parser) withIn(fn func() (types.Node, error)) (types.Node, error) {
	saved := p.noIn
	p.noIn = false
	defer func() { p.noIn = saved }()
	return fn()
}

func (p *Parser) parseStatement() (*types.Statement, error) {
	start := p.current
	switch {
	case start.Type == TokenName && start.Value == "test" && p.peek().Type == TokenString:
		p.advance()
		name, err := p.parseStringValue()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		body, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		return &types.Statement{Position: start.Position, Kind: types.StmtTest, Name: name, Body: body}, nil

	case start.Type == TokenLet:
		name, value, err := p.parseLetHead()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenIn {
			return &types.Statement{Position: start.Position, Kind: types.StmtLet, Name: name, Body: value}, nil
		}
		let, err := p.parseLetBody(start, name, value)
		if err != nil {
			return nil, err
		}
		return &types.Statement{Position: start.Position, Kind: types.StmtExpression, Body: let}, nil
	}

	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &types.Statement{Position: start.Position, Kind: types.StmtExpression, Body: body}, nil
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (types.Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrNestingTooDeep, "Expression nesting exceeds maximum depth %d", p.opts.MaxDepth)
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parseInfix parses a binary operator and its right operand.
func (p *Parser) parseInfix(left types.Node) (types.Node, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	p.advance()

	rbp := prec
	if op.Type == TokenImplies {
		rbp = prec - 1
	}
	right, err := p.parseExpression(rbp)
	if err != nil {
		return nil, err
	}
	return &types.BinaryOp{Position: op.Position, Op: binaryOps[op.Type], Left: left, Right: right}, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
// These are expressions that don't require a left-hand side.
func (p *Parser) parsePrefix() (types.Node, error) {
	token := p.current

	switch token.Type {
	case TokenString:
		s, err := p.parseStringValue()
		if err != nil {
			return nil, err
		}
		return &types.Literal{Position: token.Position, Value: types.NewString(s)}, nil
	case TokenNumber:
		v, err := p.parseNumberValue()
		if err != nil {
			return nil, err
		}
		return &types.Literal{Position: token.Position, Value: v}, nil
	case TokenBoolean:
		p.advance()
		return &types.Literal{Position: token.Position, Value: types.NewBool(token.Value == "true")}, nil
	case TokenNull:
		p.advance()
		return &types.Literal{Position: token.Position, Value: types.Null}, nil
	case TokenName:
		p.advance()
		if p.current.Type == TokenParenOpen {
			return p.parseCall(token)
		}
		return &types.Variable{Position: token.Position, Name: token.Value}, nil
	case TokenParenOpen:
		return p.parseGroup()
	case TokenBracketOpen:
		return p.parseCollection()
	case TokenBraceOpen:
		return p.parseObject()
	case TokenMinus:
		return p.parseUnaryMinus()
	case TokenNot:
		p.advance()
		operand, err := p.parseExpression(precNot)
		if err != nil {
			return nil, err
		}
		return &types.UnaryOp{Position: token.Position, Op: types.OpNot, Operand: operand}, nil
	case TokenForall, TokenExists:
		return p.parseQuantifier()
	case TokenIf:
		return p.parseConditional()
	case TokenLet:
		name, value, err := p.parseLetHead()
		if err != nil {
			return nil, err
		}
		return p.parseLetBody(token, name, value)
	case TokenLambda:
		return p.parseLambda()
	case TokenEOF:
		return nil, p.error(types.ErrUnexpectedEnd, "Unexpected end of input")
	default:
		return nil, p.error(types.ErrSyntaxError, "Unexpected token: %s", p.describe())
	}
}

func (p *Parser) parseStringValue() (string, error) {
	s, err := strconv.Unquote(p.current.Value)
	if err != nil {
		return "", p.error(types.ErrUnsupportedEscape, "Invalid string literal %s", p.current.Value)
	}
	p.advance()
	return s, nil
}

func (p *Parser) parseNumberValue() (types.Value, error) {
	text := p.current.Value
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
				return nil, p.error(types.ErrNumberOutOfRange, "Number out of range: %s", text)
			}
			return nil, p.error(types.ErrSyntaxError, "Invalid number: %s", text)
		}
		p.advance()
		return types.NewFloat(f), nil
	}
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, p.error(types.ErrSyntaxError, "Invalid number: %s", text)
	}
	p.advance()
	return types.NewBigInt(n), nil
}

// parseUnaryMinus folds a minus directly applied to a number literal into a
// negative literal; anything else becomes a negation node.
func (p *Parser) parseUnaryMinus() (types.Node, error) {
	minus := p.current
	p.advance()

	if p.current.Type == TokenNumber {
		v, err := p.parseNumberValue()
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case types.IntegerValue:
			v = types.NewBigInt(new(big.Int).Neg(n.Big()))
		case types.FloatValue:
			v = types.NewFloat(-n.Float())
		}
		return &types.Literal{Position: minus.Position, Value: v}, nil
	}

	operand, err := p.parseExpression(precNegate)
	if err != nil {
		return nil, err
	}
	return &types.UnaryOp{Position: minus.Position, Op: types.OpNeg, Operand: operand}, nil
}

func (p *Parser) parseGroup() (types.Node, error) {
	open := p.current
	p.advance()
	inner, err := p.withIn(func() (types.Node, error) { return p.parseExpression(0) })
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return &types.Expression{Position: open.Position, Inner: inner}, nil
}

// parseList parses comma-separated expressions up to the closing token.
// The opening token has already been consumed.
func (p *Parser) parseList(closing TokenType) ([]types.Node, error) {
	var items []types.Node
	if p.current.Type == closing {
		p.advance()
		return items, nil
	}
	for {
		item, err := p.withIn(func() (types.Node, error) { return p.parseExpression(0) })
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.current.Type == TokenComma {
			p.advance()
			continue
		}
		if _, err := p.expect(closing); err != nil {
			return nil, err
		}
		return items, nil
	}
}

func (p *Parser) parseCall(name Token) (types.Node, error) {
	p.advance() // (
	args, err := p.parseList(TokenParenClose)
	if err != nil {
		return nil, err
	}
	return &types.FunctionCall{Position: name.Position, Name: name.Value, Args: args}, nil
}

func (p *Parser) parseCollection() (types.Node, error) {
	open := p.current
	p.advance()
	items, err := p.parseList(TokenBracketClose)
	if err != nil {
		return nil, err
	}
	return &types.Collection{Position: open.Position, Items: items}, nil
}

func (p *Parser) parseObject() (types.Node, error) {
	open := p.current
	p.advance()
	obj := &types.ObjectLiteral{Position: open.Position}
	if p.current.Type == TokenBraceClose {
		p.advance()
		return obj, nil
	}
	seen := map[string]bool{}
	for {
		var key string
		switch {
		case p.current.Type == TokenString:
			s, err := p.parseStringValue()
			if err != nil {
				return nil, err
			}
			key = s
		case p.current.Type == TokenName && !strings.Contains(p.current.Value, "."):
			key = p.current.Value
			p.advance()
		default:
			return nil, p.error(types.ErrExpectedToken, "Expected object key but got %s", p.describe())
		}
		if seen[key] {
			return nil, types.NewParseError(types.ErrSyntaxError, p.prev.Position, "Duplicate object key %q", key)
		}
		seen[key] = true

		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.withIn(func() (types.Node, error) { return p.parseExpression(0) })
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, types.ObjectField{Key: key, Value: value})

		if p.current.Type == TokenComma {
			p.advance()
			continue
		}
		if _, err := p.expect(TokenBraceClose); err != nil {
			return nil, err
		}
		return obj, nil
	}
}

// parseBinder reads a plain (undotted) name introduced by a binder.
func (p *Parser) parseBinder() (string, error) {
	if p.current.Type != TokenName {
		return "", p.error(types.ErrExpectedToken, "Expected variable name but got %s", p.describe())
	}
	if strings.Contains(p.current.Value, ".") {
		return "", p.error(types.ErrSyntaxError, "Bound variable %q must not contain '.'", p.current.Value)
	}
	name := p.current.Value
	p.advance()
	return name, nil
}

// parseQuantifier parses "forall x in domain: predicate". The separator
// may be ':' or ','.
func (p *Parser) parseQuantifier() (types.Node, error) {
	tok := p.current
	p.advance()

	kind := types.Forall
	if tok.Type == TokenExists {
		kind = types.Exists
	}
	variable, err := p.parseBinder()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenIn); err != nil {
		return nil, err
	}
	domain, err := p.withIn(func() (types.Node, error) { return p.parseExpression(0) })
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenColon && p.current.Type != TokenComma {
		return nil, p.error(types.ErrExpectedToken, "Expected ':' after quantifier domain but got %s", p.describe())
	}
	p.advance()
	predicate, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &types.Quantifier{
		Position:  tok.Position,
		Kind:      kind,
		Variable:  variable,
		Domain:    domain,
		Predicate: predicate,
	}, nil
}

func (p *Parser) parseConditional() (types.Node, error) {
	tok := p.current
	p.advance()

	test, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenThen); err != nil {
		return nil, err
	}
	then, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenElse); err != nil {
		return nil, err
	}
	els, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &types.Conditional{Position: tok.Position, Test: test, Then: then, Else: els}, nil
}

// parseLetHead parses "let name = value", leaving "in" unconsumed.
func (p *Parser) parseLetHead() (string, types.Node, error) {
	p.advance() // let
	name, err := p.parseBinder()
	if err != nil {
		return "", nil, err
	}
	if _, err := p.expect(TokenAssign); err != nil {
		return "", nil, err
	}
	saved := p.noIn
	p.noIn = true
	value, err := p.parseExpression(0)
	p.noIn = saved
	if err != nil {
		return "", nil, err
	}
	return name, value, nil
}

func (p *Parser) parseLetBody(let Token, name string, value types.Node) (types.Node, error) {
	if _, err := p.expect(TokenIn); err != nil {
		return nil, err
	}
	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &types.Let{Position: let.Position, Name: name, Value: value, Body: body}, nil
}

// parseLambda parses "lambda(x, y) => body" or "λx => body".
func (p *Parser) parseLambda() (types.Node, error) {
	tok := p.current
	p.advance()

	var params []string
	if p.current.Type == TokenParenOpen {
		p.advance()
		for p.current.Type != TokenParenClose {
			name, err := p.parseBinder()
			if err != nil {
				return nil, err
			}
			params = append(params, name)
			if p.current.Type != TokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
	} else {
		name, err := p.parseBinder()
		if err != nil {
			return nil, err
		}
		params = []string{name}
	}

	seen := map[string]bool{}
	for _, name := range params {
		if seen[name] {
			return nil, types.NewParseError(types.ErrSyntaxError, tok.Position, "Duplicate parameter %q", name)
		}
		seen[name] = true
	}

	if _, err := p.expect(TokenArrow); err != nil {
		return nil, err
	}
	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &types.Lambda{Position: tok.Position, Params: params, Body: body}, nil
}
