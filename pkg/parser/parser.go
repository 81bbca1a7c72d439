// Package parser implements the parser for the gologic formula language.
//
// The parser is hand-written: a Pike-style lexer feeds a Pratt ("Top Down
// Operator Precedence") parser. Symbolic and textual notation are accepted
// interchangeably and produce identical trees.
//
// # Architecture
//
// The parser consists of two main components:
//   - Lexer: Tokenizes the source into a stream of tokens with line/column positions
//   - Parser: Builds the AST from tokens, failing with a *types.ParseError
//
// # Example
//
//	prog, err := parser.Parse(`forall x in [1, 2, 3]: x > 0`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(types.RenderSymbolic(prog))
package parser

import (
	"github.com/sandrolain/gologic/pkg/types"
)

// DefaultMaxDepth bounds expression nesting unless WithMaxDepth says otherwise.
const DefaultMaxDepth = 256

// Parse parses a program: one or more statements separated by ';'.
//
// On failure it returns a *types.ParseError carrying the line and column of
// the offending token, and never a partial tree.
//
// Example:
//
//	prog, err := parser.Parse("let n = 3; n + 1")
//	var perr *types.ParseError
//	if errors.As(err, &perr) {
//	    fmt.Printf("parse error at %d:%d\n", perr.Line, perr.Column)
//	}
func Parse(src string, opts ...CompileOption) (*types.Program, error) {
	p := NewParser(src, opts...)
	return p.ParseProgram()
}

// ParseExpression parses a single expression.
func ParseExpression(src string, opts ...CompileOption) (types.Node, error) {
	p := NewParser(src, opts...)
	return p.ParseExpression()
}

// Compile parses src and pairs the program with its source text.
func Compile(src string, opts ...CompileOption) (*types.Compiled, error) {
	prog, err := Parse(src, opts...)
	if err != nil {
		return nil, err
	}
	return types.NewCompiled(prog, src), nil
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits nesting to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
