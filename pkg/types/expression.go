// Package types defines the core type system for gologic.
//
// This package contains type definitions for:
//   - Value: immutable runtime values (seven kinds)
//   - Node: the abstract syntax tree of the formula language
//   - Compiled: a parsed program paired with its source
//   - Error types: structured errors with codes
//
// It also holds the pure tree utilities shared by the parser and the
// evaluator: canonical rendering, structural equivalence, free-variable
// analysis and substitution.
package types

// Compiled is a parsed program together with the text it came from.
//
// A Compiled program can be evaluated many times against different contexts.
// It is safe for concurrent use by multiple goroutines because the tree is
// never mutated after parsing.
type Compiled struct {
	program *Program
	source  string
}

// NewCompiled pairs a program with its source.
func NewCompiled(program *Program, source string) *Compiled {
	return &Compiled{
		program: program,
		source:  source,
	}
}

// Program returns the parsed tree.
func (c *Compiled) Program() *Program {
	return c.program
}

// Source returns the original source text.
func (c *Compiled) Source() string {
	return c.source
}

// Canonical returns the canonical rendering of the program.
func (c *Compiled) Canonical() string {
	return Render(c.program)
}

// String returns the original source text.
func (c *Compiled) String() string {
	return c.source
}
