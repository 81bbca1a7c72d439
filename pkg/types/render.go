package types

import (
	"strconv"
	"strings"
	"unicode"
)

// Render returns the canonical textual rendering of n. Parsing the result
// yields a tree that is Equivalent to n, and rendering that tree again
// reproduces the same text; Gödel encoding and cache keys rely on both.
func Render(n Node) string {
	var b strings.Builder
	r := renderer{b: &b}
	r.node(n)
	return b.String()
}

// RenderSymbolic renders n using the symbolic notation (∀, ∃, ∧, ∨, ¬, →, λ).
func RenderSymbolic(n Node) string {
	var b strings.Builder
	r := renderer{b: &b, symbolic: true}
	r.node(n)
	return b.String()
}

type renderer struct {
	b        *strings.Builder
	symbolic bool
}

func (r renderer) write(s string) { r.b.WriteString(s) }

func (r renderer) op(op Operator) string {
	if r.symbolic {
		return op.Symbol()
	}
	return string(op)
}

// compound reports whether n must be parenthesised when it appears as an
// operator operand or a quantifier domain.
func compound(n Node) bool {
	switch n.(type) {
	case *BinaryOp, *UnaryOp, *Quantifier, *Conditional, *Lambda, *Let:
		return true
	}
	return false
}

func (r renderer) operand(n Node) {
	if compound(n) {
		r.write("(")
		r.node(n)
		r.write(")")
		return
	}
	r.node(n)
}

func (r renderer) node(n Node) {
	switch n := n.(type) {
	case *Program:
		for i, s := range n.Statements {
			if i > 0 {
				r.write("; ")
			}
			r.node(s)
		}
	case *Statement:
		switch n.Kind {
		case StmtLet:
			r.write("let " + n.Name + " = ")
			r.operand(n.Body)
		case StmtTest:
			r.write("test " + strconv.Quote(n.Name) + ": ")
			r.node(n.Body)
		default:
			r.node(n.Body)
		}
	case *Expression:
		r.write("(")
		r.node(n.Inner)
		r.write(")")
	case *BinaryOp:
		r.operand(n.Left)
		r.write(" " + r.op(n.Op) + " ")
		r.operand(n.Right)
	case *UnaryOp:
		if n.Op == OpNot {
			if r.symbolic {
				r.write("¬")
			} else {
				r.write("not ")
			}
			r.operand(n.Operand)
			return
		}
		r.write("-")
		if lit, ok := n.Operand.(*Literal); ok && IsNumber(lit.Value) {
			// "-5" would read back as a negative literal.
			r.write("(")
			r.node(lit)
			r.write(")")
			return
		}
		r.operand(n.Operand)
	case *FunctionCall:
		r.write(n.Name + "(")
		for i, a := range n.Args {
			if i > 0 {
				r.write(", ")
			}
			r.node(a)
		}
		r.write(")")
	case *Quantifier:
		if r.symbolic {
			if n.Kind == Forall {
				r.write("∀")
			} else {
				r.write("∃")
			}
			r.write(n.Variable + " ∈ ")
		} else {
			r.write(string(n.Kind) + " " + n.Variable + " in ")
		}
		r.operand(n.Domain)
		r.write(": ")
		r.node(n.Predicate)
	case *Conditional:
		r.write("if ")
		r.node(n.Test)
		r.write(" then ")
		r.node(n.Then)
		r.write(" else ")
		r.node(n.Else)
	case *Variable:
		r.write(n.Name)
	case *Literal:
		r.write(n.Value.String())
	case *Collection:
		r.write("[")
		for i, item := range n.Items {
			if i > 0 {
				r.write(", ")
			}
			r.node(item)
		}
		r.write("]")
	case *ObjectLiteral:
		r.write("{")
		for i, f := range n.Fields {
			if i > 0 {
				r.write(", ")
			}
			r.write(renderKey(f.Key) + ": ")
			r.node(f.Value)
		}
		r.write("}")
	case *Lambda:
		if r.symbolic {
			r.write("λ(")
		} else {
			r.write("lambda(")
		}
		r.write(strings.Join(n.Params, ", ") + ") => ")
		r.node(n.Body)
	case *Let:
		r.write("let " + n.Name + " = ")
		r.operand(n.Value)
		r.write(" in ")
		r.node(n.Body)
	}
}

// Keywords are the reserved words of the formula language.
var Keywords = map[string]bool{
	"forall": true, "exists": true, "in": true, "and": true, "or": true,
	"not": true, "implies": true, "iff": true, "if": true, "then": true,
	"else": true, "let": true, "lambda": true,
	"true": true, "false": true, "null": true,
}

// IsIdentifier reports whether s can be written as a bare object key.
func IsIdentifier(s string) bool {
	if s == "" || Keywords[s] {
		return false
	}
	for i, r := range s {
		if r == 'λ' {
			return false
		}
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

func renderKey(k string) string {
	if IsIdentifier(k) {
		return k
	}
	return strconv.Quote(k)
}
