package types

import "fmt"

// Position locates a node or token in the source text. Line and Column are
// 1-based; Column counts runes, not bytes.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Pos returns the position itself so that embedding Position satisfies the
// Pos method of Node.
func (p Position) Pos() Position { return p }

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is an AST node. The set of node types is closed (see the unexported
// marker); evaluation and rendering switch over the concrete types.
type Node interface {
	Pos() Position
	node()
}

// Operator names a binary or unary operator by its textual spelling.
type Operator string

const (
	OpAdd     Operator = "+"
	OpSub     Operator = "-"
	OpMul     Operator = "*"
	OpDiv     Operator = "/"
	OpMod     Operator = "%"
	OpEq      Operator = "=="
	OpNe      Operator = "!="
	OpLt      Operator = "<"
	OpLe      Operator = "<="
	OpGt      Operator = ">"
	OpGe      Operator = ">="
	OpIn      Operator = "in"
	OpAnd     Operator = "and"
	OpOr      Operator = "or"
	OpImplies Operator = "implies"
	OpIff     Operator = "iff"

	// Unary
	OpNot Operator = "not"
	OpNeg Operator = "neg"
)

// Symbol returns the symbolic spelling of op, or the textual one when the
// operator has no symbol.
func (op Operator) Symbol() string {
	switch op {
	case OpAnd:
		return "∧"
	case OpOr:
		return "∨"
	case OpImplies:
		return "→"
	case OpIff:
		return "↔"
	case OpNot:
		return "¬"
	case OpIn:
		return "∈"
	case OpNe:
		return "≠"
	case OpLe:
		return "≤"
	case OpGe:
		return "≥"
	case OpNeg:
		return "-"
	default:
		return string(op)
	}
}

// QuantifierKind distinguishes universal from existential quantification.
type QuantifierKind string

const (
	Forall QuantifierKind = "forall"
	Exists QuantifierKind = "exists"
)

// StatementKind distinguishes the statement forms of a program.
type StatementKind int

const (
	StmtExpression StatementKind = iota // expr;
	StmtLet                             // let name = expr;
	StmtTest                            // test "name": expr;
)

// Program is the root of a parsed source text.
type Program struct {
	Position
	Statements []*Statement
}

// Statement is a top-level program statement.
type Statement struct {
	Position
	Kind StatementKind
	Name string // bound variable for StmtLet, test name for StmtTest
	Body Node
}

// Expression is a parenthesised sub-expression. It has no semantics of its
// own; it exists so that rendering reproduces the source grouping.
type Expression struct {
	Position
	Inner Node
}

// BinaryOp applies Op to Left and Right.
type BinaryOp struct {
	Position
	Op          Operator
	Left, Right Node
}

// UnaryOp applies Op to Operand.
type UnaryOp struct {
	Position
	Op      Operator
	Operand Node
}

// FunctionCall invokes a registered builtin, or a callable value bound to
// Name, with Args.
type FunctionCall struct {
	Position
	Name string
	Args []Node
}

// Quantifier ranges Variable over the collection produced by Domain.
type Quantifier struct {
	Position
	Kind      QuantifierKind
	Variable  string
	Domain    Node
	Predicate Node
}

// Conditional evaluates exactly one of Then and Else depending on Test.
type Conditional struct {
	Position
	Test, Then, Else Node
}

// Variable references a binding by name. Dotted names may address fields of
// an object binding.
type Variable struct {
	Position
	Name string
}

// Literal is a constant value.
type Literal struct {
	Position
	Value Value
}

// Collection constructs a collection from Items in order.
type Collection struct {
	Position
	Items []Node
}

// ObjectField is one key/value pair of an ObjectLiteral.
type ObjectField struct {
	Key   string
	Value Node
}

// ObjectLiteral constructs an object.
type ObjectLiteral struct {
	Position
	Fields []ObjectField
}

// Lambda constructs a callable value.
type Lambda struct {
	Position
	Params []string
	Body   Node
}

// Let binds Name to Value while evaluating Body.
type Let struct {
	Position
	Name  string
	Value Node
	Body  Node
}

func (*Program) node()       {}
func (*Statement) node()     {}
func (*Expression) node()    {}
func (*BinaryOp) node()      {}
func (*UnaryOp) node()       {}
func (*FunctionCall) node()  {}
func (*Quantifier) node()    {}
func (*Conditional) node()   {}
func (*Variable) node()      {}
func (*Literal) node()       {}
func (*Collection) node()    {}
func (*ObjectLiteral) node() {}
func (*Lambda) node()        {}
func (*Let) node()           {}

// NodeName returns a short name for the node type, used in traces and logs.
func NodeName(n Node) string {
	switch n := n.(type) {
	case *Program:
		return "Program"
	case *Statement:
		return "Statement"
	case *Expression:
		return "Expression"
	case *BinaryOp:
		return "BinaryOp(" + string(n.Op) + ")"
	case *UnaryOp:
		return "UnaryOp(" + string(n.Op) + ")"
	case *FunctionCall:
		return "FunctionCall(" + n.Name + ")"
	case *Quantifier:
		return "Quantifier(" + string(n.Kind) + " " + n.Variable + ")"
	case *Conditional:
		return "Conditional"
	case *Variable:
		return "Variable(" + n.Name + ")"
	case *Literal:
		return "Literal(" + n.Value.String() + ")"
	case *Collection:
		return "Collection"
	case *ObjectLiteral:
		return "ObjectLiteral"
	case *Lambda:
		return "Lambda"
	case *Let:
		return "Let(" + n.Name + ")"
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%T", n)
	}
}

// Unwrap strips any Expression grouping around n.
func Unwrap(n Node) Node {
	for {
		g, ok := n.(*Expression)
		if !ok {
			return n
		}
		n = g.Inner
	}
}
