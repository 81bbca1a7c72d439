package types

import (
	"fmt"
	"strings"
)

// ErrorCode classifies a runtime or parse error.
type ErrorCode string

// Error codes. The leading letter names the failing layer.
const (
	// S0xxx: Parser/Syntax errors
	ErrStringNotClosed   ErrorCode = "S0101"
	ErrNumberOutOfRange  ErrorCode = "S0102"
	ErrUnsupportedEscape ErrorCode = "S0103"
	ErrUnexpectedEnd     ErrorCode = "S0104"
	ErrUnexpectedChar    ErrorCode = "S0105"
	ErrSyntaxError       ErrorCode = "S0201"
	ErrExpectedToken     ErrorCode = "S0202"
	ErrNestingTooDeep    ErrorCode = "S0203"

	// T0xxx: Type errors
	ErrArgumentCountMismatch ErrorCode = "T0410"
	ErrInvalidTypeOperation  ErrorCode = "T1003"

	// D0xxx: Evaluation errors
	ErrEvaluation ErrorCode = "D0001"

	// U1xxx: Name resolution errors
	ErrUndefinedVariable ErrorCode = "U1001"
	ErrUndefinedFunction ErrorCode = "U1002"
	ErrDuplicateFunction ErrorCode = "U1003"

	// Q0xxx: Quantifier outcomes
	ErrForallViolation ErrorCode = "Q0001"

	// F0xxx: Fixpoint errors
	ErrFixpointDivergence ErrorCode = "F0001"
)

// Coded is implemented by every error type in this package.
type Coded interface {
	error
	ErrorCode() ErrorCode
}

// ParseError reports malformed source. The parser never returns a partial
// tree alongside it.
type ParseError struct {
	Code    ErrorCode
	Message string
	Line    int
	Column  int
	Offset  int
}

// NewParseError creates a parse error at pos.
func NewParseError(code ErrorCode, pos Position, format string, args ...any) *ParseError {
	return &ParseError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Column:  pos.Column,
		Offset:  pos.Offset,
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.Code, e.Line, e.Column, e.Message)
}

// ErrorCode implements Coded.
func (e *ParseError) ErrorCode() ErrorCode { return e.Code }

// UnboundVariableError reports a lookup of a name bound nowhere in scope.
type UnboundVariableError struct {
	Name     string
	Position Position
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("%s: unbound variable %q", ErrUndefinedVariable, e.Name)
}

// ErrorCode implements Coded.
func (*UnboundVariableError) ErrorCode() ErrorCode { return ErrUndefinedVariable }

// UnknownFunctionError reports a call to a name that is neither registered
// nor bound to a callable value.
type UnknownFunctionError struct {
	Name     string
	Position Position
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("%s: unknown function %q", ErrUndefinedFunction, e.Name)
}

// ErrorCode implements Coded.
func (*UnknownFunctionError) ErrorCode() ErrorCode { return ErrUndefinedFunction }

// DuplicateFunctionError reports a second registration under the same name.
type DuplicateFunctionError struct {
	Name string
}

func (e *DuplicateFunctionError) Error() string {
	return fmt.Sprintf("%s: function %q already registered", ErrDuplicateFunction, e.Name)
}

// ErrorCode implements Coded.
func (*DuplicateFunctionError) ErrorCode() ErrorCode { return ErrDuplicateFunction }

// ArityError reports a call with the wrong number of arguments.
type ArityError struct {
	Function string
	Min, Max int // Max < 0 means variadic
	Got      int
}

func (e *ArityError) Error() string {
	var want string
	switch {
	case e.Max < 0:
		want = fmt.Sprintf("at least %d", e.Min)
	case e.Min == e.Max:
		want = fmt.Sprintf("%d", e.Min)
	default:
		want = fmt.Sprintf("%d to %d", e.Min, e.Max)
	}
	return fmt.Sprintf("%s: %s expects %s argument(s), got %d", ErrArgumentCountMismatch, e.Function, want, e.Got)
}

// ErrorCode implements Coded.
func (*ArityError) ErrorCode() ErrorCode { return ErrArgumentCountMismatch }

// TypeMismatchError reports an operand or argument of the wrong kind.
// Operator is an operator spelling, a function name or a construct such as
// "forall" or "if".
type TypeMismatchError struct {
	Operator string
	Expected string
	Got      Kind
	Position Position
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s expects %s, got %s", ErrInvalidTypeOperation, e.Operator, e.Expected, e.Got)
}

// ErrorCode implements Coded.
func (*TypeMismatchError) ErrorCode() ErrorCode { return ErrInvalidTypeOperation }

// ForallViolation records a universally quantified predicate that failed.
// It is both an error and the payload of evaluation reports.
type ForallViolation struct {
	Variable        string
	Counterexamples []Value
	Message         string
	Position        Position
}

func (e *ForallViolation) Error() string {
	parts := make([]string, len(e.Counterexamples))
	for i, c := range e.Counterexamples {
		parts[i] = c.String()
	}
	msg := fmt.Sprintf("%s: forall %s failed for %s", ErrForallViolation, e.Variable, strings.Join(parts, ", "))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// ErrorCode implements Coded.
func (*ForallViolation) ErrorCode() ErrorCode { return ErrForallViolation }

// FixpointDivergenceError reports an iteration that did not stabilise within
// its limit.
type FixpointDivergenceError struct {
	Operator   string
	Iterations int
	Last       Value
}

func (e *FixpointDivergenceError) Error() string {
	last := "null"
	if e.Last != nil {
		last = e.Last.String()
	}
	return fmt.Sprintf("%s: %s did not converge after %d iterations (last %s)", ErrFixpointDivergence, e.Operator, e.Iterations, last)
}

// ErrorCode implements Coded.
func (*FixpointDivergenceError) ErrorCode() ErrorCode { return ErrFixpointDivergence }

// EvaluationError wraps a failure raised while evaluating. When a builtin
// fails, Function and Args identify the call.
type EvaluationError struct {
	Function string
	Args     []Value
	Message  string
	Position Position
	Err      error
}

// NewEvaluationError creates an evaluation error without an underlying cause.
func NewEvaluationError(pos Position, format string, args ...any) *EvaluationError {
	return &EvaluationError{Message: fmt.Sprintf(format, args...), Position: pos}
}

func (e *EvaluationError) Error() string {
	var b strings.Builder
	b.WriteString(string(ErrEvaluation))
	if e.Position.Line > 0 {
		fmt.Fprintf(&b, " at %s", e.Position)
	}
	b.WriteString(": ")
	if e.Function != "" {
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
		}
		fmt.Fprintf(&b, "%s(%s): ", e.Function, strings.Join(parts, ", "))
	}
	switch {
	case e.Message != "" && e.Err != nil:
		b.WriteString(e.Message + ": " + e.Err.Error())
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// ErrorCode implements Coded.
func (*EvaluationError) ErrorCode() ErrorCode { return ErrEvaluation }
