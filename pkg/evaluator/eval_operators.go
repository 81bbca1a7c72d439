package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/sandrolain/gologic/pkg/types"
)

// evalBinary evaluates a binary operation. The logical connectives
// short-circuit; every other operator evaluates both operands left to right.
func (e *Evaluator) evalBinary(ctx context.Context, n *types.BinaryOp, c *EvalContext) (types.Value, error) {
	switch n.Op {
	case types.OpAnd, types.OpOr, types.OpImplies:
		return e.evalLogical(ctx, n, c)
	}

	left, err := e.evalNode(ctx, n.Left, c)
	if err != nil {
		return nil, err
	}
	right, err := e.evalNode(ctx, n.Right, c)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case types.OpAdd, types.OpSub, types.OpMul, types.OpDiv, types.OpMod:
		return arithmetic(n.Op, left, right, n.Position)
	case types.OpEq:
		return types.NewBool(types.Equal(left, right)), nil
	case types.OpNe:
		return types.NewBool(!types.Equal(left, right)), nil
	case types.OpLt, types.OpLe, types.OpGt, types.OpGe:
		return compare(n.Op, left, right, n.Position)
	case types.OpIn:
		return membership(left, right, n.Position)
	case types.OpIff:
		l, r, err := booleans(n.Op, left, right, n.Position)
		if err != nil {
			return nil, err
		}
		return types.NewBool(l == r), nil
	default:
		return nil, types.NewEvaluationError(n.Position, "unsupported operator %q", n.Op)
	}
}

// evalLogical evaluates and, or and implies. The right operand is only
// evaluated when the left one does not decide the result.
func (e *Evaluator) evalLogical(ctx context.Context, n *types.BinaryOp, c *EvalContext) (types.Value, error) {
	left, err := e.evalNode(ctx, n.Left, c)
	if err != nil {
		return nil, err
	}
	l, ok := types.Truth(left)
	if !ok {
		return nil, mismatch(n.Op, "boolean", left, n.Left.Pos())
	}

	switch {
	case n.Op == types.OpAnd && !l:
		return types.False, nil
	case n.Op == types.OpOr && l:
		return types.True, nil
	case n.Op == types.OpImplies && !l:
		return types.True, nil
	}

	right, err := e.evalNode(ctx, n.Right, c)
	if err != nil {
		return nil, err
	}
	if _, ok := types.Truth(right); !ok {
		return nil, mismatch(n.Op, "boolean", right, n.Right.Pos())
	}
	return right, nil
}

func (e *Evaluator) evalUnary(ctx context.Context, n *types.UnaryOp, c *EvalContext) (types.Value, error) {
	v, err := e.evalNode(ctx, n.Operand, c)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case types.OpNot:
		b, ok := types.Truth(v)
		if !ok {
			return nil, mismatch(n.Op, "boolean", v, n.Position)
		}
		return types.NewBool(!b), nil
	case types.OpNeg:
		switch x := v.(type) {
		case types.IntegerValue:
			return types.NewBigInt(new(big.Int).Neg(x.Big())), nil
		case types.FloatValue:
			return types.NewFloat(-x.Float()), nil
		}
		return nil, mismatch(n.Op, "number", v, n.Position)
	default:
		return nil, types.NewEvaluationError(n.Position, "unsupported operator %q", n.Op)
	}
}

func mismatch(op types.Operator, expected string, got types.Value, pos types.Position) error {
	return &types.TypeMismatchError{Operator: string(op), Expected: expected, Got: got.Kind(), Position: pos}
}

func booleans(op types.Operator, left, right types.Value, pos types.Position) (bool, bool, error) {
	l, ok := types.Truth(left)
	if !ok {
		return false, false, mismatch(op, "boolean", left, pos)
	}
	r, ok := types.Truth(right)
	if !ok {
		return false, false, mismatch(op, "boolean", right, pos)
	}
	return l, r, nil
}

// ErrDivisionByZero reports a division or remainder by zero.
var ErrDivisionByZero = errors.New("division by zero")

// arithmetic applies + - * / %. + also concatenates two strings or two
// collections; the other cases are handled by numeric.
func arithmetic(op types.Operator, left, right types.Value, pos types.Position) (types.Value, error) {
	if op == types.OpAdd {
		switch l := left.(type) {
		case types.StringValue:
			if r, ok := right.(types.StringValue); ok {
				return types.NewString(l.Str() + r.Str()), nil
			}
		case types.CollectionValue:
			if r, ok := right.(types.CollectionValue); ok {
				return types.NewCollection(append(l.Items(), r.Items()...)...), nil
			}
		}
	}

	if !types.IsNumber(left) {
		return nil, mismatch(op, "number", left, pos)
	}
	if !types.IsNumber(right) {
		return nil, mismatch(op, "number", right, pos)
	}
	v, err := numeric(op, left, right)
	if err != nil {
		return nil, &types.EvaluationError{Message: string(op), Position: pos, Err: err}
	}
	return v, nil
}

// numeric applies an arithmetic operator to two numbers. Two integers give
// an integer: division truncates toward zero and % is the matching
// remainder. A float operand promotes the operation to float.
func numeric(op types.Operator, left, right types.Value) (types.Value, error) {
	li, lok := left.(types.IntegerValue)
	ri, rok := right.(types.IntegerValue)
	if lok && rok {
		return integerArithmetic(op, li.Big(), ri.Big())
	}

	l, _ := types.AsNumber(left)
	r, _ := types.AsNumber(right)
	var out float64
	switch op {
	case types.OpAdd:
		out = l + r
	case types.OpSub:
		out = l - r
	case types.OpMul:
		out = l * r
	case types.OpDiv:
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		out = l / r
	case types.OpMod:
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		out = math.Mod(l, r)
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
	if math.IsInf(out, 0) || math.IsNaN(out) {
		return nil, fmt.Errorf("float overflow")
	}
	return types.NewFloat(out), nil
}

func integerArithmetic(op types.Operator, l, r *big.Int) (types.Value, error) {
	out := new(big.Int)
	switch op {
	case types.OpAdd:
		out.Add(l, r)
	case types.OpSub:
		out.Sub(l, r)
	case types.OpMul:
		out.Mul(l, r)
	case types.OpDiv:
		if r.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		out.Quo(l, r)
	case types.OpMod:
		if r.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		out.Rem(l, r)
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
	return types.NewBigInt(out), nil
}

// compare orders two numbers or two strings.
func compare(op types.Operator, left, right types.Value, pos types.Position) (types.Value, error) {
	ordered := (types.IsNumber(left) && types.IsNumber(right)) ||
		(left.Kind() == types.KindString && right.Kind() == types.KindString)
	if !ordered {
		got := right
		if !types.IsNumber(left) && left.Kind() != types.KindString {
			got = left
		}
		return nil, mismatch(op, "two numbers or two strings", got, pos)
	}
	cmp := types.Compare(left, right)
	switch op {
	case types.OpLt:
		return types.NewBool(cmp < 0), nil
	case types.OpLe:
		return types.NewBool(cmp <= 0), nil
	case types.OpGt:
		return types.NewBool(cmp > 0), nil
	default:
		return types.NewBool(cmp >= 0), nil
	}
}

// membership implements in: element of a collection, substring of a
// string, or key of an object.
func membership(item, container types.Value, pos types.Position) (types.Value, error) {
	switch c := container.(type) {
	case types.CollectionValue:
		for i := 0; i < c.Len(); i++ {
			if types.Equal(item, c.At(i)) {
				return types.True, nil
			}
		}
		return types.False, nil
	case types.StringValue:
		s, ok := item.(types.StringValue)
		if !ok {
			return nil, mismatch(types.OpIn, "string", item, pos)
		}
		return types.NewBool(strings.Contains(c.Str(), s.Str())), nil
	case types.ObjectValue:
		s, ok := item.(types.StringValue)
		if !ok {
			return nil, mismatch(types.OpIn, "string key", item, pos)
		}
		_, found := c.Get(s.Str())
		return types.NewBool(found), nil
	default:
		return nil, mismatch(types.OpIn, "collection, string or object", container, pos)
	}
}
