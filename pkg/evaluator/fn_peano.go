package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// ErrNoPredecessor reports peano.predecessor applied to zero.
var ErrNoPredecessor = errors.New("zero has no predecessor")

// natural returns argument i as a natural number.
func natural(fn string, args []types.Value, i int) (*big.Int, error) {
	n, err := functions.Int(fn, args, i)
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%s: argument %d is negative: %s", fn, i+1, n)
	}
	return n, nil
}

func peanoFunctions() []functions.Definition {
	one := big.NewInt(1)
	nat := []types.ParamKind{types.ParamInteger}
	nat2 := []types.ParamKind{types.ParamInteger, types.ParamInteger}

	return []functions.Definition{
		{
			Name:        "peano.zero",
			Returns:     types.ParamInteger,
			Description: "The natural number zero",
			Pure:        true,
			Fn: func(context.Context, []types.Value, functions.Scope) (types.Value, error) {
				return types.NewInt(0), nil
			},
		},
		{
			Name:        "peano.successor",
			Params:      nat,
			Returns:     types.ParamInteger,
			Description: "S(n) = n + 1",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				n, err := natural("peano.successor", args, 0)
				if err != nil {
					return nil, err
				}
				return types.NewBigInt(new(big.Int).Add(n, one)), nil
			},
		},
		{
			Name:        "peano.predecessor",
			Params:      nat,
			Returns:     types.ParamInteger,
			Description: "P(S(n)) = n; undefined at zero",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				n, err := natural("peano.predecessor", args, 0)
				if err != nil {
					return nil, err
				}
				if n.Sign() == 0 {
					return nil, ErrNoPredecessor
				}
				return types.NewBigInt(new(big.Int).Sub(n, one)), nil
			},
		},
		{
			Name:        "peano.is_zero",
			Params:      nat,
			Returns:     types.ParamBoolean,
			Description: "Reports whether n is zero",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				n, err := natural("peano.is_zero", args, 0)
				if err != nil {
					return nil, err
				}
				return types.NewBool(n.Sign() == 0), nil
			},
		},
		{
			Name:        "peano.add",
			Params:      nat2,
			Returns:     types.ParamInteger,
			Description: "Sum of two natural numbers",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				a, b, err := naturals("peano.add", args)
				if err != nil {
					return nil, err
				}
				return types.NewBigInt(new(big.Int).Add(a, b)), nil
			},
		},
		{
			Name:        "peano.multiply",
			Params:      nat2,
			Returns:     types.ParamInteger,
			Description: "Product of two natural numbers",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				a, b, err := naturals("peano.multiply", args)
				if err != nil {
					return nil, err
				}
				return types.NewBigInt(new(big.Int).Mul(a, b)), nil
			},
		},
	}
}

func naturals(fn string, args []types.Value) (*big.Int, *big.Int, error) {
	a, err := natural(fn, args, 0)
	if err != nil {
		return nil, nil, err
	}
	b, err := natural(fn, args, 1)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
