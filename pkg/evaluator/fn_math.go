package evaluator

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// maxIntegerExponent bounds math.power on integers.
const maxIntegerExponent = 1 << 16

func mathFunctions() []functions.Definition {
	binary := func(name string, op types.Operator, desc string) functions.Definition {
		return functions.Definition{
			Name:        name,
			Params:      []types.ParamKind{types.ParamNumber, types.ParamNumber},
			Returns:     types.ParamNumber,
			Description: desc,
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				a, err := functions.Number(name, args, 0)
				if err != nil {
					return nil, err
				}
				b, err := functions.Number(name, args, 1)
				if err != nil {
					return nil, err
				}
				return numeric(op, a, b)
			},
		}
	}

	return []functions.Definition{
		binary("math.add", types.OpAdd, "Sum of two numbers"),
		binary("math.subtract", types.OpSub, "Difference of two numbers"),
		binary("math.multiply", types.OpMul, "Product of two numbers"),
		binary("math.divide", types.OpDiv, "Quotient; integer division truncating toward zero for integers"),
		binary("math.modulo", types.OpMod, "Remainder of the truncating division"),
		{
			Name:        "math.power",
			Params:      []types.ParamKind{types.ParamNumber, types.ParamNumber},
			Returns:     types.ParamNumber,
			Description: "Base raised to exponent; exact for an integer base and a non-negative integer exponent",
			Pure:        true,
			Fn:          fnPower,
		},
		{
			Name:        "math.abs",
			Params:      []types.ParamKind{types.ParamNumber},
			Returns:     types.ParamNumber,
			Description: "Absolute value",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				v, err := functions.Number("math.abs", args, 0)
				if err != nil {
					return nil, err
				}
				if n, ok := v.(types.IntegerValue); ok {
					return types.NewBigInt(new(big.Int).Abs(n.Big())), nil
				}
				f, _ := types.AsNumber(v)
				return types.NewFloat(math.Abs(f)), nil
			},
		},
		{
			Name:        "math.negate",
			Params:      []types.ParamKind{types.ParamNumber},
			Returns:     types.ParamNumber,
			Description: "Additive inverse",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				v, err := functions.Number("math.negate", args, 0)
				if err != nil {
					return nil, err
				}
				return numeric(types.OpSub, types.NewInt(0), v)
			},
		},
		extremum("math.min", -1, "Smallest of the arguments"),
		extremum("math.max", 1, "Largest of the arguments"),
	}
}

// extremum builds min (sign -1) or max (sign 1) over one or more numbers.
func extremum(name string, sign int, desc string) functions.Definition {
	return functions.Definition{
		Name:        name,
		Params:      []types.ParamKind{types.ParamNumber},
		Variadic:    true,
		Returns:     types.ParamNumber,
		Description: desc,
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			best, err := functions.Number(name, args, 0)
			if err != nil {
				return nil, err
			}
			for i := 1; i < len(args); i++ {
				v, err := functions.Number(name, args, i)
				if err != nil {
					return nil, err
				}
				if types.Compare(v, best)*sign > 0 {
					best = v
				}
			}
			return best, nil
		},
	}
}

func fnPower(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
	base, err := functions.Number("math.power", args, 0)
	if err != nil {
		return nil, err
	}
	exp, err := functions.Number("math.power", args, 1)
	if err != nil {
		return nil, err
	}

	b, bok := base.(types.IntegerValue)
	x, xok := exp.(types.IntegerValue)
	if bok && xok && x.Big().Sign() >= 0 {
		if x.Big().Cmp(big.NewInt(maxIntegerExponent)) > 0 {
			return nil, fmt.Errorf("exponent %s exceeds %d", x.Big(), maxIntegerExponent)
		}
		return types.NewBigInt(new(big.Int).Exp(b.Big(), x.Big(), nil)), nil
	}

	fb, _ := types.AsNumber(base)
	fx, _ := types.AsNumber(exp)
	out := math.Pow(fb, fx)
	if math.IsInf(out, 0) || math.IsNaN(out) {
		return nil, fmt.Errorf("result of %s ^ %s is not a finite number", base, exp)
	}
	return types.NewFloat(out), nil
}
