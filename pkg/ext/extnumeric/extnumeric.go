// Package extnumeric provides numeric functions beyond the math builtins,
// under the math namespace, plus descriptive statistics under stats.
package extnumeric

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/sandrolain/gologic/pkg/ext/extutil"
	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// All returns all numeric and statistics function definitions.
func All() []functions.Definition {
	return []functions.Definition{
		Sign(),
		Trunc(),
		Clamp(),
		Log(),
		Sqrt(),
		mathFunc1("math.sin", "Sine of x radians", math.Sin),
		mathFunc1("math.cos", "Cosine of x radians", math.Cos),
		mathFunc1("math.tan", "Tangent of x radians", math.Tan),
		constant("math.pi", "The constant π", math.Pi),
		constant("math.e", "The constant e", math.E),
		Sum(),
		Mean(),
		Median(),
		Variance(),
		Stddev(),
		Percentile(),
		Mode(),
	}
}

var (
	errNotFinite = errors.New("value is not finite")
	errDomain    = errors.New("argument outside the function domain")
)

// Sign returns the definition for math.sign(n): -1, 0 or 1.
func Sign() functions.Definition {
	return functions.Definition{
		Name:        "math.sign",
		Params:      []types.ParamKind{types.ParamNumber},
		Returns:     types.ParamInteger,
		Description: "-1, 0 or 1 according to the sign of n",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			switch n := args[0].(type) {
			case types.IntegerValue:
				return types.NewInt(int64(n.Big().Sign())), nil
			case types.FloatValue:
				switch f := n.Float(); {
				case math.IsNaN(f):
					return nil, errNotFinite
				case f < 0:
					return types.NewInt(-1), nil
				case f > 0:
					return types.NewInt(1), nil
				}
			}
			return types.NewInt(0), nil
		},
	}
}

// Trunc returns the definition for math.trunc(n). Truncates toward zero and
// yields an Integer.
func Trunc() functions.Definition {
	return functions.Definition{
		Name:        "math.trunc",
		Params:      []types.ParamKind{types.ParamNumber},
		Returns:     types.ParamInteger,
		Description: "n truncated toward zero",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			if i, ok := args[0].(types.IntegerValue); ok {
				return i, nil
			}
			f, err := functions.Float("math.trunc", args, 0)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, errNotFinite
			}
			n, _ := big.NewFloat(math.Trunc(f)).Int(nil)
			return types.NewBigInt(n), nil
		},
	}
}

// Clamp returns the definition for math.clamp(n, lo, hi). The result keeps
// the kind of whichever argument is returned.
func Clamp() functions.Definition {
	return functions.Definition{
		Name:        "math.clamp",
		Params:      []types.ParamKind{types.ParamNumber, types.ParamNumber, types.ParamNumber},
		Returns:     types.ParamNumber,
		Description: "n limited to the range [lo, hi]",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			n, lo, hi := args[0], args[1], args[2]
			if types.Compare(lo, hi) > 0 {
				return nil, fmt.Errorf("lower bound %s is above upper bound %s", lo, hi)
			}
			if types.Compare(n, lo) < 0 {
				return lo, nil
			}
			if types.Compare(n, hi) > 0 {
				return hi, nil
			}
			return n, nil
		},
	}
}

// Log returns the definition for math.log(n [, base]).
// Without base, returns the natural logarithm.
func Log() functions.Definition {
	return functions.Definition{
		Name:        "math.log",
		Params:      []types.ParamKind{types.ParamNumber, types.ParamNumber},
		Optional:    1,
		Returns:     types.ParamFloat,
		Description: "Logarithm of n, natural unless base is given",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			n, err := functions.Float("math.log", args, 0)
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return nil, fmt.Errorf("argument must be positive: %w", errDomain)
			}
			if _, ok := functions.Optional(args, 1); !ok {
				return types.NewFloat(math.Log(n)), nil
			}
			base, err := functions.Float("math.log", args, 1)
			if err != nil {
				return nil, err
			}
			if base <= 0 || base == 1 {
				return nil, fmt.Errorf("base must be positive and not 1: %w", errDomain)
			}
			return types.NewFloat(math.Log(n) / math.Log(base)), nil
		},
	}
}

// Sqrt returns the definition for math.sqrt(n).
func Sqrt() functions.Definition {
	return functions.Definition{
		Name:        "math.sqrt",
		Params:      []types.ParamKind{types.ParamNumber},
		Returns:     types.ParamFloat,
		Description: "Square root of n",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			n, err := functions.Float("math.sqrt", args, 0)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, fmt.Errorf("negative argument: %w", errDomain)
			}
			return types.NewFloat(math.Sqrt(n)), nil
		},
	}
}

// Sum returns the definition for stats.sum(xs). Integer collections sum
// exactly; any float makes the result a float.
func Sum() functions.Definition {
	return functions.Definition{
		Name:        "stats.sum",
		Params:      []types.ParamKind{types.ParamCollection},
		Returns:     types.ParamNumber,
		Description: "Sum of a numeric collection",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			items, err := functions.Collection("stats.sum", args, 0)
			if err != nil {
				return nil, err
			}
			total := new(big.Int)
			exact := true
			for _, item := range items {
				i, ok := item.(types.IntegerValue)
				if !ok {
					exact = false
					break
				}
				total.Add(total, i.Big())
			}
			if exact {
				return types.NewBigInt(total), nil
			}
			xs, err := extutil.Numbers("stats.sum", args, 0)
			if err != nil {
				return nil, err
			}
			sum := 0.0
			for _, x := range xs {
				sum += x
			}
			return types.NewFloat(sum), nil
		},
	}
}

func stat(name, desc string, f func([]float64) float64) functions.Definition {
	return functions.Definition{
		Name:        name,
		Params:      []types.ParamKind{types.ParamCollection},
		Returns:     types.ParamFloat,
		Description: desc,
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			xs, err := extutil.Numbers(name, args, 0)
			if err != nil {
				return nil, err
			}
			if err := extutil.NonEmpty(name, xs); err != nil {
				return nil, err
			}
			return types.NewFloat(f(xs)), nil
		},
	}
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	m := mean(xs)
	v := 0.0
	for _, x := range xs {
		d := x - m
		v += d * d
	}
	return v / float64(len(xs))
}

func sorted(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

// percentile interpolates linearly between closest ranks; p is in [0, 100].
func percentile(xs []float64, p float64) float64 {
	s := sorted(xs)
	idx := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return s[lo]
	}
	frac := idx - float64(lo)
	return s[lo]*(1-frac) + s[hi]*frac
}

// Mean returns the definition for stats.mean(xs).
func Mean() functions.Definition {
	return stat("stats.mean", "Arithmetic mean of a numeric collection", mean)
}

// Median returns the definition for stats.median(xs).
func Median() functions.Definition {
	return stat("stats.median", "Median of a numeric collection", func(xs []float64) float64 {
		return percentile(xs, 50)
	})
}

// Variance returns the definition for stats.variance(xs), the population
// variance.
func Variance() functions.Definition {
	return stat("stats.variance", "Population variance of a numeric collection", variance)
}

// Stddev returns the definition for stats.stddev(xs).
func Stddev() functions.Definition {
	return stat("stats.stddev", "Population standard deviation of a numeric collection", func(xs []float64) float64 {
		return math.Sqrt(variance(xs))
	})
}

// Percentile returns the definition for stats.percentile(xs, p).
func Percentile() functions.Definition {
	return functions.Definition{
		Name:        "stats.percentile",
		Params:      []types.ParamKind{types.ParamCollection, types.ParamNumber},
		Returns:     types.ParamFloat,
		Description: "p-th percentile of a numeric collection, p in [0, 100]",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			xs, err := extutil.Numbers("stats.percentile", args, 0)
			if err != nil {
				return nil, err
			}
			if err := extutil.NonEmpty("stats.percentile", xs); err != nil {
				return nil, err
			}
			p, err := functions.Float("stats.percentile", args, 1)
			if err != nil {
				return nil, err
			}
			if p < 0 || p > 100 {
				return nil, fmt.Errorf("p must be between 0 and 100: %w", errDomain)
			}
			return types.NewFloat(percentile(xs, p)), nil
		},
	}
}

// Mode returns the definition for stats.mode(xs): the most frequent values,
// sorted ascending. Ties yield more than one value.
func Mode() functions.Definition {
	return functions.Definition{
		Name:        "stats.mode",
		Params:      []types.ParamKind{types.ParamCollection},
		Returns:     types.ParamCollection,
		Description: "Most frequent values of a numeric collection",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			items, err := functions.Collection("stats.mode", args, 0)
			if err != nil {
				return nil, err
			}
			xs, err := extutil.Numbers("stats.mode", args, 0)
			if err != nil {
				return nil, err
			}
			counts := make(map[float64]int, len(xs))
			first := make(map[float64]types.Value, len(xs))
			maxCount := 0
			for i, x := range xs {
				counts[x]++
				if _, ok := first[x]; !ok {
					first[x] = items[i]
				}
				maxCount = max(maxCount, counts[x])
			}
			var modes []types.Value
			for x, c := range counts {
				if c == maxCount {
					modes = append(modes, first[x])
				}
			}
			return types.NewCollection(types.SortValues(modes)...), nil
		},
	}
}

func mathFunc1(name, desc string, fn func(float64) float64) functions.Definition {
	return functions.Definition{
		Name:        name,
		Params:      []types.ParamKind{types.ParamNumber},
		Returns:     types.ParamFloat,
		Description: desc,
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			x, err := functions.Float(name, args, 0)
			if err != nil {
				return nil, err
			}
			return types.NewFloat(fn(x)), nil
		},
	}
}

func constant(name, desc string, c float64) functions.Definition {
	return functions.Definition{
		Name:        name,
		Returns:     types.ParamFloat,
		Description: desc,
		Pure:        true,
		Fn: func(context.Context, []types.Value, functions.Scope) (types.Value, error) {
			return types.NewFloat(c), nil
		},
	}
}
