package evaluator

import (
	"context"
	"fmt"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// iteration describes one run of a fixpoint operator.
type iteration struct {
	operator string
	fn       types.Value
	start    types.Value
	limit    int
	eq       types.Value // optional equality callable
	sets     bool        // normalise collections as sets
}

// iterate applies the transformer until two successive values are equal.
// Not converging within the limit is a *types.FixpointDivergenceError.
func (e *Evaluator) iterate(ctx context.Context, it iteration) (types.Value, error) {
	x := it.start
	if it.sets {
		x = asSet(x)
	}
	for i := 0; i < it.limit; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		next, err := e.Call(ctx, it.fn, x)
		if err != nil {
			return nil, err
		}
		if it.sets {
			next = asSet(next)
		}

		same, err := e.converged(ctx, it.eq, x, next)
		if err != nil {
			return nil, err
		}
		if same {
			if e.opts.Debug {
				e.logger.Debug("fixpoint reached", "operator", it.operator, "iterations", i+1)
			}
			return next, nil
		}
		x = next
	}
	return nil, &types.FixpointDivergenceError{Operator: it.operator, Iterations: it.limit, Last: x}
}

func (e *Evaluator) converged(ctx context.Context, eq, a, b types.Value) (bool, error) {
	if eq == nil {
		return types.Equal(a, b), nil
	}
	v, err := e.Call(ctx, eq, a, b)
	if err != nil {
		return false, err
	}
	same, ok := types.Truth(v)
	if !ok {
		return false, fmt.Errorf("equality function returned %s, want boolean", v.Kind())
	}
	return same, nil
}

// asSet sorts a collection and drops duplicates. Other values are returned
// unchanged.
func asSet(v types.Value) types.Value {
	c, ok := v.(types.CollectionValue)
	if !ok {
		return v
	}
	return types.NewCollection(types.SortValues(c.Items())...)
}

func (e *Evaluator) limitArg(fn string, args []types.Value, i int) (int, error) {
	if _, ok := functions.Optional(args, i); !ok {
		return e.opts.FixpointLimit, nil
	}
	n, err := functions.Int64(fn, args, i)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("iteration limit must be positive, got %d", n)
	}
	return int(n), nil
}

func fixpointFunctions(e *Evaluator) []functions.Definition {
	return []functions.Definition{
		{
			Name:        "fixpoint.iterate",
			Params:      []types.ParamKind{types.ParamAny, types.ParamAny, types.ParamInteger, types.ParamAny},
			Optional:    2,
			Returns:     types.ParamAny,
			Description: "Applies f from start until two successive values are equal under eq (default structural)",
			Fn: func(ctx context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				limit, err := e.limitArg("fixpoint.iterate", args, 2)
				if err != nil {
					return nil, err
				}
				eq, _ := functions.Optional(args, 3)
				return e.iterate(ctx, iteration{
					operator: "fixpoint.iterate",
					fn:       args[0],
					start:    args[1],
					limit:    limit,
					eq:       eq,
				})
			},
		},
		{
			Name:        "mucalculus.mu",
			Params:      []types.ParamKind{types.ParamAny, types.ParamAny},
			Optional:    1,
			Returns:     types.ParamAny,
			Description: "Least fixpoint of a monotone set transformer, iterated from the empty set",
			Fn: func(ctx context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				start, ok := functions.Optional(args, 1)
				if !ok {
					start = types.NewCollection()
				}
				return e.iterate(ctx, iteration{
					operator: "mucalculus.mu",
					fn:       args[0],
					start:    start,
					limit:    e.opts.FixpointLimit,
					sets:     true,
				})
			},
		},
		{
			Name:        "mucalculus.nu",
			Params:      []types.ParamKind{types.ParamAny, types.ParamAny},
			Returns:     types.ParamAny,
			Description: "Greatest fixpoint of a monotone set transformer, iterated from top",
			Fn: func(ctx context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				return e.iterate(ctx, iteration{
					operator: "mucalculus.nu",
					fn:       args[0],
					start:    args[1],
					limit:    e.opts.FixpointLimit,
					sets:     true,
				})
			},
		},
	}
}
