// Package extutil provides shared helpers for the ext sub-packages.
package extutil

import (
	"context"
	"fmt"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// StringFunc builds a pure definition taking one string argument.
func StringFunc(name, desc string, ret types.ParamKind, f func(string) (types.Value, error)) functions.Definition {
	return functions.Definition{
		Name:        name,
		Params:      []types.ParamKind{types.ParamString},
		Returns:     ret,
		Description: desc,
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			s, err := functions.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			return f(s)
		},
	}
}

// KindPredicate builds a pure definition reporting whether its argument has
// one of kinds.
func KindPredicate(name, desc string, kinds ...types.Kind) functions.Definition {
	return functions.Definition{
		Name:        name,
		Params:      []types.ParamKind{types.ParamAny},
		Returns:     types.ParamBoolean,
		Description: desc,
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			for _, k := range kinds {
				if args[0].Kind() == k {
					return types.True, nil
				}
			}
			return types.False, nil
		},
	}
}

// Numbers returns argument i as a collection of numbers converted to float64.
func Numbers(fn string, args []types.Value, i int) ([]float64, error) {
	items, err := functions.Collection(fn, args, i)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for j, item := range items {
		f, ok := types.AsNumber(item)
		if !ok {
			return nil, fmt.Errorf("%s: item %d is %s, want number", fn, j+1, item.Kind())
		}
		out[j] = f
	}
	return out, nil
}

// NonEmpty reports an error for an empty numeric collection.
func NonEmpty(fn string, xs []float64) error {
	if len(xs) == 0 {
		return fmt.Errorf("%s: collection is empty", fn)
	}
	return nil
}
