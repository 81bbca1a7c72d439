package evaluator

import (
	"context"
	"fmt"
	"sort"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// maxRange bounds the length of collection.range results.
const maxRange = 1 << 20

func collectionFunctions(caller functions.Caller) []functions.Definition {
	coll := []types.ParamKind{types.ParamCollection}
	unary := func(name, desc string, ret types.ParamKind, f func([]types.Value) types.Value) functions.Definition {
		return functions.Definition{
			Name:        name,
			Params:      coll,
			Returns:     ret,
			Description: desc,
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				items, err := functions.Collection(name, args, 0)
				if err != nil {
					return nil, err
				}
				return f(items), nil
			},
		}
	}

	return []functions.Definition{
		unary("collection.count", "Number of items", types.ParamInteger, func(items []types.Value) types.Value {
			return types.NewInt(int64(len(items)))
		}),
		unary("collection.first", "First item, or null when empty", types.ParamAny, func(items []types.Value) types.Value {
			if len(items) == 0 {
				return types.Null
			}
			return items[0]
		}),
		unary("collection.last", "Last item, or null when empty", types.ParamAny, func(items []types.Value) types.Value {
			if len(items) == 0 {
				return types.Null
			}
			return items[len(items)-1]
		}),
		unary("collection.sort", "Items in ascending total order", types.ParamCollection, func(items []types.Value) types.Value {
			sort.SliceStable(items, func(i, j int) bool { return types.Compare(items[i], items[j]) < 0 })
			return types.NewCollection(items...)
		}),
		unary("collection.unique", "Items without duplicates, first occurrence kept", types.ParamCollection, unique),
		unary("collection.flatten", "Items of nested collections, recursively", types.ParamCollection, func(items []types.Value) types.Value {
			return types.NewCollection(flatten(nil, items)...)
		}),
		{
			Name:        "collection.contains",
			Params:      []types.ParamKind{types.ParamCollection, types.ParamAny},
			Returns:     types.ParamBoolean,
			Description: "Reports whether an item equals x",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				items, err := functions.Collection("collection.contains", args, 0)
				if err != nil {
					return nil, err
				}
				return types.NewBool(containsValue(items, args[1])), nil
			},
		},
		{
			Name:        "collection.append",
			Params:      []types.ParamKind{types.ParamCollection, types.ParamAny},
			Variadic:    true,
			Returns:     types.ParamCollection,
			Description: "Collection with the remaining arguments added at the end",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				items, err := functions.Collection("collection.append", args, 0)
				if err != nil {
					return nil, err
				}
				return types.NewCollection(append(items, args[1:]...)...), nil
			},
		},
		{
			Name:        "collection.range",
			Params:      []types.ParamKind{types.ParamInteger, types.ParamInteger, types.ParamInteger},
			Optional:    1,
			Returns:     types.ParamCollection,
			Description: "Integers from start up to, not including, end",
			Pure:        true,
			Fn:          fnRange,
		},
		{
			Name:        "collection.map",
			Params:      []types.ParamKind{types.ParamCollection, types.ParamAny},
			Returns:     types.ParamCollection,
			Description: "Results of applying fn to every item",
			Fn: func(ctx context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				items, err := functions.Collection("collection.map", args, 0)
				if err != nil {
					return nil, err
				}
				out := make([]types.Value, len(items))
				for i, item := range items {
					if out[i], err = caller.Call(ctx, args[1], item); err != nil {
						return nil, err
					}
				}
				return types.NewCollection(out...), nil
			},
		},
		{
			Name:        "collection.filter",
			Params:      []types.ParamKind{types.ParamCollection, types.ParamAny},
			Returns:     types.ParamCollection,
			Description: "Items for which fn returns true",
			Fn: func(ctx context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				items, err := functions.Collection("collection.filter", args, 0)
				if err != nil {
					return nil, err
				}
				var out []types.Value
				for _, item := range items {
					v, err := caller.Call(ctx, args[1], item)
					if err != nil {
						return nil, err
					}
					keep, ok := types.Truth(v)
					if !ok {
						return nil, fmt.Errorf("filter function returned %s, want boolean", v.Kind())
					}
					if keep {
						out = append(out, item)
					}
				}
				return types.NewCollection(out...), nil
			},
		},
		{
			Name:        "collection.reduce",
			Params:      []types.ParamKind{types.ParamCollection, types.ParamAny, types.ParamAny},
			Returns:     types.ParamAny,
			Description: "Left fold of fn(acc, item) starting from init",
			Fn: func(ctx context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				items, err := functions.Collection("collection.reduce", args, 0)
				if err != nil {
					return nil, err
				}
				acc := args[2]
				for _, item := range items {
					if acc, err = caller.Call(ctx, args[1], acc, item); err != nil {
						return nil, err
					}
				}
				return acc, nil
			},
		},
	}
}

func fnRange(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
	start, err := functions.Int64("collection.range", args, 0)
	if err != nil {
		return nil, err
	}
	end, err := functions.Int64("collection.range", args, 1)
	if err != nil {
		return nil, err
	}
	step := int64(1)
	if _, ok := functions.Optional(args, 2); ok {
		if step, err = functions.Int64("collection.range", args, 2); err != nil {
			return nil, err
		}
	}
	if step == 0 {
		return nil, fmt.Errorf("step must not be zero")
	}

	var out []types.Value
	for i := start; (step > 0 && i < end) || (step < 0 && i > end); i += step {
		if len(out) == maxRange {
			return nil, fmt.Errorf("range longer than %d items", maxRange)
		}
		out = append(out, types.NewInt(i))
	}
	return types.NewCollection(out...), nil
}

func containsValue(items []types.Value, x types.Value) bool {
	for _, item := range items {
		if types.Equal(item, x) {
			return true
		}
	}
	return false
}

func unique(items []types.Value) types.Value {
	var out []types.Value
	for _, item := range items {
		if !containsValue(out, item) {
			out = append(out, item)
		}
	}
	return types.NewCollection(out...)
}

func flatten(dst, items []types.Value) []types.Value {
	for _, item := range items {
		if c, ok := item.(types.CollectionValue); ok {
			dst = flatten(dst, c.Items())
			continue
		}
		dst = append(dst, item)
	}
	return dst
}

// setFunctions treat collections as sets: order and duplicates are
// ignored and results come back sorted.
func setFunctions() []functions.Definition {
	binary := func(name, desc string, ret types.ParamKind, f func(a, b []types.Value) types.Value) functions.Definition {
		return functions.Definition{
			Name:        name,
			Params:      []types.ParamKind{types.ParamCollection, types.ParamCollection},
			Returns:     ret,
			Description: desc,
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				a, err := functions.Collection(name, args, 0)
				if err != nil {
					return nil, err
				}
				b, err := functions.Collection(name, args, 1)
				if err != nil {
					return nil, err
				}
				return f(types.SortValues(a), types.SortValues(b)), nil
			},
		}
	}

	return []functions.Definition{
		binary("set.union", "Items in either set", types.ParamCollection, func(a, b []types.Value) types.Value {
			return types.NewCollection(types.SortValues(append(a, b...))...)
		}),
		binary("set.intersection", "Items in both sets", types.ParamCollection, func(a, b []types.Value) types.Value {
			var out []types.Value
			for _, x := range a {
				if containsValue(b, x) {
					out = append(out, x)
				}
			}
			return types.NewCollection(out...)
		}),
		binary("set.difference", "Items of the first set missing from the second", types.ParamCollection, func(a, b []types.Value) types.Value {
			var out []types.Value
			for _, x := range a {
				if !containsValue(b, x) {
					out = append(out, x)
				}
			}
			return types.NewCollection(out...)
		}),
		binary("set.equal", "Reports whether both sets hold the same items", types.ParamBoolean, func(a, b []types.Value) types.Value {
			return types.NewBool(types.Equal(types.NewCollection(a...), types.NewCollection(b...)))
		}),
		binary("set.subset", "Reports whether every item of the first set is in the second", types.ParamBoolean, func(a, b []types.Value) types.Value {
			for _, x := range a {
				if !containsValue(b, x) {
					return types.False
				}
			}
			return types.True
		}),
	}
}
