// Package extobject provides functions over Object values, under the object
// namespace. Facts loaded from YAML or JSON arrive as objects; these
// functions let rules inspect them.
package extobject

import (
	"context"
	"fmt"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// All returns all object function definitions.
func All() []functions.Definition {
	return []functions.Definition{
		Keys(),
		Values(),
		Pairs(),
		FromPairs(),
		Has(),
		Get(),
		Pick(),
		Omit(),
		DeepMerge(),
		Size(),
		Rename(),
	}
}

func unary(name, desc string, ret types.ParamKind, f func(types.ObjectValue) types.Value) functions.Definition {
	return functions.Definition{
		Name:        name,
		Params:      []types.ParamKind{types.ParamObject},
		Returns:     ret,
		Description: desc,
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			obj, err := functions.Object(name, args, 0)
			if err != nil {
				return nil, err
			}
			return f(obj), nil
		},
	}
}

// Keys returns the definition for object.keys(obj), in sorted order.
func Keys() functions.Definition {
	return unary("object.keys", "Field names in sorted order", types.ParamCollection, func(obj types.ObjectValue) types.Value {
		keys := obj.Keys()
		items := make([]types.Value, len(keys))
		for i, k := range keys {
			items[i] = types.NewString(k)
		}
		return types.NewCollection(items...)
	})
}

// Values returns the definition for object.values(obj), ordered by key.
func Values() functions.Definition {
	return unary("object.values", "Field values ordered by name", types.ParamCollection, func(obj types.ObjectValue) types.Value {
		keys := obj.Keys()
		items := make([]types.Value, len(keys))
		for i, k := range keys {
			items[i], _ = obj.Get(k)
		}
		return types.NewCollection(items...)
	})
}

// Pairs returns the definition for object.pairs(obj): [[key, value], ...].
func Pairs() functions.Definition {
	return unary("object.pairs", "[name, value] pairs ordered by name", types.ParamCollection, func(obj types.ObjectValue) types.Value {
		keys := obj.Keys()
		items := make([]types.Value, len(keys))
		for i, k := range keys {
			v, _ := obj.Get(k)
			items[i] = types.NewCollection(types.NewString(k), v)
		}
		return types.NewCollection(items...)
	})
}

// FromPairs returns the definition for object.from_pairs(pairs), the
// inverse of object.pairs. Later pairs win.
func FromPairs() functions.Definition {
	return functions.Definition{
		Name:        "object.from_pairs",
		Params:      []types.ParamKind{types.ParamCollection},
		Returns:     types.ParamObject,
		Description: "Object built from [name, value] pairs",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			pairs, err := functions.Collection("object.from_pairs", args, 0)
			if err != nil {
				return nil, err
			}
			fields := make(map[string]types.Value, len(pairs))
			for i, p := range pairs {
				pair, ok := p.(types.CollectionValue)
				if !ok || pair.Len() != 2 {
					return nil, fmt.Errorf("item %d is not a [name, value] pair", i+1)
				}
				key, ok := pair.At(0).(types.StringValue)
				if !ok {
					return nil, fmt.Errorf("item %d has a %s name, want string", i+1, pair.At(0).Kind())
				}
				fields[key.Str()] = pair.At(1)
			}
			return types.NewObject(fields), nil
		},
	}
}

// Has returns the definition for object.has(obj, key).
func Has() functions.Definition {
	return functions.Definition{
		Name:        "object.has",
		Params:      []types.ParamKind{types.ParamObject, types.ParamString},
		Returns:     types.ParamBoolean,
		Description: "Whether obj has a field named key",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			obj, err := functions.Object("object.has", args, 0)
			if err != nil {
				return nil, err
			}
			key, err := functions.String("object.has", args, 1)
			if err != nil {
				return nil, err
			}
			_, ok := obj.Get(key)
			return types.NewBool(ok), nil
		},
	}
}

// Get returns the definition for object.get(obj, key [, default]).
func Get() functions.Definition {
	return functions.Definition{
		Name:        "object.get",
		Params:      []types.ParamKind{types.ParamObject, types.ParamString, types.ParamAny},
		Optional:    1,
		Returns:     types.ParamAny,
		Description: "Field key of obj, or default (null) when missing",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			obj, err := functions.Object("object.get", args, 0)
			if err != nil {
				return nil, err
			}
			key, err := functions.String("object.get", args, 1)
			if err != nil {
				return nil, err
			}
			if v, ok := obj.Get(key); ok {
				return v, nil
			}
			if def, ok := functions.Optional(args, 2); ok {
				return def, nil
			}
			return types.Null, nil
		},
	}
}

func selectFields(name string, keep bool) functions.Definition {
	desc := "obj restricted to the named fields"
	if !keep {
		desc = "obj without the named fields"
	}
	return functions.Definition{
		Name:        name,
		Params:      []types.ParamKind{types.ParamObject, types.ParamCollection},
		Returns:     types.ParamObject,
		Description: desc,
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			obj, err := functions.Object(name, args, 0)
			if err != nil {
				return nil, err
			}
			names, err := functions.Strings(name, args, 1)
			if err != nil {
				return nil, err
			}
			listed := make(map[string]bool, len(names))
			for _, n := range names {
				listed[n] = true
			}
			fields := make(map[string]types.Value)
			for k, v := range obj.Fields() {
				if listed[k] == keep {
					fields[k] = v
				}
			}
			return types.NewObject(fields), nil
		},
	}
}

// Pick returns the definition for object.pick(obj, names).
func Pick() functions.Definition { return selectFields("object.pick", true) }

// Omit returns the definition for object.omit(obj, names).
func Omit() functions.Definition { return selectFields("object.omit", false) }

// DeepMerge returns the definition for object.merge(objects).
// Recursively merges objects; later objects override earlier ones.
func DeepMerge() functions.Definition {
	return functions.Definition{
		Name:        "object.merge",
		Params:      []types.ParamKind{types.ParamCollection},
		Returns:     types.ParamObject,
		Description: "Recursive merge of a collection of objects, later fields winning",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			items, err := functions.Collection("object.merge", args, 0)
			if err != nil {
				return nil, err
			}
			result := make(map[string]types.Value)
			for i, item := range items {
				obj, ok := item.(types.ObjectValue)
				if !ok {
					return nil, fmt.Errorf("item %d is %s, want object", i+1, item.Kind())
				}
				deepMergeInto(result, obj.Fields())
			}
			return types.NewObject(result), nil
		},
	}
}

func deepMergeInto(dst, src map[string]types.Value) {
	for k, srcVal := range src {
		if srcObj, ok := srcVal.(types.ObjectValue); ok {
			if dstObj, ok := dst[k].(types.ObjectValue); ok {
				merged := dstObj.Fields()
				deepMergeInto(merged, srcObj.Fields())
				dst[k] = types.NewObject(merged)
				continue
			}
		}
		dst[k] = srcVal
	}
}

// Size returns the definition for object.size(obj).
func Size() functions.Definition {
	return unary("object.size", "Number of fields", types.ParamInteger, func(obj types.ObjectValue) types.Value {
		return types.NewInt(int64(obj.Len()))
	})
}

// Rename returns the definition for object.rename(obj, mapping).
// Fields named in mapping take the mapped string name.
func Rename() functions.Definition {
	return functions.Definition{
		Name:        "object.rename",
		Params:      []types.ParamKind{types.ParamObject, types.ParamObject},
		Returns:     types.ParamObject,
		Description: "obj with fields renamed according to mapping",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			obj, err := functions.Object("object.rename", args, 0)
			if err != nil {
				return nil, err
			}
			mapping, err := functions.Object("object.rename", args, 1)
			if err != nil {
				return nil, err
			}
			fields := make(map[string]types.Value, obj.Len())
			for k, v := range obj.Fields() {
				if mapped, ok := mapping.Get(k); ok {
					if s, ok := mapped.(types.StringValue); ok {
						k = s.Str()
					}
				}
				fields[k] = v
			}
			return types.NewObject(fields), nil
		},
	}
}
