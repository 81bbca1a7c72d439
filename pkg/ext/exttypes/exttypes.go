// Package exttypes provides kind predicates and defaulting functions under
// the type namespace.
package exttypes

import (
	"context"

	"github.com/sandrolain/gologic/pkg/ext/extutil"
	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// callableField marks lambda and recursive-function values.
const callableField = "@callable"

// All returns all type function definitions.
func All() []functions.Definition {
	return []functions.Definition{
		KindOf(),
		IsString(),
		IsNumber(),
		IsInteger(),
		IsFloat(),
		IsBoolean(),
		IsCollection(),
		IsObject(),
		IsNull(),
		IsCallable(),
		IsEmpty(),
		Default(),
	}
}

// KindOf returns the definition for type.kind(v): the kind name of v, as
// used in error messages.
func KindOf() functions.Definition {
	return functions.Definition{
		Name:        "type.kind",
		Params:      []types.ParamKind{types.ParamAny},
		Returns:     types.ParamString,
		Description: "Kind name of v",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			return types.NewString(args[0].Kind().String()), nil
		},
	}
}

func IsString() functions.Definition {
	return extutil.KindPredicate("type.is_string", "Whether v is a string", types.KindString)
}

func IsNumber() functions.Definition {
	return extutil.KindPredicate("type.is_number", "Whether v is an integer or a float", types.KindInteger, types.KindFloat)
}

func IsInteger() functions.Definition {
	return extutil.KindPredicate("type.is_integer", "Whether v is an integer", types.KindInteger)
}

func IsFloat() functions.Definition {
	return extutil.KindPredicate("type.is_float", "Whether v is a float", types.KindFloat)
}

func IsBoolean() functions.Definition {
	return extutil.KindPredicate("type.is_boolean", "Whether v is a boolean", types.KindBoolean)
}

func IsCollection() functions.Definition {
	return extutil.KindPredicate("type.is_collection", "Whether v is a collection", types.KindCollection)
}

func IsObject() functions.Definition {
	return extutil.KindPredicate("type.is_object", "Whether v is an object", types.KindObject)
}

func IsNull() functions.Definition {
	return extutil.KindPredicate("type.is_null", "Whether v is null", types.KindNull)
}

func isCallable(v types.Value) bool {
	obj, ok := v.(types.ObjectValue)
	if !ok {
		return false
	}
	_, ok = obj.Get(callableField)
	return ok
}

// IsCallable returns the definition for type.is_callable(v). Lambdas and
// recursive definitions are callable.
func IsCallable() functions.Definition {
	return functions.Definition{
		Name:        "type.is_callable",
		Params:      []types.ParamKind{types.ParamAny},
		Returns:     types.ParamBoolean,
		Description: "Whether v can be applied as a function",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			return types.NewBool(isCallable(args[0])), nil
		},
	}
}

func isEmpty(v types.Value) bool {
	switch x := v.(type) {
	case types.NullValue:
		return true
	case types.StringValue:
		return x.Str() == ""
	case types.CollectionValue:
		return x.Len() == 0
	case types.ObjectValue:
		return x.Len() == 0
	}
	return false
}

// IsEmpty returns the definition for type.is_empty(v). Null, "", [] and {}
// are empty; numbers and booleans never are.
func IsEmpty() functions.Definition {
	return functions.Definition{
		Name:        "type.is_empty",
		Params:      []types.ParamKind{types.ParamAny},
		Returns:     types.ParamBoolean,
		Description: "Whether v is null or an empty string, collection or object",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			return types.NewBool(isEmpty(args[0])), nil
		},
	}
}

// Default returns the definition for type.default(v, fallback).
func Default() functions.Definition {
	return functions.Definition{
		Name:        "type.default",
		Params:      []types.ParamKind{types.ParamAny, types.ParamAny},
		Returns:     types.ParamAny,
		Description: "v, or fallback when v is null",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			if args[0].Kind() == types.KindNull {
				return args[1], nil
			}
			return args[0], nil
		},
	}
}
