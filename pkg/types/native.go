package types

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
)

// finiteFloat rejects NaN and infinities, which have no literal form.
func finiteFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("cannot convert non-finite float %v to a value", f)
	}
	return NewFloat(f), nil
}

// FromNative converts a decoded YAML or JSON document into a Value.
func FromNative(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null, nil
	case Value:
		return v, nil
	case bool:
		return NewBool(v), nil
	case int:
		return NewInt(int64(v)), nil
	case int8:
		return NewInt(int64(v)), nil
	case int16:
		return NewInt(int64(v)), nil
	case int32:
		return NewInt(int64(v)), nil
	case int64:
		return NewInt(v), nil
	case uint:
		return NewBigInt(new(big.Int).SetUint64(uint64(v))), nil
	case uint8:
		return NewInt(int64(v)), nil
	case uint16:
		return NewInt(int64(v)), nil
	case uint32:
		return NewInt(int64(v)), nil
	case uint64:
		return NewBigInt(new(big.Int).SetUint64(v)), nil
	case *big.Int:
		return NewBigInt(v), nil
	case float32:
		return finiteFloat(float64(v))
	case float64:
		return finiteFloat(v)
	case string:
		return NewString(v), nil
	case []Value:
		return NewCollection(v...), nil
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			val, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = val
		}
		return CollectionValue{items: items}, nil
	case map[string]any:
		fields := make(map[string]Value, len(v))
		for k, item := range v {
			val, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			fields[k] = val
		}
		return ObjectValue{fields: fields}, nil
	case map[any]any:
		fields := make(map[string]Value, len(v))
		for k, item := range v {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			val, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", ks, err)
			}
			fields[ks] = val
		}
		return ObjectValue{fields: fields}, nil
	}
	return nil, fmt.Errorf("cannot convert %s to a value", reflect.TypeOf(x))
}

// ToNative converts v into plain Go values: nil, bool, int64 (or *big.Int
// when out of range), float64, string, []any and map[string]any.
func ToNative(v Value) any {
	switch x := v.(type) {
	case BooleanValue:
		return x.val
	case IntegerValue:
		if n, ok := x.Int64(); ok {
			return n
		}
		return x.Big()
	case FloatValue:
		return x.val
	case StringValue:
		return x.val
	case CollectionValue:
		out := make([]any, len(x.items))
		for i, item := range x.items {
			out[i] = ToNative(item)
		}
		return out
	case ObjectValue:
		out := make(map[string]any, len(x.fields))
		for k, item := range x.fields {
			out[k] = ToNative(item)
		}
		return out
	}
	return nil
}

// ParamKind describes the accepted kind of a builtin parameter or result.
type ParamKind int

const (
	ParamAny ParamKind = iota
	ParamNull
	ParamBoolean
	ParamInteger
	ParamFloat
	ParamNumber // Integer or Float
	ParamString
	ParamCollection
	ParamObject
)

var paramKindNames = map[ParamKind]string{
	ParamAny:        "any",
	ParamNull:       "null",
	ParamBoolean:    "boolean",
	ParamInteger:    "integer",
	ParamFloat:      "float",
	ParamNumber:     "number",
	ParamString:     "string",
	ParamCollection: "collection",
	ParamObject:     "object",
}

func (p ParamKind) String() string {
	if s, ok := paramKindNames[p]; ok {
		return s
	}
	return fmt.Sprintf("param_kind_%d", int(p))
}

// Accepts reports whether a value of kind k satisfies p.
func (p ParamKind) Accepts(k Kind) bool {
	switch p {
	case ParamAny:
		return true
	case ParamNull:
		return k == KindNull
	case ParamBoolean:
		return k == KindBoolean
	case ParamInteger:
		return k == KindInteger
	case ParamFloat:
		return k == KindFloat
	case ParamNumber:
		return k == KindInteger || k == KindFloat
	case ParamString:
		return k == KindString
	case ParamCollection:
		return k == KindCollection
	case ParamObject:
		return k == KindObject
	}
	return false
}

// ParseParamKind returns the ParamKind spelled s.
func ParseParamKind(s string) (ParamKind, bool) {
	for k, name := range paramKindNames {
		if name == s {
			return k, true
		}
	}
	return ParamAny, false
}
