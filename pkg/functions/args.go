package functions

import (
	"fmt"
	"math/big"

	"github.com/sandrolain/gologic/pkg/types"
)

// The helpers below let an implementation re-validate its own arguments.
// Each one reports a *types.ArityError when the argument is missing and a
// *types.TypeMismatchError when it has the wrong kind.

func arg(fn string, args []types.Value, i int) (types.Value, error) {
	if i >= len(args) {
		return nil, &types.ArityError{Function: fn, Min: i + 1, Max: -1, Got: len(args)}
	}
	return args[i], nil
}

func mismatch(fn string, i int, expected string, got types.Value) error {
	return &types.TypeMismatchError{
		Operator: fn,
		Expected: fmt.Sprintf("%s (argument %d)", expected, i+1),
		Got:      got.Kind(),
	}
}

// Int returns argument i as an integer.
func Int(fn string, args []types.Value, i int) (*big.Int, error) {
	v, err := arg(fn, args, i)
	if err != nil {
		return nil, err
	}
	n, ok := v.(types.IntegerValue)
	if !ok {
		return nil, mismatch(fn, i, "integer", v)
	}
	return n.Big(), nil
}

// Int64 returns argument i as an integer that fits in an int64.
func Int64(fn string, args []types.Value, i int) (int64, error) {
	n, err := Int(fn, args, i)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, fmt.Errorf("%s: argument %d is out of range: %s", fn, i+1, n)
	}
	return n.Int64(), nil
}

// Float returns argument i, an Integer or a Float, as a float64.
func Float(fn string, args []types.Value, i int) (float64, error) {
	v, err := arg(fn, args, i)
	if err != nil {
		return 0, err
	}
	f, ok := types.AsNumber(v)
	if !ok {
		return 0, mismatch(fn, i, "number", v)
	}
	return f, nil
}

// Number returns argument i when it is an Integer or a Float.
func Number(fn string, args []types.Value, i int) (types.Value, error) {
	v, err := arg(fn, args, i)
	if err != nil {
		return nil, err
	}
	if !types.IsNumber(v) {
		return nil, mismatch(fn, i, "number", v)
	}
	return v, nil
}

// String returns argument i as a string.
func String(fn string, args []types.Value, i int) (string, error) {
	v, err := arg(fn, args, i)
	if err != nil {
		return "", err
	}
	s, ok := v.(types.StringValue)
	if !ok {
		return "", mismatch(fn, i, "string", v)
	}
	return s.Str(), nil
}

// Bool returns argument i as a boolean.
func Bool(fn string, args []types.Value, i int) (bool, error) {
	v, err := arg(fn, args, i)
	if err != nil {
		return false, err
	}
	b, ok := types.Truth(v)
	if !ok {
		return false, mismatch(fn, i, "boolean", v)
	}
	return b, nil
}

// Collection returns the items of argument i.
func Collection(fn string, args []types.Value, i int) ([]types.Value, error) {
	v, err := arg(fn, args, i)
	if err != nil {
		return nil, err
	}
	c, ok := v.(types.CollectionValue)
	if !ok {
		return nil, mismatch(fn, i, "collection", v)
	}
	return c.Items(), nil
}

// Strings returns argument i as a collection of strings.
func Strings(fn string, args []types.Value, i int) ([]string, error) {
	items, err := Collection(fn, args, i)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for j, item := range items {
		s, ok := item.(types.StringValue)
		if !ok {
			return nil, mismatch(fn, i, "collection of strings", args[i])
		}
		out[j] = s.Str()
	}
	return out, nil
}

// Object returns argument i as an object.
func Object(fn string, args []types.Value, i int) (types.ObjectValue, error) {
	v, err := arg(fn, args, i)
	if err != nil {
		return types.ObjectValue{}, err
	}
	o, ok := v.(types.ObjectValue)
	if !ok {
		return types.ObjectValue{}, mismatch(fn, i, "object", v)
	}
	return o, nil
}

// Optional returns argument i when present.
func Optional(args []types.Value, i int) (types.Value, bool) {
	if i < len(args) {
		return args[i], true
	}
	return nil, false
}
