package evaluator

import (
	"context"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// Callable values are Objects carrying the reserved field "@callable".
// Their code is kept as canonical source text and the free names they
// reference are captured in "env", so a callable is an ordinary immutable
// value that can be stored, compared and passed to builtins.
const (
	callableField   = "@callable"
	callableLambda  = "lambda"
	callableDefined = "recursive"
	defaultSelfName = "self"
)

// evalLambda builds a lambda value capturing the free names of its body.
func (e *Evaluator) evalLambda(n *types.Lambda, c *EvalContext) (types.Value, error) {
	return types.NewObject(map[string]types.Value{
		callableField: types.NewString(callableLambda),
		"params":      stringCollection(n.Params),
		"body":        types.NewString(types.Render(n.Body)),
		"env":         capture(c, n),
	}), nil
}

// capture returns the values bound in scope for the free names of nodes.
func capture(scope functions.Scope, nodes ...types.Node) types.Value {
	env := make(map[string]types.Value)
	for _, n := range nodes {
		vars, calls := types.FreeNames(n)
		for _, name := range append(vars, calls...) {
			if v, ok := scope.Lookup(name); ok {
				env[name] = v
			}
		}
	}
	return types.NewObject(env)
}

func stringCollection(names []string) types.Value {
	items := make([]types.Value, len(names))
	for i, name := range names {
		items[i] = types.NewString(name)
	}
	return types.NewCollection(items...)
}

// asCallable reports whether v is a callable Object.
func asCallable(v types.Value) (types.ObjectValue, bool) {
	obj, ok := v.(types.ObjectValue)
	if !ok {
		return types.ObjectValue{}, false
	}
	switch stringField(obj, callableField) {
	case callableLambda, callableDefined:
		return obj, true
	}
	return types.ObjectValue{}, false
}

// IsCallable reports whether v can be applied with Call.
func IsCallable(v types.Value) bool {
	_, ok := asCallable(v)
	return ok
}

func callableName(fn types.ObjectValue) string {
	if stringField(fn, callableField) == callableDefined {
		return stringField(fn, "self")
	}
	return callableLambda
}

func stringField(obj types.ObjectValue, key string) string {
	v, ok := obj.Get(key)
	if !ok {
		return ""
	}
	s, ok := v.(types.StringValue)
	if !ok {
		return ""
	}
	return s.Str()
}

func paramNames(obj types.ObjectValue) []string {
	v, ok := obj.Get("params")
	if !ok {
		return nil
	}
	coll, ok := v.(types.CollectionValue)
	if !ok {
		return nil
	}
	names := make([]string, 0, coll.Len())
	for _, item := range coll.Items() {
		if s, ok := item.(types.StringValue); ok {
			names = append(names, s.Str())
		}
	}
	return names
}

// apply invokes a callable. The body runs in a fresh context over scope,
// the call site, with the captured environment and then the parameters
// bound on top.
func (e *Evaluator) apply(ctx context.Context, name string, fn types.ObjectValue, args []types.Value, scope functions.Scope) (types.Value, error) {
	params := paramNames(fn)
	if len(args) != len(params) {
		return nil, &types.ArityError{Function: name, Min: len(params), Max: len(params), Got: len(args)}
	}
	e.functionCalls.Add(1)

	c := newContextWithParent(scope)
	if env, ok := fn.Get("env"); ok {
		if obj, ok := env.(types.ObjectValue); ok {
			c.BindAll(obj.Fields())
		}
	}
	for i, p := range params {
		c.BindVariable(p, args[i])
	}

	if stringField(fn, callableField) == callableLambda {
		return e.evalSource(ctx, stringField(fn, "body"), c)
	}

	c.BindVariable(stringField(fn, "self"), fn)
	test, err := e.evalSource(ctx, stringField(fn, "predicate"), c)
	if err != nil {
		return nil, err
	}
	done, ok := types.Truth(test)
	if !ok {
		return nil, &types.TypeMismatchError{Operator: name, Expected: "boolean base-case predicate", Got: test.Kind()}
	}
	if done {
		return e.evalSource(ctx, stringField(fn, "base"), c)
	}
	return e.evalSource(ctx, stringField(fn, "step"), c)
}
