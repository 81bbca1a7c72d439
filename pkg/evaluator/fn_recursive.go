package evaluator

import (
	"context"
	"fmt"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// bindingNames reads the names of a lazily passed binder argument: a bare
// name, a string, or a collection of either.
func (e *Evaluator) bindingNames(src string) ([]string, error) {
	node, err := e.parseSource(src)
	if err != nil {
		return nil, err
	}
	var items []types.Node
	if c, ok := types.Unwrap(node).(*types.Collection); ok {
		items = c.Items
	} else {
		items = []types.Node{node}
	}

	names := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		var name string
		switch n := types.Unwrap(item).(type) {
		case *types.Variable:
			name = n.Name
		case *types.Literal:
			if s, ok := n.Value.(types.StringValue); ok {
				name = s.Str()
			}
		}
		if !types.IsIdentifier(name) {
			return nil, fmt.Errorf("%s is not a parameter name", types.Render(item))
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate parameter %s", name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

func recursiveFunctions(e *Evaluator) []functions.Definition {
	return []functions.Definition{
		{
			Name: "recursive.define",
			Params: []types.ParamKind{
				types.ParamAny, types.ParamAny, types.ParamAny, types.ParamAny, types.ParamAny,
			},
			Optional:    1,
			Returns:     types.ParamObject,
			Description: "Callable evaluating base when predicate holds and step otherwise; step may call self",
			Lazy:        true,
			Fn: func(_ context.Context, args []types.Value, scope functions.Scope) (types.Value, error) {
				return e.defineRecursive(args, scope)
			},
		},
	}
}

// defineRecursive builds a recursive callable from quoted sources:
// params, predicate, base, step and an optional self name.
func (e *Evaluator) defineRecursive(args []types.Value, scope functions.Scope) (types.Value, error) {
	srcs := make([]string, len(args))
	for i := range args {
		s, err := functions.String("recursive.define", args, i)
		if err != nil {
			return nil, err
		}
		srcs[i] = s
	}

	params, err := e.bindingNames(srcs[0])
	if err != nil {
		return nil, err
	}
	self := defaultSelfName
	if len(srcs) > 4 {
		names, err := e.bindingNames(srcs[4])
		if err != nil {
			return nil, err
		}
		if len(names) != 1 {
			return nil, fmt.Errorf("expected one self name, got %d", len(names))
		}
		self = names[0]
	}

	bodies := make([]types.Node, 0, 3)
	for _, src := range srcs[1:4] {
		node, err := e.parseSource(src)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, node)
	}

	return types.NewObject(map[string]types.Value{
		callableField: types.NewString(callableDefined),
		"params":      stringCollection(params),
		"predicate":   types.NewString(srcs[1]),
		"base":        types.NewString(srcs[2]),
		"step":        types.NewString(srcs[3]),
		"self":        types.NewString(self),
		"env":         capture(scope, bodies...),
	}), nil
}
