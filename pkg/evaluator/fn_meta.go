package evaluator

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/godel"
	"github.com/sandrolain/gologic/pkg/types"
)

// defaultDiagVar is the variable diagonalization substitutes by default.
const defaultDiagVar = "x"

// canonical parses src and returns its canonical rendering and tree.
func (e *Evaluator) canonical(src string) (string, types.Node, error) {
	node, err := e.parseSource(src)
	if err != nil {
		return "", nil, err
	}
	return types.Render(node), node, nil
}

// decodeFormula decodes n and accepts only canonical formula text, so that
// encoding the result gives back n.
func (e *Evaluator) decodeFormula(n *big.Int) (string, error) {
	text, err := godel.Decode(n)
	if err != nil {
		return "", err
	}
	canon, _, err := e.canonical(text)
	if err != nil {
		return "", fmt.Errorf("%w: decoded text is not a formula: %w", godel.ErrNotAnEncoding, err)
	}
	if canon != text {
		return "", fmt.Errorf("%w: %q is not in canonical form", godel.ErrNotAnEncoding, text)
	}
	return text, nil
}

// diagonalize substitutes the Gödel number of template for the free
// occurrences of v in template.
func (e *Evaluator) diagonalize(template, v string) (string, error) {
	text, node, err := e.canonical(template)
	if err != nil {
		return "", err
	}
	code := &types.Literal{Value: types.NewBigInt(godel.Encode(text))}
	return types.Render(types.Substitute(node, v, code)), nil
}

func diagVar(fn string, args []types.Value, i int) (string, error) {
	if _, ok := functions.Optional(args, i); !ok {
		return defaultDiagVar, nil
	}
	v, err := functions.String(fn, args, i)
	if err != nil {
		return "", err
	}
	if !types.IsIdentifier(v) {
		return "", fmt.Errorf("%q is not a variable name", v)
	}
	return v, nil
}

func metaFunctions(e *Evaluator) []functions.Definition {
	return []functions.Definition{
		{
			Name:        "meta.encode_formula",
			Params:      []types.ParamKind{types.ParamString},
			Returns:     types.ParamInteger,
			Description: "Gödel number of the canonical form of a formula",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				src, err := functions.String("meta.encode_formula", args, 0)
				if err != nil {
					return nil, err
				}
				text, _, err := e.canonical(src)
				if err != nil {
					return nil, err
				}
				return types.NewBigInt(godel.Encode(text)), nil
			},
		},
		{
			Name:        "meta.decode_formula",
			Params:      []types.ParamKind{types.ParamInteger},
			Returns:     types.ParamString,
			Description: "Formula whose Gödel number is n",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				n, err := functions.Int("meta.decode_formula", args, 0)
				if err != nil {
					return nil, err
				}
				text, err := e.decodeFormula(n)
				if err != nil {
					return nil, err
				}
				return types.NewString(text), nil
			},
		},
		{
			Name:        "meta.quote",
			Params:      []types.ParamKind{types.ParamAny},
			Returns:     types.ParamString,
			Description: "Canonical source of the unevaluated argument",
			Pure:        true,
			Lazy:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				src, err := functions.String("meta.quote", args, 0)
				if err != nil {
					return nil, err
				}
				return types.NewString(src), nil
			},
		},
		{
			Name:        "meta.eval",
			Params:      []types.ParamKind{types.ParamString},
			Returns:     types.ParamAny,
			Description: "Value of a formula evaluated with the caller's variables visible",
			NeedsScope:  true,
			Fn: func(ctx context.Context, args []types.Value, scope functions.Scope) (types.Value, error) {
				src, err := functions.String("meta.eval", args, 0)
				if err != nil {
					return nil, err
				}
				return e.EvaluateIn(ctx, src, scope)
			},
		},
		{
			Name:        "meta.substitute",
			Params:      []types.ParamKind{types.ParamString, types.ParamString, types.ParamAny},
			Returns:     types.ParamString,
			Description: "Formula with the free occurrences of a variable replaced by a value",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				src, err := functions.String("meta.substitute", args, 0)
				if err != nil {
					return nil, err
				}
				name, err := functions.String("meta.substitute", args, 1)
				if err != nil {
					return nil, err
				}
				_, node, err := e.canonical(src)
				if err != nil {
					return nil, err
				}
				out := types.Substitute(node, name, &types.Literal{Value: args[2]})
				return types.NewString(types.Render(out)), nil
			},
		},
		{
			Name:        "meta.diagonalize",
			Params:      []types.ParamKind{types.ParamString, types.ParamString},
			Optional:    1,
			Returns:     types.ParamString,
			Description: "Template applied to its own Gödel number",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				template, err := functions.String("meta.diagonalize", args, 0)
				if err != nil {
					return nil, err
				}
				v, err := diagVar("meta.diagonalize", args, 1)
				if err != nil {
					return nil, err
				}
				out, err := e.diagonalize(template, v)
				if err != nil {
					return nil, err
				}
				return types.NewString(out), nil
			},
		},
		{
			Name:        "meta.diag",
			Params:      []types.ParamKind{types.ParamInteger, types.ParamString},
			Optional:    1,
			Returns:     types.ParamInteger,
			Description: "Gödel number of the diagonalization of the formula numbered n",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				n, err := functions.Int("meta.diag", args, 0)
				if err != nil {
					return nil, err
				}
				v, err := diagVar("meta.diag", args, 1)
				if err != nil {
					return nil, err
				}
				template, err := e.decodeFormula(n)
				if err != nil {
					return nil, err
				}
				out, err := e.diagonalize(template, v)
				if err != nil {
					return nil, err
				}
				return types.NewBigInt(godel.Encode(out)), nil
			},
		},
		{
			Name:        "meta.self_reference",
			Params:      []types.ParamKind{types.ParamString, types.ParamString},
			Optional:    1,
			Returns:     types.ParamString,
			Description: "Formula G such that G is template applied to the Gödel number of G",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				template, err := functions.String("meta.self_reference", args, 0)
				if err != nil {
					return nil, err
				}
				v, err := diagVar("meta.self_reference", args, 1)
				if err != nil {
					return nil, err
				}
				out, err := e.selfReference(template, v)
				if err != nil {
					return nil, err
				}
				return types.NewString(out), nil
			},
		},
		{
			Name:        "meta.formulas",
			Returns:     types.ParamObject,
			Description: "Registered formulas by name",
			Fn: func(context.Context, []types.Value, functions.Scope) (types.Value, error) {
				fields := make(map[string]types.Value)
				for name, src := range e.Formulas() {
					fields[name] = types.NewString(src)
				}
				return types.NewObject(fields), nil
			},
		},
	}
}

// selfReference builds G with G equivalent to template(⌜G⌝) by the
// diagonal lemma: psi = template[v := meta.diag(v)], G = diag(psi).
// Evaluating the meta.diag call inside G yields the Gödel number of G.
func (e *Evaluator) selfReference(template, v string) (string, error) {
	_, node, err := e.canonical(template)
	if err != nil {
		return "", err
	}
	call := &types.FunctionCall{
		Name: "meta.diag",
		Args: []types.Node{&types.Variable{Name: v}, &types.Literal{Value: types.NewString(v)}},
	}
	psi := types.Render(types.Substitute(node, v, call))
	return e.diagonalize(psi, v)
}

// formulaSources returns the sources of a formulas argument: a collection
// of formula strings, or every registered formula in name order.
func (e *Evaluator) formulaSources(fn string, args []types.Value, i int) ([]string, error) {
	if _, ok := functions.Optional(args, i); ok {
		return functions.Strings(fn, args, i)
	}
	registered := e.Formulas()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)
	srcs := make([]string, len(names))
	for j, name := range names {
		srcs[j] = registered[name]
	}
	return srcs, nil
}
