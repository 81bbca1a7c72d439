package evaluator

import (
	"context"
	"errors"
	"sort"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// derivation is a bounded syntactic closure of a formula set. It knows
// formulas to hold or to fail, keyed by canonical rendering, and is built
// from conjunction elimination, modus ponens, modus tollens, biconditional
// elimination, negation and De Morgan on disjunctions, plus the values of
// closed formulas. It is a heuristic, not a proof search: a formula outside
// the closure may still be a consequence of the premises.
type derivation struct {
	holds     map[string]types.Node
	fails     map[string]types.Node
	conflicts map[string]bool
}

func newDerivation() *derivation {
	return &derivation{
		holds:     make(map[string]types.Node),
		fails:     make(map[string]types.Node),
		conflicts: make(map[string]bool),
	}
}

func (d *derivation) assert(n types.Node) bool {
	n = types.Unwrap(n)
	switch x := n.(type) {
	case *types.UnaryOp:
		if x.Op == types.OpNot {
			return d.deny(x.Operand)
		}
	case *types.Literal:
		if b, ok := types.Truth(x.Value); ok && !b {
			d.conflicts["false"] = true
		}
	}
	key := types.Render(n)
	if _, ok := d.holds[key]; ok {
		return false
	}
	d.holds[key] = n
	if _, ok := d.fails[key]; ok {
		d.conflicts[key] = true
	}
	return true
}

func (d *derivation) deny(n types.Node) bool {
	n = types.Unwrap(n)
	switch x := n.(type) {
	case *types.UnaryOp:
		if x.Op == types.OpNot {
			return d.assert(x.Operand)
		}
	case *types.Literal:
		if b, ok := types.Truth(x.Value); ok && b {
			d.conflicts["true"] = true
		}
	}
	key := types.Render(n)
	if _, ok := d.fails[key]; ok {
		return false
	}
	d.fails[key] = n
	if _, ok := d.holds[key]; ok {
		d.conflicts[key] = true
	}
	return true
}

func (d *derivation) known(n types.Node) (holds, fails bool) {
	n = types.Unwrap(n)
	if u, ok := n.(*types.UnaryOp); ok && u.Op == types.OpNot {
		oh, of := d.known(u.Operand)
		return of, oh
	}
	key := types.Render(n)
	_, holds = d.holds[key]
	_, fails = d.fails[key]
	return holds, fails
}

// step applies every rule once and reports whether anything was added.
func (d *derivation) step() bool {
	changed := false
	for _, n := range sortedNodes(d.holds) {
		b, ok := n.(*types.BinaryOp)
		if !ok {
			continue
		}
		switch b.Op {
		case types.OpAnd:
			changed = d.assert(b.Left) || changed
			changed = d.assert(b.Right) || changed
		case types.OpImplies:
			if h, _ := d.known(b.Left); h {
				changed = d.assert(b.Right) || changed
			}
			if _, f := d.known(b.Right); f {
				changed = d.deny(b.Left) || changed
			}
		case types.OpIff:
			lh, lf := d.known(b.Left)
			rh, rf := d.known(b.Right)
			switch {
			case lh:
				changed = d.assert(b.Right) || changed
			case rh:
				changed = d.assert(b.Left) || changed
			case lf:
				changed = d.deny(b.Right) || changed
			case rf:
				changed = d.deny(b.Left) || changed
			}
		case types.OpOr:
			// disjunctive syllogism
			if _, f := d.known(b.Left); f {
				changed = d.assert(b.Right) || changed
			}
			if _, f := d.known(b.Right); f {
				changed = d.assert(b.Left) || changed
			}
		}
	}
	for _, n := range sortedNodes(d.fails) {
		if b, ok := n.(*types.BinaryOp); ok && b.Op == types.OpOr {
			changed = d.deny(b.Left) || changed
			changed = d.deny(b.Right) || changed
		}
	}
	return changed
}

func sortedNodes(m map[string]types.Node) []types.Node {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.Node, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// derive closes premises under the rules for at most the fixpoint limit of
// rounds, then checks closed formulas against their values.
func (e *Evaluator) derive(ctx context.Context, premises []types.Node) (*derivation, error) {
	d := newDerivation()
	for _, p := range premises {
		d.assert(p)
	}
	for i := 0; i < e.opts.FixpointLimit && d.step(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for key, n := range d.holds {
		if v, ok, err := e.closedTruth(ctx, n); err != nil {
			return nil, err
		} else if ok && !v {
			d.conflicts[key] = true
		}
	}
	for key, n := range d.fails {
		if v, ok, err := e.closedTruth(ctx, n); err != nil {
			return nil, err
		} else if ok && v {
			d.conflicts[key] = true
		}
	}
	return d, nil
}

// closedTruth evaluates a formula without free variables to a Boolean.
// ok is false when the formula is open, fails, or is not Boolean; only
// cancellation is reported as an error.
func (e *Evaluator) closedTruth(ctx context.Context, n types.Node) (value, ok bool, err error) {
	if len(types.FreeVariables(n)) > 0 {
		return false, false, nil
	}
	// Violations found here belong to no caller.
	isolated := context.WithValue(ctx, stateKey{}, &callState{depth: stateFrom(ctx).depth})
	v, evalErr := e.evalNode(isolated, n, NewContext())
	if evalErr != nil {
		if errors.Is(evalErr, context.Canceled) || errors.Is(evalErr, context.DeadlineExceeded) {
			return false, false, evalErr
		}
		return false, false, nil
	}
	b, isBool := types.Truth(v)
	return b, isBool, nil
}

func (e *Evaluator) parseAll(srcs []string) ([]types.Node, error) {
	nodes := make([]types.Node, len(srcs))
	for i, src := range srcs {
		n, err := e.parseSource(src)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

func provabilityFunctions(e *Evaluator) []functions.Definition {
	return []functions.Definition{
		{
			Name:        "meta.consistency_check",
			Params:      []types.ParamKind{types.ParamCollection},
			Optional:    1,
			Returns:     types.ParamObject,
			Description: "Bounded search for a contradiction among formulas (default: the registered ones)",
			Fn: func(ctx context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				srcs, err := e.formulaSources("meta.consistency_check", args, 0)
				if err != nil {
					return nil, err
				}
				premises, err := e.parseAll(srcs)
				if err != nil {
					return nil, err
				}
				d, err := e.derive(ctx, premises)
				if err != nil {
					return nil, err
				}
				conflicts := make([]string, 0, len(d.conflicts))
				for k := range d.conflicts {
					conflicts = append(conflicts, k)
				}
				sort.Strings(conflicts)
				return types.NewObject(map[string]types.Value{
					"consistent": types.NewBool(len(conflicts) == 0),
					"conflicts":  stringCollection(conflicts),
					"formulas":   types.NewInt(int64(len(premises))),
					"derived":    types.NewInt(int64(len(d.holds) + len(d.fails))),
				}), nil
			},
		},
		{
			Name:        "meta.provable",
			Params:      []types.ParamKind{types.ParamString, types.ParamCollection},
			Optional:    1,
			Returns:     types.ParamBoolean,
			Description: "Whether a formula follows from axioms (default: the registered formulas) within the bounded closure, or is closed and true",
			Fn: func(ctx context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				src, err := functions.String("meta.provable", args, 0)
				if err != nil {
					return nil, err
				}
				goal, err := e.parseSource(src)
				if err != nil {
					return nil, err
				}
				srcs, err := e.formulaSources("meta.provable", args, 1)
				if err != nil {
					return nil, err
				}
				axioms, err := e.parseAll(srcs)
				if err != nil {
					return nil, err
				}
				d, err := e.derive(ctx, axioms)
				if err != nil {
					return nil, err
				}
				if holds, _ := d.known(goal); holds {
					return types.True, nil
				}
				v, ok, err := e.closedTruth(ctx, goal)
				if err != nil {
					return nil, err
				}
				return types.NewBool(ok && v), nil
			},
		},
	}
}
