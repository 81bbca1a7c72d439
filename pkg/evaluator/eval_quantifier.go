package evaluator

import (
	"context"

	"github.com/sandrolain/gologic/pkg/types"
)

// evalQuantifier ranges the bound variable over the domain in order.
//
// exists stops at the first element satisfying the predicate. forall stops
// at the first failing element, or visits the whole domain when
// counterexample collection is on, and records a ForallViolation carrying
// the failing elements. An empty domain satisfies forall and fails exists.
func (e *Evaluator) evalQuantifier(ctx context.Context, q *types.Quantifier, c *EvalContext) (types.Value, error) {
	dom, err := e.evalNode(ctx, q.Domain, c)
	if err != nil {
		return nil, err
	}
	coll, ok := dom.(types.CollectionValue)
	if !ok {
		return nil, &types.TypeMismatchError{
			Operator: string(q.Kind),
			Expected: "collection",
			Got:      dom.Kind(),
			Position: q.Domain.Pos(),
		}
	}

	var failing []types.Value
	for i := 0; i < coll.Len(); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		item := coll.At(i)
		holds, err := e.predicate(ctx, q, item, c)
		if err != nil {
			return nil, err
		}

		if q.Kind == types.Exists {
			if holds {
				return types.True, nil
			}
			continue
		}
		if !holds {
			failing = append(failing, item)
			if !e.opts.CollectCounterexamples {
				break
			}
		}
	}

	if q.Kind == types.Exists {
		return types.False, nil
	}
	if len(failing) == 0 {
		return types.True, nil
	}

	v := &types.ForallViolation{
		Variable:        q.Variable,
		Counterexamples: failing,
		Message:         types.Render(q.Predicate),
		Position:        q.Position,
	}
	recordViolation(ctx, v)
	if e.opts.Debug {
		e.logger.Debug("forall violated",
			"variable", q.Variable,
			"counterexamples", len(failing),
			"position", q.Position.String())
	}
	return types.False, nil
}

// predicate evaluates the quantifier body with the variable bound to item.
func (e *Evaluator) predicate(ctx context.Context, q *types.Quantifier, item types.Value, c *EvalContext) (bool, error) {
	var holds bool
	err := c.WithBinding(q.Variable, item, func() error {
		v, err := e.evalNode(ctx, q.Predicate, c)
		if err != nil {
			return err
		}
		b, ok := types.Truth(v)
		if !ok {
			return &types.TypeMismatchError{
				Operator: string(q.Kind),
				Expected: "boolean predicate",
				Got:      v.Kind(),
				Position: q.Predicate.Pos(),
			}
		}
		holds = b
		return nil
	})
	return holds, err
}
