package evaluator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// evalFunction evaluates a function call. Registered builtins win; a name
// that is not registered is applied when it is bound to a callable value.
func (e *Evaluator) evalFunction(ctx context.Context, n *types.FunctionCall, c *EvalContext) (types.Value, error) {
	def, ok := e.registry.Lookup(n.Name)
	if !ok {
		return e.evalCallableCall(ctx, n, c)
	}

	args := make([]types.Value, len(n.Args))
	if def.Lazy {
		for i, arg := range n.Args {
			args[i] = types.NewString(types.Render(arg))
		}
	} else {
		for i, arg := range n.Args {
			v, err := e.evalNode(ctx, arg, c)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
	}
	return e.invoke(ctx, def, args, c, n.Position)
}

// invoke validates args against the signature of def, then runs it.
func (e *Evaluator) invoke(ctx context.Context, def *functions.Definition, args []types.Value, c *EvalContext, pos types.Position) (types.Value, error) {
	if err := def.CheckArgs(args); err != nil {
		var tm *types.TypeMismatchError
		if errors.As(err, &tm) {
			tm.Position = pos
		}
		return nil, err
	}

	e.functionCalls.Add(1)
	if e.opts.Debug {
		e.logger.Debug("calling function", "name", def.Name, "args", len(args))
	}

	var result types.Value
	call := func() error {
		var err error
		result, err = def.Fn(ctx, args, c)
		return err
	}
	var err error
	if def.NeedsScope {
		err = c.WithScope(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, wrapCallError(def.Name, args, pos, err)
	}

	if result == nil {
		result = types.Null
	}
	if !def.Returns.Accepts(result.Kind()) {
		return nil, &types.EvaluationError{
			Function: def.Name,
			Args:     args,
			Position: pos,
			Message:  fmt.Sprintf("returned %s, declared %s", result.Kind(), def.Returns),
		}
	}
	return result, nil
}

// wrapCallError attaches the call to a builtin failure. Errors that already
// identify a call, and cancellations, pass through unchanged.
func wrapCallError(name string, args []types.Value, pos types.Position, err error) error {
	var ee *types.EvaluationError
	if errors.As(err, &ee) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &types.EvaluationError{Function: name, Args: args, Position: pos, Err: err}
}

func (e *Evaluator) evalCallableCall(ctx context.Context, n *types.FunctionCall, c *EvalContext) (types.Value, error) {
	bound, ok := c.Lookup(n.Name)
	if !ok {
		return nil, &types.UnknownFunctionError{Name: n.Name, Position: n.Position}
	}
	fn, ok := asCallable(bound)
	if !ok {
		return nil, &types.TypeMismatchError{Operator: n.Name, Expected: "callable", Got: bound.Kind(), Position: n.Position}
	}

	args := make([]types.Value, len(n.Args))
	for i, arg := range n.Args {
		v, err := e.evalNode(ctx, arg, c)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return e.apply(ctx, n.Name, fn, args, c)
}

// Call applies fn to args. fn is either a String naming a registered
// builtin or a callable Object such as a lambda. Call implements
// functions.Caller, which higher-order builtins use to call back into the
// evaluator.
func (e *Evaluator) Call(ctx context.Context, fn types.Value, args ...types.Value) (types.Value, error) {
	ctx, _, cancel := e.begin(ctx)
	defer cancel()

	switch f := fn.(type) {
	case types.StringValue:
		def, ok := e.registry.Lookup(f.Str())
		if !ok {
			return nil, &types.UnknownFunctionError{Name: f.Str()}
		}
		return e.invoke(ctx, def, args, NewContext(), types.Position{})
	case types.ObjectValue:
		if obj, ok := asCallable(f); ok {
			return e.apply(ctx, callableName(obj), obj, args, nil)
		}
	}
	return nil, &types.TypeMismatchError{Operator: "call", Expected: "callable or function name", Got: fn.Kind()}
}

// EvaluateIn parses src and evaluates it with the variables of scope
// visible. It implements functions.Caller.
func (e *Evaluator) EvaluateIn(ctx context.Context, src string, scope functions.Scope) (types.Value, error) {
	ctx, _, cancel := e.begin(ctx)
	defer cancel()
	return e.evalSource(ctx, src, newContextWithParent(scope))
}

// evalSource parses src through the source cache and evaluates it in c.
func (e *Evaluator) evalSource(ctx context.Context, src string, c *EvalContext) (types.Value, error) {
	node, err := e.parseSource(src)
	if err != nil {
		return nil, err
	}
	return e.evalNode(ctx, node, c)
}
