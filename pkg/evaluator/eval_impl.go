package evaluator

import (
	"context"
	"fmt"

	"github.com/sandrolain/gologic/pkg/types"
)

// callState is the per-call state shared by every node of one top-level
// evaluation. It travels in the context.Context so that nested evaluations
// started by builtins keep counting depth and recording violations.
type callState struct {
	depth      int
	violations []recordedViolation
}

// recordedViolation is a forall violation and the depth it was recorded at.
type recordedViolation struct {
	depth     int
	violation *types.ForallViolation
}

type stateKey struct{}

// begin returns a context carrying call state. A context that already
// carries state is reused as is; otherwise the configured timeout is
// applied and fresh state is attached.
func (e *Evaluator) begin(ctx context.Context) (context.Context, *callState, context.CancelFunc) {
	if st, ok := ctx.Value(stateKey{}).(*callState); ok {
		return ctx, st, func() {}
	}
	cancel := context.CancelFunc(func() {})
	if e.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
	}
	st := &callState{}
	return context.WithValue(ctx, stateKey{}, st), st, cancel
}

func stateFrom(ctx context.Context) *callState {
	if st, ok := ctx.Value(stateKey{}).(*callState); ok {
		return st
	}
	return &callState{}
}

// recordViolation attaches a forall violation to the current call.
func recordViolation(ctx context.Context, v *types.ForallViolation) {
	st := stateFrom(ctx)
	st.violations = append(st.violations, recordedViolation{depth: st.depth, violation: v})
}

// outermost returns the violation recorded closest to the root, earliest
// first, among vs.
func outermost(vs []recordedViolation) *types.ForallViolation {
	var best *recordedViolation
	for i := range vs {
		if best == nil || vs[i].depth < best.depth {
			best = &vs[i]
		}
	}
	if best == nil {
		return nil
	}
	return best.violation
}

// evalNode evaluates an AST node in the given context.
func (e *Evaluator) evalNode(ctx context.Context, node types.Node, c *EvalContext) (types.Value, error) {
	// Check context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if node == nil {
		return types.Null, nil
	}

	st := stateFrom(ctx)
	st.depth++
	defer func() { st.depth-- }()

	if e.opts.MaxDepth > 0 && st.depth > e.opts.MaxDepth {
		return nil, types.NewEvaluationError(node.Pos(), "maximum recursion depth exceeded")
	}

	e.evaluations.Add(1)

	if e.opts.Debug {
		e.logger.Debug("evaluating node",
			"type", types.NodeName(node),
			"position", node.Pos().String(),
			"depth", st.depth)
	}

	if e.caching.Load() {
		if key, ok := e.cacheKey(node); ok {
			return e.evalCached(ctx, st, key, node, c)
		}
	}
	return e.evalTraced(ctx, st, node, c)
}

// evalTraced dispatches node, writing entry and exit trace lines when
// tracing is on.
func (e *Evaluator) evalTraced(ctx context.Context, st *callState, node types.Node, c *EvalContext) (types.Value, error) {
	if !e.tracing.Load() {
		return e.dispatch(ctx, node, c)
	}
	name := types.NodeName(node)
	e.appendTrace(st.depth, "→ "+name)
	v, err := e.dispatch(ctx, node, c)
	if err != nil {
		e.appendTrace(st.depth, "← "+name+" ! "+err.Error())
		return nil, err
	}
	e.appendTrace(st.depth, "← "+name+" = "+v.String())
	return v, nil
}

// dispatch selects the evaluation routine for the node type.
func (e *Evaluator) dispatch(ctx context.Context, node types.Node, c *EvalContext) (types.Value, error) {
	switch n := node.(type) {
	case *types.Literal:
		return n.Value, nil
	case *types.Variable:
		return e.evalVariable(n, c)
	case *types.Expression:
		return e.evalNode(ctx, n.Inner, c)
	case *types.BinaryOp:
		return e.evalBinary(ctx, n, c)
	case *types.UnaryOp:
		return e.evalUnary(ctx, n, c)
	case *types.FunctionCall:
		return e.evalFunction(ctx, n, c)
	case *types.Quantifier:
		return e.evalQuantifier(ctx, n, c)
	case *types.Conditional:
		return e.evalConditional(ctx, n, c)
	case *types.Collection:
		return e.evalCollection(ctx, n, c)
	case *types.ObjectLiteral:
		return e.evalObject(ctx, n, c)
	case *types.Lambda:
		return e.evalLambda(n, c)
	case *types.Let:
		return e.evalLet(ctx, n, c)
	case *types.Program:
		return e.evalProgram(ctx, n, c)
	case *types.Statement:
		return e.evalStatement(ctx, n, c)
	default:
		return nil, fmt.Errorf("unsupported node type: %T", node)
	}
}

func (e *Evaluator) evalVariable(n *types.Variable, c *EvalContext) (types.Value, error) {
	v, ok := c.Lookup(n.Name)
	if !ok {
		return nil, &types.UnboundVariableError{Name: n.Name, Position: n.Position}
	}
	return v, nil
}

// evalConditional evaluates the test and then exactly one branch.
func (e *Evaluator) evalConditional(ctx context.Context, n *types.Conditional, c *EvalContext) (types.Value, error) {
	test, err := e.evalNode(ctx, n.Test, c)
	if err != nil {
		return nil, err
	}
	b, ok := types.Truth(test)
	if !ok {
		return nil, &types.TypeMismatchError{Operator: "if", Expected: "boolean", Got: test.Kind(), Position: n.Test.Pos()}
	}
	if b {
		return e.evalNode(ctx, n.Then, c)
	}
	return e.evalNode(ctx, n.Else, c)
}

func (e *Evaluator) evalCollection(ctx context.Context, n *types.Collection, c *EvalContext) (types.Value, error) {
	items := make([]types.Value, len(n.Items))
	for i, item := range n.Items {
		v, err := e.evalNode(ctx, item, c)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return types.NewCollection(items...), nil
}

func (e *Evaluator) evalObject(ctx context.Context, n *types.ObjectLiteral, c *EvalContext) (types.Value, error) {
	fields := make(map[string]types.Value, len(n.Fields))
	for _, f := range n.Fields {
		v, err := e.evalNode(ctx, f.Value, c)
		if err != nil {
			return nil, err
		}
		fields[f.Key] = v
	}
	return types.NewObject(fields), nil
}

// evalLet evaluates the value outside the new binding and the body inside it.
func (e *Evaluator) evalLet(ctx context.Context, n *types.Let, c *EvalContext) (types.Value, error) {
	v, err := e.evalNode(ctx, n.Value, c)
	if err != nil {
		return nil, err
	}
	var result types.Value
	err = c.WithBinding(n.Name, v, func() error {
		var err error
		result, err = e.evalNode(ctx, n.Body, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// evalProgram runs the statements in a scope of their own and returns the
// value of the last expression statement.
func (e *Evaluator) evalProgram(ctx context.Context, p *types.Program, c *EvalContext) (types.Value, error) {
	var result types.Value
	err := c.WithScope(func() error {
		var err error
		result, err = e.evalStatements(ctx, p.Statements, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// evalStatements runs statements in the current scope. Let statements bind
// into it and test statements are skipped.
func (e *Evaluator) evalStatements(ctx context.Context, stmts []*types.Statement, c *EvalContext) (types.Value, error) {
	result := types.Null
	for _, s := range stmts {
		if s.Kind == types.StmtTest {
			continue
		}
		v, err := e.evalNode(ctx, s, c)
		if err != nil {
			return nil, err
		}
		if s.Kind == types.StmtExpression {
			result = v
		}
	}
	return result, nil
}

func (e *Evaluator) evalStatement(ctx context.Context, s *types.Statement, c *EvalContext) (types.Value, error) {
	v, err := e.evalNode(ctx, s.Body, c)
	if err != nil {
		return nil, err
	}
	if s.Kind == types.StmtLet {
		c.BindVariable(s.Name, v)
	}
	return v, nil
}
