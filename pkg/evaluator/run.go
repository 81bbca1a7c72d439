package evaluator

import (
	"context"
	"errors"

	"github.com/sandrolain/gologic/pkg/parser"
	"github.com/sandrolain/gologic/pkg/types"
)

// Rule test outcomes reported by ExecuteAllRuleTests.
const (
	StatusPass  = "pass"
	StatusFail  = "fail"
	StatusError = "error"
)

// Report is the outcome of Check: the value plus every forall violation
// recorded while computing it, in recording order.
type Report struct {
	Value      types.Value
	Violations []*types.ForallViolation

	violation *types.ForallViolation // outermost
}

// Outermost returns the violation recorded closest to the root of the
// formula, or nil.
func (r *Report) Outermost() *types.ForallViolation {
	return r.violation
}

// Evaluate evaluates node in c. A nil c is treated as an empty context.
func (e *Evaluator) Evaluate(ctx context.Context, node types.Node, c *EvalContext) (types.Value, error) {
	if node == nil {
		return nil, errors.New("invalid expression")
	}
	ctx, _, cancel := e.begin(ctx)
	defer cancel()
	return e.evalNode(ctx, node, contextOrNew(c))
}

// EvaluateSource parses src as a program and evaluates it in a scope pushed
// on c, so let statements do not outlive the call. It returns the value of
// the last expression statement; test statements are skipped.
func (e *Evaluator) EvaluateSource(ctx context.Context, src string, c *EvalContext) (types.Value, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, prog, c)
}

// Run is like EvaluateSource but evaluates the statements directly in c, so
// let statements stay bound afterwards. The REPL uses it.
func (e *Evaluator) Run(ctx context.Context, src string, c *EvalContext) (types.Value, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	ctx, _, cancel := e.begin(ctx)
	defer cancel()
	return e.evalStatements(ctx, prog.Statements, contextOrNew(c))
}

// EvaluateCondition evaluates node and requires a Boolean. When the result
// is false and a forall violation was recorded, the outermost violation is
// returned as the error alongside false.
func (e *Evaluator) EvaluateCondition(ctx context.Context, node types.Node, c *EvalContext) (bool, error) {
	report, err := e.Check(ctx, node, c)
	if err != nil {
		return false, err
	}
	return e.condition(report, node.Pos())
}

func (e *Evaluator) condition(report *Report, pos types.Position) (bool, error) {
	b, ok := types.Truth(report.Value)
	if !ok {
		return false, &types.TypeMismatchError{Operator: "condition", Expected: "boolean", Got: report.Value.Kind(), Position: pos}
	}
	if !b && report.violation != nil {
		return false, report.violation
	}
	return b, nil
}

// Check evaluates node and reports the forall violations recorded on the
// way, including those of subformulas that did not decide the result.
func (e *Evaluator) Check(ctx context.Context, node types.Node, c *EvalContext) (*Report, error) {
	if node == nil {
		return nil, errors.New("invalid expression")
	}
	ctx, st, cancel := e.begin(ctx)
	defer cancel()

	mark := len(st.violations)
	v, err := e.evalNode(ctx, node, contextOrNew(c))
	if err != nil {
		return nil, err
	}
	recorded := st.violations[mark:]
	report := &Report{Value: v, violation: outermost(recorded)}
	for _, r := range recorded {
		report.Violations = append(report.Violations, r.violation)
	}
	return report, nil
}

// ExecuteRule evaluates the executable part of a rule source against facts
// bound in c. Test statements are skipped. When the rule evaluates to false
// and a forall failed, the outermost violation is returned as the error
// alongside the value.
func (e *Evaluator) ExecuteRule(ctx context.Context, src string, c *EvalContext) (types.Value, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	report, err := e.Check(ctx, prog, c)
	if err != nil {
		return nil, err
	}
	if e.opts.Debug {
		e.logger.Debug("rule executed", "value", report.Value.String(), "violations", len(report.Violations))
	}
	if b, ok := types.Truth(report.Value); ok && !b && report.violation != nil {
		return report.Value, report.violation
	}
	return report.Value, nil
}

// ExecuteAllRuleTests runs every test statement of src in isolation. See
// ExecuteRuleTests.
func (e *Evaluator) ExecuteAllRuleTests(ctx context.Context, src string) ([]types.Value, error) {
	return e.ExecuteRuleTests(ctx, src, nil)
}

// ExecuteRuleTests runs every test statement of src, each in a fresh
// context over facts (which may be nil) with the let statements preceding
// it bound. Each test yields an Object
//
//	{name, status: "pass" | "fail" | "error", message, counterexamples}
//
// A failing or erroring test does not stop the others. Only a parse error
// of src fails the whole call.
func (e *Evaluator) ExecuteRuleTests(ctx context.Context, src string, facts *EvalContext) ([]types.Value, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}

	var results []types.Value
	for i, s := range prog.Statements {
		if s.Kind != types.StmtTest {
			continue
		}
		result := e.runRuleTest(ctx, prog.Statements[:i], s, facts)
		if e.opts.Debug {
			status, _ := result.Get("status")
			e.logger.Debug("rule test finished", "name", s.Name, "status", status.String())
		}
		results = append(results, result)
	}
	return results, nil
}

func (e *Evaluator) runRuleTest(ctx context.Context, preceding []*types.Statement, test *types.Statement, facts *EvalContext) types.ObjectValue {
	c := NewContext()
	if facts != nil {
		c = facts.NewChild()
	}

	ctx, _, cancel := e.begin(ctx)
	defer cancel()

	for _, s := range preceding {
		if s.Kind != types.StmtLet {
			continue
		}
		if _, err := e.evalNode(ctx, s, c); err != nil {
			return testResult(test.Name, StatusError, err.Error(), nil)
		}
	}

	report, err := e.Check(ctx, test.Body, c)
	if err != nil {
		return testResult(test.Name, StatusError, err.Error(), nil)
	}
	ok, err := e.condition(report, test.Body.Pos())
	switch {
	case ok:
		return testResult(test.Name, StatusPass, "", nil)
	case err == nil:
		return testResult(test.Name, StatusFail, "evaluated to false", nil)
	}
	var v *types.ForallViolation
	if errors.As(err, &v) {
		return testResult(test.Name, StatusFail, v.Error(), v.Counterexamples)
	}
	return testResult(test.Name, StatusError, err.Error(), nil)
}

func testResult(name, status, message string, counterexamples []types.Value) types.ObjectValue {
	return types.NewObject(map[string]types.Value{
		"name":            types.NewString(name),
		"status":          types.NewString(status),
		"message":         types.NewString(message),
		"counterexamples": types.NewCollection(counterexamples...),
	}).(types.ObjectValue)
}

func contextOrNew(c *EvalContext) *EvalContext {
	if c == nil {
		return NewContext()
	}
	return c
}
