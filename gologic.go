// Package gologic evaluates formulas of a small first-order logic language
// over collections of facts.
//
// Formulas combine arithmetic, comparison, set membership, the logical
// connectives and the quantifiers forall and exists, in textual or symbolic
// notation:
//
//	forall f in files: string.ends_with(f, ".go")
//	∀ x ∈ [1, 2, 3]: x < 10 ∧ x ≠ 0
//
// A failed forall reports its counterexamples as a *types.ForallViolation.
// Programs may bind names with let and declare named tests:
//
//	let limit = 10;
//	test "small": forall x in xs: x < limit
//
// # Quick Start
//
//	// Simple evaluation
//	v, err := gologic.Eval("forall x in xs: x > 0", map[string]any{"xs": []any{1, 2}})
//
//	// Compile once, evaluate many times
//	prog, err := gologic.Compile("exists x in xs: x == target")
//	ev := evaluator.MustNew(evaluator.WithCaching(true))
//	v1, _ := ev.Evaluate(ctx, prog.Program(), facts1)
//	v2, _ := ev.Evaluate(ctx, prog.Program(), facts2)
//
//	// Run the test statements of a rule file
//	results, err := gologic.Test(ctx, src, facts)
//
// # More Information
//
//   - Parser: github.com/sandrolain/gologic/pkg/parser
//   - Evaluator: github.com/sandrolain/gologic/pkg/evaluator
//   - Functions: github.com/sandrolain/gologic/pkg/functions
//   - Function packs: github.com/sandrolain/gologic/pkg/ext
//   - Types: github.com/sandrolain/gologic/pkg/types
//   - YAML configuration and facts: github.com/sandrolain/gologic/pkg/config
package gologic

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/parser"
	"github.com/sandrolain/gologic/pkg/types"
)

// DefaultTimeout bounds Eval when the caller gives no context.
const DefaultTimeout = 30 * time.Second

// Version returns the current version of gologic.
func Version() string {
	return "v0.1.0-dev"
}

// Compile parses a program for repeated evaluation. The result is safe for
// concurrent use.
func Compile(src string, opts ...parser.CompileOption) (*types.Compiled, error) {
	return parser.Compile(src, opts...)
}

// MustCompile is like Compile but panics if src cannot be parsed.
// It simplifies safe initialization of global variables.
func MustCompile(src string) *types.Compiled {
	prog, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("gologic: Compile(%q): %v", src, err))
	}
	return prog
}

// Facts converts decoded YAML or JSON values into a context binding one
// variable per key.
func Facts(facts map[string]any) (*evaluator.EvalContext, error) {
	c := evaluator.NewContext()
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := types.FromNative(facts[k])
		if err != nil {
			return nil, fmt.Errorf("fact %q: %w", k, err)
		}
		c.BindVariable(k, v)
	}
	return c, nil
}

// Eval parses and evaluates src against facts with a DefaultTimeout.
//
// For repeated evaluations, build an evaluator.Evaluator and reuse it.
func Eval(src string, facts map[string]any, opts ...evaluator.EvalOption) (types.Value, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return EvalWithContext(ctx, src, facts, opts...)
}

// EvalWithContext evaluates src against facts under ctx.
func EvalWithContext(ctx context.Context, src string, facts map[string]any, opts ...evaluator.EvalOption) (types.Value, error) {
	ev, c, err := setup(facts, opts)
	if err != nil {
		return nil, err
	}
	return ev.EvaluateSource(ctx, src, c)
}

// Check evaluates a formula and reports every forall violation it met,
// including those hidden under a surrounding negation or disjunction.
func Check(ctx context.Context, src string, facts map[string]any, opts ...evaluator.EvalOption) (*evaluator.Report, error) {
	node, err := parser.ParseExpression(src)
	if err != nil {
		return nil, err
	}
	ev, c, err := setup(facts, opts)
	if err != nil {
		return nil, err
	}
	return ev.Check(ctx, node, c)
}

// Test runs every test statement of src against facts and returns one
// result object per test.
func Test(ctx context.Context, src string, facts map[string]any, opts ...evaluator.EvalOption) ([]types.Value, error) {
	ev, c, err := setup(facts, opts)
	if err != nil {
		return nil, err
	}
	return ev.ExecuteRuleTests(ctx, src, c)
}

func setup(facts map[string]any, opts []evaluator.EvalOption) (*evaluator.Evaluator, *evaluator.EvalContext, error) {
	c, err := Facts(facts)
	if err != nil {
		return nil, nil, err
	}
	ev, err := evaluator.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return ev, c, nil
}
