package evaluator_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/parser"
	"github.com/sandrolain/gologic/pkg/types"
)

func newEvaluator(t *testing.T, opts ...evaluator.EvalOption) *evaluator.Evaluator {
	t.Helper()
	ev, err := evaluator.New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ev
}

func evalSource(t *testing.T, ev *evaluator.Evaluator, src string) types.Value {
	t.Helper()
	v, err := ev.EvaluateSource(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("EvaluateSource(%q): %v", src, err)
	}
	return v
}

func mustParse(t *testing.T, src string) types.Node {
	t.Helper()
	n, err := parser.ParseExpression(src)
	if err != nil {
		t.Fatalf("ParseExpression(%q): %v", src, err)
	}
	return n
}

func ints(ns ...int64) types.Value {
	items := make([]types.Value, len(ns))
	for i, n := range ns {
		items[i] = types.NewInt(n)
	}
	return types.NewCollection(items...)
}

func TestArithmetic(t *testing.T) {
	ev := newEvaluator(t)
	tests := []struct {
		src  string
		want types.Value
	}{
		{"math.add(2, 3)", types.NewInt(5)},
		{"math.divide(7, 2)", types.NewInt(3)},
		{"math.modulo(7, 2)", types.NewInt(1)},
		{"peano.successor(peano.predecessor(5))", types.NewInt(5)},
		{"7 / 2", types.NewInt(3)},
		{"-7 / 2", types.NewInt(-3)},
		{"-7 % 2", types.NewInt(-1)},
		{"7.0 / 2", types.NewFloat(3.5)},
		{"2 + 1.5", types.NewFloat(3.5)},
		{"2 * 3 + 4", types.NewInt(10)},
		{"2 * (3 + 4)", types.NewInt(14)},
		{"-(5) + 1", types.NewInt(-4)},
		{"math.power(2, 10)", types.NewInt(1024)},
		{"math.power(2, 0.5) > 1.41", types.True},
		{"math.abs(-3)", types.NewInt(3)},
		{"math.negate(2.5)", types.NewFloat(-2.5)},
		{"math.min(3, 1.5, 2)", types.NewFloat(1.5)},
		{"math.max(3, 1.5, 2)", types.NewInt(3)},
		{"peano.add(2, 3) == peano.successor(4)", types.True},
		{"peano.multiply(3, 4)", types.NewInt(12)},
		{"peano.is_zero(peano.zero())", types.True},
		{`"a" + "b"`, types.NewString("ab")},
		{"[1] + [2, 3]", ints(1, 2, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := evalSource(t, ev, tt.src)
			if got.Kind() != tt.want.Kind() || !types.Equal(got, tt.want) {
				t.Fatalf("%s = %s (%s), want %s (%s)", tt.src, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestBigIntegers(t *testing.T) {
	ev := newEvaluator(t)
	got := evalSource(t, ev, "math.power(2, 100) - math.power(2, 100) + 1")
	if !types.Equal(got, types.NewInt(1)) {
		t.Fatalf("got %s", got)
	}
	got = evalSource(t, ev, "math.power(2, 64)")
	if got.String() != "18446744073709551616" {
		t.Fatalf("2^64 = %s", got)
	}
}

func TestEndToEnd(t *testing.T) {
	ev := newEvaluator(t)
	if got := evalSource(t, ev, `string.concat("a", "b")`); !types.Equal(got, types.NewString("ab")) {
		t.Fatalf("concat = %s", got)
	}
	if got := evalSource(t, ev, `if math.add(1,1) == 2 then "yes" else "no"`); !types.Equal(got, types.NewString("yes")) {
		t.Fatalf("conditional = %s", got)
	}
}

func TestComparisonAndMembership(t *testing.T) {
	ev := newEvaluator(t)
	tests := map[string]bool{
		"1 < 2":                            true,
		"2 <= 2.0":                         true,
		`"abc" < "abd"`:                    true,
		"2 == 2.0":                         true,
		"[1, 2] == [1, 2]":                 true,
		"[1, 2] != [2, 1]":                 true,
		"2 in [1, 2, 3]":                   true,
		"2 ∈ [1, 3]":                       false,
		`"ell" in "hello"`:                 true,
		`"a" in {a: 1}`:                    true,
		"1 ≠ 2 ∧ 3 ≥ 3":                    true,
		"true iff false":                   false,
		"true ↔ true":                      true,
		"not true or true":                 true,
		"false implies false":              true,
		"true → false":                     false,
		"null == null":                     true,
		`{a: 1, b: [2]} == {b: [2], a: 1}`: true,
	}
	for src, want := range tests {
		got := evalSource(t, ev, src)
		if !types.Equal(got, types.NewBool(want)) {
			t.Fatalf("%s = %s, want %t", src, got, want)
		}
	}
}

func TestShortCircuit(t *testing.T) {
	ev := newEvaluator(t)
	tests := map[string]types.Value{
		"false and foo.bar(1)":                     types.False,
		"true or foo.bar(1)":                       types.True,
		"false implies foo.bar(1)":                 types.True,
		"if true then 1 else foo.bar()":            types.NewInt(1),
		"if false then foo.bar() else 2":           types.NewInt(2),
		"exists x in [1, 2]: x == 1 or foo.bar(x)": types.True,
	}
	for src, want := range tests {
		if got := evalSource(t, ev, src); !types.Equal(got, want) {
			t.Fatalf("%s = %s, want %s", src, got, want)
		}
	}
}

func TestQuantifiers(t *testing.T) {
	ev := newEvaluator(t)
	ctx := context.Background()
	tests := map[string]bool{
		"forall x in []: x > 0":                         true,
		"exists x in []: x > 0":                         false,
		"forall x in [1, 2, 3]: x < 10":                 true,
		"exists x in [1, 2, 3]: x == 2":                 true,
		"forall x in [1, 2]: exists y in [2, 3]: y > x": true,
	}
	for src, want := range tests {
		got, err := ev.EvaluateCondition(ctx, mustParse(t, src), nil)
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		if got != want {
			t.Fatalf("%s = %t, want %t", src, got, want)
		}
	}
}

func TestForallViolation(t *testing.T) {
	ev := newEvaluator(t)
	for _, src := range []string{
		"forall x in [1, 2, 11]: x < 10",
		"forall x in [1,2,11], x < 10",
		"∀x ∈ [1, 2, 11]: x < 10",
	} {
		ok, err := ev.EvaluateCondition(context.Background(), mustParse(t, src), nil)
		if ok {
			t.Fatalf("%s held", src)
		}
		var v *types.ForallViolation
		if !errors.As(err, &v) {
			t.Fatalf("%s: error = %v, want *ForallViolation", src, err)
		}
		if v.Variable != "x" || len(v.Counterexamples) != 1 || !types.Equal(v.Counterexamples[0], types.NewInt(11)) {
			t.Fatalf("%s: violation = %+v", src, v)
		}
		if v.Message != "x < 10" {
			t.Fatalf("message = %q", v.Message)
		}
	}
}

func TestForallStopsAtFirstFailure(t *testing.T) {
	ev := newEvaluator(t)
	// The second element would fail with a type error if it were visited.
	ok, err := ev.EvaluateCondition(context.Background(), mustParse(t, `forall x in [20, "a"]: x < 10`), nil)
	var v *types.ForallViolation
	if ok || !errors.As(err, &v) {
		t.Fatalf("got %t, %v", ok, err)
	}
}

func TestCollectCounterexamples(t *testing.T) {
	ev := newEvaluator(t, evaluator.WithCollectCounterexamples(true))
	_, err := ev.EvaluateCondition(context.Background(), mustParse(t, "forall x in [1, 20, 3, 30]: x < 10"), nil)
	var v *types.ForallViolation
	if !errors.As(err, &v) {
		t.Fatalf("error = %v", err)
	}
	if !types.Equal(types.NewCollection(v.Counterexamples...), ints(20, 30)) {
		t.Fatalf("counterexamples = %v", v.Counterexamples)
	}
}

func TestOutermostViolation(t *testing.T) {
	ev := newEvaluator(t)
	src := "forall xs in [[1], [5, 50]]: forall x in xs: x < 10"
	_, err := ev.EvaluateCondition(context.Background(), mustParse(t, src), nil)
	var v *types.ForallViolation
	if !errors.As(err, &v) {
		t.Fatalf("error = %v", err)
	}
	if v.Variable != "xs" || !types.Equal(v.Counterexamples[0], ints(5, 50)) {
		t.Fatalf("violation = %v", v)
	}

	report, err := ev.Check(context.Background(), mustParse(t, src), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Violations) != 2 || report.Outermost() != report.Violations[1] {
		t.Fatalf("report = %+v", report)
	}
}

func TestDualNotationEvaluation(t *testing.T) {
	ev := newEvaluator(t)
	textual := mustParse(t, "forall x in [1,2,3]: x < 10")
	symbolic := mustParse(t, "∀x ∈ [1,2,3]: x < 10")
	if !types.Equivalent(textual, symbolic) {
		t.Fatalf("ASTs differ: %s vs %s", types.Render(textual), types.Render(symbolic))
	}
	a, err := ev.Evaluate(context.Background(), textual, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ev.Evaluate(context.Background(), symbolic, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !types.Equal(a, b) {
		t.Fatalf("%s != %s", a, b)
	}
}

func TestErrors(t *testing.T) {
	ev := newEvaluator(t)
	ctx := context.Background()

	_, err := ev.EvaluateSource(ctx, "1 + foo.bar(1)", nil)
	var unknown *types.UnknownFunctionError
	if !errors.As(err, &unknown) || unknown.Name != "foo.bar" {
		t.Fatalf("error = %v, want UnknownFunctionError{foo.bar}", err)
	}

	_, err = ev.EvaluateSource(ctx, "y + 1", nil)
	var unbound *types.UnboundVariableError
	if !errors.As(err, &unbound) || unbound.Name != "y" {
		t.Fatalf("error = %v, want UnboundVariableError{y}", err)
	}

	_, err = ev.EvaluateSource(ctx, "math.add(1)", nil)
	var arity *types.ArityError
	if !errors.As(err, &arity) || arity.Function != "math.add" || arity.Got != 1 {
		t.Fatalf("error = %v, want ArityError", err)
	}

	mismatches := map[string]string{
		"string.length(1)":    "string.length",
		"1 and true":          "and",
		"if 1 then 2 else 3":  "if",
		`"a" < 1`:             "<",
		"not 1":               "not",
		"-true":               "neg",
		"forall x in 5: true": "forall",
		"exists x in [1]: x":  "exists",
		"1 in 2":              "in",
	}
	for src, op := range mismatches {
		_, err := ev.EvaluateSource(ctx, src, nil)
		var tm *types.TypeMismatchError
		if !errors.As(err, &tm) || tm.Operator != op {
			t.Fatalf("%s: error = %v, want TypeMismatchError{%s}", src, err, op)
		}
	}

	_, err = ev.EvaluateSource(ctx, "1 / 0", nil)
	if !errors.Is(err, evaluator.ErrDivisionByZero) {
		t.Fatalf("1 / 0: %v", err)
	}
	_, err = ev.EvaluateSource(ctx, "math.divide(1, 0)", nil)
	var ee *types.EvaluationError
	if !errors.As(err, &ee) || ee.Function != "math.divide" || len(ee.Args) != 2 {
		t.Fatalf("math.divide(1, 0): %v", err)
	}
	if !errors.Is(err, evaluator.ErrDivisionByZero) {
		t.Fatalf("cause lost: %v", err)
	}

	_, err = ev.EvaluateSource(ctx, "peano.predecessor(0)", nil)
	if !errors.Is(err, evaluator.ErrNoPredecessor) {
		t.Fatalf("predecessor(0): %v", err)
	}

	_, err = ev.EvaluateSource(ctx, "forall x in", nil)
	var pe *types.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("parse error = %v", err)
	}
}

func TestUnknownFunctionAbortsWithoutSideEffects(t *testing.T) {
	calls := 0
	ev := newEvaluator(t, evaluator.WithFunctions(functions.Definition{
		Name:    "test.count",
		Returns: types.ParamInteger,
		Fn: func(context.Context, []types.Value, functions.Scope) (types.Value, error) {
			calls++
			return types.NewInt(int64(calls)), nil
		},
	}))
	_, err := ev.EvaluateSource(context.Background(), "test.count(foo.bar(1))", nil)
	var unknown *types.UnknownFunctionError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v", err)
	}
	if calls != 0 {
		t.Fatalf("test.count ran %d times", calls)
	}
}

func TestCachingIdempotence(t *testing.T) {
	ctx := context.Background()
	node := mustParse(t, "math.add(2, 3) * 2")

	ev := newEvaluator(t, evaluator.WithCaching(true))
	first, err := ev.Evaluate(ctx, node, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := ev.Metrics()
	if m.CacheHits != 0 || m.CacheMisses == 0 {
		t.Fatalf("first metrics = %+v", m)
	}
	second, err := ev.Evaluate(ctx, node, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !types.Equal(first, second) {
		t.Fatalf("%s != %s", first, second)
	}
	if ev.Metrics().CacheHits != 1 {
		t.Fatalf("second metrics = %+v", ev.Metrics())
	}

	// A separately parsed but identical formula hits the same entry.
	if _, err := ev.Evaluate(ctx, mustParse(t, "math.add(2,3)*2"), nil); err != nil {
		t.Fatal(err)
	}
	if ev.Metrics().CacheHits != 2 {
		t.Fatalf("metrics = %+v", ev.Metrics())
	}

	off := newEvaluator(t)
	for i := 0; i < 2; i++ {
		if _, err := off.Evaluate(ctx, node, nil); err != nil {
			t.Fatal(err)
		}
	}
	if m := off.Metrics(); m.CacheHits != 0 || m.CacheMisses != 0 {
		t.Fatalf("caching disabled touched counters: %+v", m)
	}
}

func TestCachingSkipsOpenAndImpureSubtrees(t *testing.T) {
	ctx := context.Background()
	ev := newEvaluator(t, evaluator.WithCaching(true))
	node := mustParse(t, "x + 1")
	for i, want := range []int64{2, 3} {
		c := evaluator.NewContext()
		c.BindVariable("x", types.NewInt(int64(i+1)))
		got, err := ev.Evaluate(ctx, node, c)
		if err != nil {
			t.Fatal(err)
		}
		if !types.Equal(got, types.NewInt(want)) {
			t.Fatalf("x + 1 = %s, want %d", got, want)
		}
	}
	if _, err := ev.EvaluateSource(ctx, "meta.formulas()", nil); err != nil {
		t.Fatal(err)
	}
	if m := ev.Metrics(); m.CacheHits != 0 || m.CacheMisses != 0 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestCachingReplaysViolations(t *testing.T) {
	ctx := context.Background()
	ev := newEvaluator(t, evaluator.WithCaching(true))
	node := mustParse(t, "forall x in [1, 11]: x < 10")
	for i := 0; i < 2; i++ {
		_, err := ev.EvaluateCondition(ctx, node, nil)
		var v *types.ForallViolation
		if !errors.As(err, &v) {
			t.Fatalf("run %d: error = %v", i, err)
		}
	}
	if ev.Metrics().CacheHits != 1 {
		t.Fatalf("metrics = %+v", ev.Metrics())
	}

	ev.EnableCaching(false)
	if ev.CacheLen() != 0 {
		t.Fatalf("cache not cleared: %d entries", ev.CacheLen())
	}
}

func TestTracing(t *testing.T) {
	ctx := context.Background()
	ev := newEvaluator(t, evaluator.WithTracing(true), evaluator.WithCaching(true))
	node := mustParse(t, "math.add(1, 2) == 3")
	for i := 0; i < 2; i++ {
		if _, err := ev.Evaluate(ctx, node, nil); err != nil {
			t.Fatal(err)
		}
	}
	trace := ev.ExecutionTrace()
	if len(trace) == 0 || trace[0] != "→ BinaryOp(==)" {
		t.Fatalf("trace = %q", trace)
	}
	if trace[1] != "  → FunctionCall(math.add)" {
		t.Fatalf("trace[1] = %q", trace[1])
	}
	var exit, cached bool
	for _, line := range trace {
		exit = exit || line == "← BinaryOp(==) = true"
		cached = cached || strings.HasPrefix(line, "[cached] ")
	}
	if !exit || !cached {
		t.Fatalf("trace = %q", trace)
	}

	ev.ClearTrace()
	ev.EnableTracing(false)
	if _, err := ev.Evaluate(ctx, mustParse(t, "1 + 1"), nil); err != nil {
		t.Fatal(err)
	}
	if len(ev.ExecutionTrace()) != 0 {
		t.Fatalf("trace recorded while disabled")
	}
}

func TestTracingDoesNotChangeResults(t *testing.T) {
	ctx := context.Background()
	src := `let xs = [1, 2, 3] in forall x in xs: x < 10 and string.length("ab") == 2`
	plain := newEvaluator(t)
	traced := newEvaluator(t, evaluator.WithTracing(true))
	a, err := plain.EvaluateSource(ctx, src, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := traced.EvaluateSource(ctx, src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !types.Equal(a, b) || len(traced.ExecutionTrace()) == 0 {
		t.Fatalf("%s vs %s", a, b)
	}
}

func TestMetrics(t *testing.T) {
	ev := newEvaluator(t)
	evalSource(t, ev, "math.add(1, 2) + string.length(\"abc\")")
	m := ev.Metrics()
	if m.FunctionCalls != 2 || m.Evaluations == 0 {
		t.Fatalf("metrics = %+v", m)
	}
	ev.ResetMetrics()
	if m := ev.Metrics(); m != (evaluator.Metrics{}) {
		t.Fatalf("after reset = %+v", m)
	}
}

func TestLetAndLambda(t *testing.T) {
	ev := newEvaluator(t)
	tests := []struct {
		src  string
		want types.Value
	}{
		{"let f = lambda(x) => x * 2 in f(21)", types.NewInt(42)},
		{"let y = 10; let g = λx => x + y; g(1)", types.NewInt(11)},
		{"let add = lambda(a, b) => a + b in collection.reduce([1, 2, 3], add, 0)", types.NewInt(6)},
		{"collection.map([1, 2], lambda(x) => x * x)", ints(1, 4)},
		{"collection.filter([1, 5, 12], λn => n < 10)", ints(1, 5)},
		{"let k = 3 in let f = lambda(x) => x + k in let k = 100 in f(1)", types.NewInt(4)},
		{"let f = lambda(n) => if n == 0 then 0 else n + f(n - 1) in f(4)", types.NewInt(10)},
	}
	for _, tt := range tests {
		if got := evalSource(t, ev, tt.src); !types.Equal(got, tt.want) {
			t.Fatalf("%s = %s, want %s", tt.src, got, tt.want)
		}
	}

	got := evalSource(t, ev, "lambda(x) => x + 1")
	if !evaluator.IsCallable(got) {
		t.Fatalf("lambda value %s is not callable", got)
	}
	if want := `{"@callable": "lambda", body: "x + 1", env: {}, params: ["x"]}`; got.String() != want {
		t.Fatalf("lambda value = %s, want %s", got, want)
	}

	_, err := ev.EvaluateSource(context.Background(), "let f = lambda(x) => x in f(1, 2)", nil)
	var arity *types.ArityError
	if !errors.As(err, &arity) || arity.Function != "f" {
		t.Fatalf("error = %v", err)
	}
}

func TestCall(t *testing.T) {
	ev := newEvaluator(t)
	ctx := context.Background()
	got, err := ev.Call(ctx, types.NewString("math.add"), types.NewInt(1), types.NewInt(2))
	if err != nil || !types.Equal(got, types.NewInt(3)) {
		t.Fatalf("Call(math.add) = %v, %v", got, err)
	}
	fn := evalSource(t, ev, "lambda(s) => string.upper(s)")
	got, err = ev.Call(ctx, fn, types.NewString("abc"))
	if err != nil || !types.Equal(got, types.NewString("ABC")) {
		t.Fatalf("Call(lambda) = %v, %v", got, err)
	}
	if _, err := ev.Call(ctx, types.NewInt(1)); err == nil {
		t.Fatal("calling an integer succeeded")
	}
}

func TestRegisterFunction(t *testing.T) {
	ev := newEvaluator(t)
	base := ev.BuiltinFunctionCount()
	if base != len(ev.FunctionNames()) {
		t.Fatalf("count %d != %d names", base, len(ev.FunctionNames()))
	}

	err := ev.RegisterFunction(functions.Definition{
		Name:    "math.add",
		Params:  []types.ParamKind{types.ParamNumber, types.ParamNumber},
		Returns: types.ParamNumber,
		Fn: func(context.Context, []types.Value, functions.Scope) (types.Value, error) {
			return types.NewInt(0), nil
		},
	})
	var dup *types.DuplicateFunctionError
	if !errors.As(err, &dup) || dup.Name != "math.add" {
		t.Fatalf("error = %v", err)
	}
	if got := evalSource(t, ev, "math.add(1, 1)"); !types.Equal(got, types.NewInt(2)) {
		t.Fatalf("math.add was overwritten: %s", got)
	}

	err = ev.RegisterFunction(functions.Definition{
		Name:    "fs.exists",
		Params:  []types.ParamKind{types.ParamString},
		Returns: types.ParamBoolean,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			p, err := functions.String("fs.exists", args, 0)
			if err != nil {
				return nil, err
			}
			return types.NewBool(p == "go.mod"), nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := evalSource(t, ev, `fs.exists("go.mod")`); !types.Equal(got, types.True) {
		t.Fatalf("fs.exists = %s", got)
	}
	if ev.BuiltinFunctionCount() != base {
		t.Fatalf("builtin count changed")
	}

	_, err = evaluator.New(evaluator.WithFunctions(functions.Definition{
		Name: "string.concat",
		Fn: func(context.Context, []types.Value, functions.Scope) (types.Value, error) {
			return types.Null, nil
		},
	}))
	if !errors.As(err, &dup) {
		t.Fatalf("New with duplicate: %v", err)
	}
}

func TestReturnKindChecked(t *testing.T) {
	ev := newEvaluator(t, evaluator.WithFunctions(functions.Definition{
		Name:    "test.liar",
		Returns: types.ParamBoolean,
		Fn: func(context.Context, []types.Value, functions.Scope) (types.Value, error) {
			return types.NewString("yes"), nil
		},
	}))
	_, err := ev.EvaluateSource(context.Background(), "test.liar()", nil)
	var ee *types.EvaluationError
	if !errors.As(err, &ee) || ee.Function != "test.liar" {
		t.Fatalf("error = %v", err)
	}
}

func TestMaxDepth(t *testing.T) {
	ev := newEvaluator(t, evaluator.WithMaxDepth(64))
	_, err := ev.EvaluateSource(context.Background(), "let f = lambda(n) => f(n + 1) in f(0)", nil)
	var ee *types.EvaluationError
	if !errors.As(err, &ee) || !strings.Contains(err.Error(), "maximum recursion depth exceeded") {
		t.Fatalf("error = %v", err)
	}
}

func TestCancellation(t *testing.T) {
	ev := newEvaluator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ev.EvaluateSource(ctx, "1 + 1", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v", err)
	}

	slow := newEvaluator(t, evaluator.WithTimeout(20*time.Millisecond))
	src := "forall x in collection.range(0, 1000000): forall y in collection.range(0, 1000000): true"
	_, err = slow.EvaluateSource(context.Background(), src, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v", err)
	}
}

func TestDottedVariables(t *testing.T) {
	ev := newEvaluator(t)
	c := evaluator.NewContext()
	c.BindVariable("r", types.NewObject(map[string]types.Value{
		"name":  types.NewString("main.go"),
		"stats": types.NewObject(map[string]types.Value{"lines": types.NewInt(120)}),
	}))
	c.BindVariable("r.name", types.NewString("exact"))

	got, err := ev.EvaluateSource(context.Background(), "r.name", c)
	if err != nil || !types.Equal(got, types.NewString("exact")) {
		t.Fatalf("r.name = %v, %v", got, err)
	}
	got, err = ev.EvaluateSource(context.Background(), "r.stats.lines > 100", c)
	if err != nil || !types.Equal(got, types.True) {
		t.Fatalf("r.stats.lines = %v, %v", got, err)
	}
}

func TestConcurrentUse(t *testing.T) {
	ev := newEvaluator(t, evaluator.WithCaching(true))
	node := mustParse(t, "forall x in xs: math.modulo(x, 2) == 0")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := evaluator.NewContext()
			c.BindVariable("xs", ints(2, 4, int64(i)))
			ok, err := ev.EvaluateCondition(context.Background(), node, c)
			var v *types.ForallViolation
			switch {
			case i%2 == 0 && (!ok || err != nil):
				errs <- err
			case i%2 == 1 && (ok || !errors.As(err, &v)):
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent evaluation: %v", err)
	}
}

func TestFunctionReturnsCopy(t *testing.T) {
	ev := newEvaluator(t, evaluator.WithCaching(true))
	def, ok := ev.Function("math.add")
	if !ok || !def.Pure {
		t.Fatalf("math.add = %+v, %v", def, ok)
	}
	def.Pure = false
	def.Params[0] = types.ParamString
	def.Fn = func(context.Context, []types.Value, functions.Scope) (types.Value, error) {
		return types.NewInt(0), nil
	}

	again, _ := ev.Function("math.add")
	if !again.Pure || again.Params[0] == types.ParamString {
		t.Fatalf("definition changed through Function: %+v", again)
	}
	if got := evalSource(t, ev, "math.add(2, 3)"); !types.Equal(got, types.NewInt(5)) {
		t.Fatalf("math.add(2, 3) = %s", got)
	}
}
