package evaluator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/types"
)

const ruleSource = `
# Values must stay under the limit.
let limit = 10;
let small = lambda(x) => x < limit;

test "small numbers": forall x in [1, 2, 3]: small(x);
test "large numbers": forall x in [1, 20]: small(x);
test "broken": foo.bar(1);
test "plain false": 1 == 2;
test "exists": exists x in [1, 20]: x > limit
`

func field(t *testing.T, v types.Value, name string) types.Value {
	t.Helper()
	obj, ok := v.(types.ObjectValue)
	if !ok {
		t.Fatalf("%s is not an object", v)
	}
	f, ok := obj.Get(name)
	if !ok {
		t.Fatalf("%s has no field %s", v, name)
	}
	return f
}

func TestExecuteAllRuleTests(t *testing.T) {
	ev := newEvaluator(t)
	results, err := ev.ExecuteAllRuleTests(context.Background(), ruleSource)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		name, status string
	}{
		{"small numbers", evaluator.StatusPass},
		{"large numbers", evaluator.StatusFail},
		{"broken", evaluator.StatusError},
		{"plain false", evaluator.StatusFail},
		{"exists", evaluator.StatusPass},
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, w := range want {
		r := results[i]
		if got := field(t, r, "name"); !types.Equal(got, types.NewString(w.name)) {
			t.Fatalf("result %d name = %s, want %q", i, got, w.name)
		}
		if got := field(t, r, "status"); !types.Equal(got, types.NewString(w.status)) {
			t.Fatalf("%s: status = %s, want %q (%s)", w.name, got, w.status, field(t, r, "message"))
		}
	}

	if got := field(t, results[1], "counterexamples"); !types.Equal(got, ints(20)) {
		t.Fatalf("counterexamples = %s", got)
	}
	if msg := field(t, results[2], "message").(types.StringValue).Str(); !strings.Contains(msg, "foo.bar") {
		t.Fatalf("error message = %q", msg)
	}
	if got := field(t, results[3], "message"); !types.Equal(got, types.NewString("evaluated to false")) {
		t.Fatalf("message = %s", got)
	}
}

func TestRuleTestsAreIsolated(t *testing.T) {
	ev := newEvaluator(t)
	src := `
test "first": true;
let later = 1;
test "sees later": later == 1;
test "no leak": exists x in [1]: x == 1
`
	results, err := ev.ExecuteAllRuleTests(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if got := field(t, r, "status"); !types.Equal(got, types.NewString(evaluator.StatusPass)) {
			t.Fatalf("%s: %s", field(t, r, "name"), field(t, r, "message"))
		}
	}

	// A test cannot see lets declared after it.
	results, err = ev.ExecuteAllRuleTests(context.Background(), `test "early": later == 1; let later = 1`)
	if err != nil {
		t.Fatal(err)
	}
	if got := field(t, results[0], "status"); !types.Equal(got, types.NewString(evaluator.StatusError)) {
		t.Fatalf("status = %s", got)
	}
}

func TestExecuteRuleTestsParseError(t *testing.T) {
	ev := newEvaluator(t)
	_, err := ev.ExecuteAllRuleTests(context.Background(), `test "x": forall`)
	var pe *types.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v", err)
	}
}

func TestExecuteRuleTestsWithFacts(t *testing.T) {
	ev := newEvaluator(t)
	facts := evaluator.NewContext()
	facts.BindVariable("files", strs("main.go", "README.md"))
	results, err := ev.ExecuteRuleTests(context.Background(), `test "go only": forall f in files: string.ends_with(f, ".go")`, facts)
	if err != nil {
		t.Fatal(err)
	}
	if got := field(t, results[0], "counterexamples"); !types.Equal(got, strs("README.md")) {
		t.Fatalf("counterexamples = %s", got)
	}
}

func TestExecuteRule(t *testing.T) {
	ev := newEvaluator(t)
	ctx := context.Background()
	c := evaluator.NewContext()
	c.BindVariable("files", strs("main.go", "notes.txt"))

	src := `
let go = lambda(f) => string.ends_with(f, ".go");
test "ignored": false;
forall f in files: go(f)
`
	v, err := ev.ExecuteRule(ctx, src, c)
	var violation *types.ForallViolation
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v", err)
	}
	if !types.Equal(v, types.False) || !types.Equal(violation.Counterexamples[0], types.NewString("notes.txt")) {
		t.Fatalf("value = %s, violation = %v", v, violation)
	}

	c = evaluator.NewContext()
	c.BindVariable("files", strs("main.go"))
	v, err = ev.ExecuteRule(ctx, src, c)
	if err != nil || !types.Equal(v, types.True) {
		t.Fatalf("ExecuteRule = %v, %v", v, err)
	}
}

func TestRunKeepsBindings(t *testing.T) {
	ev := newEvaluator(t)
	ctx := context.Background()
	c := evaluator.NewContext()
	if _, err := ev.Run(ctx, "let double = lambda(n) => n * 2; let base = 21", c); err != nil {
		t.Fatal(err)
	}
	v, err := ev.Run(ctx, "double(base)", c)
	if err != nil || !types.Equal(v, types.NewInt(42)) {
		t.Fatalf("Run = %v, %v", v, err)
	}

	// EvaluateSource scopes its lets to the call.
	if _, err := ev.EvaluateSource(ctx, "let hidden = 1; hidden", c); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetVariable("hidden"); err == nil {
		t.Fatal("let leaked out of EvaluateSource")
	}
}

func TestEvaluateNil(t *testing.T) {
	ev := newEvaluator(t)
	if _, err := ev.Evaluate(context.Background(), nil, nil); err == nil {
		t.Fatal("Evaluate(nil) succeeded")
	}
	var pe *types.ParseError
	if _, err := ev.EvaluateSource(context.Background(), "", nil); !errors.As(err, &pe) {
		t.Fatalf("empty program: %v", err)
	}
	v, err := ev.EvaluateSource(context.Background(), "let a = 1", nil)
	if err != nil || !types.Equal(v, types.Null) {
		t.Fatalf("program without expression = %v, %v", v, err)
	}
}

func TestConditionRequiresBoolean(t *testing.T) {
	ev := newEvaluator(t)
	_, err := ev.EvaluateCondition(context.Background(), mustParse(t, "1 + 1"), nil)
	var tm *types.TypeMismatchError
	if !errors.As(err, &tm) || tm.Operator != "condition" {
		t.Fatalf("error = %v", err)
	}
}
