package evaluator_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/godel"
	"github.com/sandrolain/gologic/pkg/types"
)

func TestGodelFunctions(t *testing.T) {
	runTable(t, newEvaluator(t), []struct {
		src  string
		want types.Value
	}{
		{`meta.decode_formula(meta.encode_formula("∀x ∈ xs: x > 0")) == meta.quote(forall x in xs: x > 0)`, types.True},
		{`meta.encode_formula("forall x in xs: x>0") == meta.encode_formula("∀x ∈ xs: x > 0")`, types.True},
		{`meta.encode_formula("a + b") != meta.encode_formula("b + a")`, types.True},
		{`meta.quote(1 + 2 * x)`, types.NewString("1 + 2 * x")},
		{`meta.substitute("x + y", "y", 2)`, types.NewString("x + 2")},
		{`meta.substitute("forall y in ys: y > x", "y", 1)`, types.NewString("forall y in ys: y > x")},
		{`meta.eval(meta.substitute("x * x", "x", 7))`, types.NewInt(49)},
		{`meta.eval(meta.diagonalize("x + 1")) == meta.encode_formula("x + 1") + 1`, types.True},
		{`meta.diag(meta.encode_formula("x == y"), "y") == meta.encode_formula(meta.diagonalize("x == y", "y"))`, types.True},
	})
}

func TestMetaEvalSeesCallerScope(t *testing.T) {
	ev := newEvaluator(t)
	got := evalSource(t, ev, `let limit = 3 in forall n in [1, 2]: meta.eval("n < limit")`)
	if !types.Equal(got, types.True) {
		t.Fatalf("got %s", got)
	}
}

func TestDecodeRejectsNonFormulas(t *testing.T) {
	ev := newEvaluator(t)
	for _, src := range []string{
		"meta.decode_formula(0)",
		"meta.decode_formula(7)",
		`meta.encode_formula("forall")`,
	} {
		if _, err := ev.EvaluateSource(context.Background(), src, nil); err == nil {
			t.Fatalf("%s succeeded", src)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ev := newEvaluator(t)
	ctx := context.Background()
	for _, src := range []string{
		"forall x in xs: x > 0",
		"1 + 2 * x",
		`string.concat("a", "b")`,
		"if p then 1 else 0",
	} {
		c := evaluator.NewContext()
		c.BindVariable("s", types.NewString(src))
		got, err := ev.EvaluateSource(ctx, "let n = meta.encode_formula(s) in meta.encode_formula(meta.decode_formula(n)) == n", c)
		if err != nil || !types.Equal(got, types.True) {
			t.Fatalf("%q: encode(decode(n)) == n is %v, %v", src, got, err)
		}
	}
}

func TestDecodeRejectsNonCanonicalText(t *testing.T) {
	ev := newEvaluator(t)
	ctx := context.Background()
	for _, text := range []string{"1+2", "forall x in xs : x>0", "a  +  b"} {
		for _, fn := range []string{"meta.decode_formula(n)", "meta.diag(n)"} {
			c := evaluator.NewContext()
			c.BindVariable("n", types.NewBigInt(godel.Encode(text)))
			_, err := ev.EvaluateSource(ctx, fn, c)
			if !errors.Is(err, godel.ErrNotAnEncoding) {
				t.Fatalf("%s with n = encoding of %q: error = %v", fn, text, err)
			}
		}
	}
	if _, err := ev.EvaluateSource(ctx, "meta.decode_formula(n)", bindBig("n", big.NewInt(1))); err == nil {
		t.Fatal("encoding of the empty text accepted")
	}
}

func bindBig(name string, n *big.Int) *evaluator.EvalContext {
	c := evaluator.NewContext()
	c.BindVariable(name, types.NewBigInt(n))
	return c
}

func TestSelfReference(t *testing.T) {
	ev := newEvaluator(t)
	ctx := context.Background()

	g := evalSource(t, ev, `meta.self_reference("x")`)
	c := evaluator.NewContext()
	c.BindVariable("g", g)

	// G evaluates to its own Gödel number.
	got, err := ev.EvaluateSource(ctx, "meta.eval(g) == meta.encode_formula(g)", c)
	if err != nil {
		t.Fatal(err)
	}
	if !types.Equal(got, types.True) {
		t.Fatalf("G = %s does not evaluate to its own number", g)
	}

	// G with a predicate template states that predicate of itself.
	g = evalSource(t, ev, `meta.self_reference("math.modulo(x, 2) == 1")`)
	c.BindVariable("g", g)
	got, err = ev.EvaluateSource(ctx, "meta.eval(g) == (math.modulo(meta.encode_formula(g), 2) == 1)", c)
	if err != nil {
		t.Fatal(err)
	}
	if !types.Equal(got, types.True) {
		t.Fatalf("G = %s", g)
	}
}

func TestConsistencyCheck(t *testing.T) {
	runTable(t, newEvaluator(t), []struct {
		src  string
		want types.Value
	}{
		{`let r = meta.consistency_check(["p", "p implies q", "not q"]) in r.consistent`, types.False},
		{`let r = meta.consistency_check(["p", "q"]) in r.consistent`, types.True},
		{`let r = meta.consistency_check(["p and q", "q iff r", "not r"]) in r.consistent`, types.False},
		{`let r = meta.consistency_check(["1 == 2"]) in r.conflicts`, strs("1 == 2")},
		{`let r = meta.consistency_check(["p", "p implies q"]) in r.derived`, types.NewInt(3)},
		{`let r = meta.consistency_check([]) in r.formulas`, types.NewInt(0)},
	})
}

func TestProvable(t *testing.T) {
	runTable(t, newEvaluator(t), []struct {
		src  string
		want types.Value
	}{
		{`meta.provable("q", ["p", "p implies q"])`, types.True},
		{`meta.provable("r", ["p"])`, types.False},
		{`meta.provable("1 + 1 == 2")`, types.True},
		{`meta.provable("1 + 1 == 3")`, types.False},
		{`meta.provable("not p", ["p implies q", "not q"])`, types.True},
		{`meta.provable("q", ["p or q", "not p"])`, types.True},
		{`meta.provable("b", ["a and b"])`, types.True},
	})
}

func TestRegisteredFormulas(t *testing.T) {
	ev := newEvaluator(t,
		evaluator.WithFormula("base", "p"),
		evaluator.WithFormula("rule", "p implies q"),
	)
	runTable(t, ev, []struct {
		src  string
		want types.Value
	}{
		{`meta.provable("q")`, types.True},
		{`let r = meta.consistency_check() in r.consistent`, types.True},
		{`let f = meta.formulas() in f.rule`, types.NewString("p implies q")},
	})

	if err := ev.RegisterFormula("broken", "p and"); err == nil {
		t.Fatal("registered a formula that does not parse")
	}
	if err := ev.RegisterFormula("deny", "not q"); err != nil {
		t.Fatal(err)
	}
	got := evalSource(t, ev, `let r = meta.consistency_check() in r.consistent`)
	if !types.Equal(got, types.False) {
		t.Fatalf("consistent = %s after adding not q", got)
	}
}
