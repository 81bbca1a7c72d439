// Benchmarks for parsing and evaluation.
//
//	go test -bench=. -benchmem ./pkg/evaluator/
package evaluator_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/parser"
	"github.com/sandrolain/gologic/pkg/types"
)

var departments = []string{"Engineering", "Sales", "Marketing", "HR", "Finance"}

// usersFacts binds n user records to "users".
func usersFacts(b *testing.B, n int) *evaluator.EvalContext {
	b.Helper()
	users := make([]any, n)
	for i := range n {
		users[i] = map[string]any{
			"id":         i + 1,
			"name":       fmt.Sprintf("User%d", i+1),
			"age":        20 + i%40,
			"department": departments[i%5],
			"salary":     70000 + i*1000,
			"active":     i%2 == 0,
		}
	}
	v, err := types.FromNative(users)
	if err != nil {
		b.Fatal(err)
	}
	c := evaluator.NewContext()
	c.BindVariable("users", v)
	return c
}

func BenchmarkParse(b *testing.B) {
	sources := map[string]string{
		"Simple":     "x + 1 > 2",
		"Quantifier": "forall u in users: u.age >= 18 and u.salary > 0",
		"Nested":     "forall a in xs: exists b in ys: a < b or a == b",
		"Lambda":     "collection.reduce(collection.map(xs, lambda(x) => x * 2), lambda(acc, x) => acc + x, 0)",
		"Symbolic":   "∀ x ∈ xs: ¬(x ∈ ys) → x ≠ 0",
	}
	for name, src := range sources {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := parser.Parse(src); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEvalQuantifier(b *testing.B) {
	prog, err := parser.Parse(`forall u in users: u.age >= 18 and string.length(u.name) > 0`)
	if err != nil {
		b.Fatal(err)
	}
	for _, n := range []int{10, 100, 1000} {
		c := usersFacts(b, n)
		ev := evaluator.MustNew()
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := ev.Evaluate(context.Background(), prog, c); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEvalAggregation(b *testing.B) {
	prog, err := parser.Parse(`collection.reduce(collection.filter(users, lambda(u) => u.active), lambda(acc, u) => acc + u.salary, 0)`)
	if err != nil {
		b.Fatal(err)
	}
	for _, n := range []int{10, 100, 1000} {
		c := usersFacts(b, n)
		ev := evaluator.MustNew()
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := ev.Evaluate(context.Background(), prog, c); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEvalCached(b *testing.B) {
	prog, err := parser.Parse(`forall x in collection.range(0, 500): x * x >= 0`)
	if err != nil {
		b.Fatal(err)
	}
	for _, caching := range []bool{false, true} {
		ev := evaluator.MustNew(evaluator.WithCaching(caching))
		b.Run(fmt.Sprintf("caching=%v", caching), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := ev.Evaluate(context.Background(), prog, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
