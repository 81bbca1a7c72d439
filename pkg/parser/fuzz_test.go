package parser

import (
	"testing"

	"github.com/sandrolain/gologic/pkg/types"
)

func FuzzParser(f *testing.F) {
	seeds := []string{
		`forall x in [1, 2, 3]: x > 0`,
		`∃x ∈ xs: x ≠ 0 ∧ ¬(x > 10)`,
		`let f = λx => x * 2 in f(21)`,
		`if a then {k: [1, -2.5]} else "s\n"`,
		`test "t": math.add(1, 2) == 3; 1 + 2`,
		`a → b → c`,
		``,
		`(`,
		`"unterminated`,
		`1e`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		prog, err := Parse(input)
		if err != nil {
			return
		}
		text := types.Render(prog)
		again, err := Parse(text)
		if err != nil {
			t.Fatalf("canonical rendering %q of %q does not parse: %v", text, input, err)
		}
		if !types.Equivalent(prog, again) {
			t.Fatalf("canonical rendering %q of %q changed the tree", text, input)
		}
	})
}
