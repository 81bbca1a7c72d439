package functions

import (
	"fmt"
	"strings"

	"github.com/sandrolain/gologic/pkg/types"
)

// CheckArgs validates the number and kinds of args against d. Lazy
// definitions receive source strings, so only their count is checked.
func (d *Definition) CheckArgs(args []types.Value) error {
	lo, hi := d.MinArgs(), d.MaxArgs()
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return &types.ArityError{Function: d.Name, Min: lo, Max: hi, Got: len(args)}
	}
	if d.Lazy {
		return nil
	}
	for i, arg := range args {
		kind := d.paramKind(i)
		if !kind.Accepts(arg.Kind()) {
			return &types.TypeMismatchError{
				Operator: d.Name,
				Expected: fmt.Sprintf("%s (argument %d)", kind, i+1),
				Got:      arg.Kind(),
			}
		}
	}
	return nil
}

func (d *Definition) paramKind(i int) types.ParamKind {
	if i < len(d.Params) {
		return d.Params[i]
	}
	return d.Params[len(d.Params)-1]
}

// Signature renders the definition for humans, e.g.
// "math.max(number, number...) -> number".
func (d *Definition) Signature() string {
	parts := make([]string, len(d.Params))
	for i, p := range d.Params {
		s := p.String()
		if i >= d.MinArgs() {
			s += "?"
		}
		if d.Variadic && i == len(d.Params)-1 {
			s += "..."
		}
		parts[i] = s
	}
	return fmt.Sprintf("%s(%s) -> %s", d.Name, strings.Join(parts, ", "), d.Returns)
}
