package evaluator

import (
	"go.uber.org/multierr"

	"github.com/sandrolain/gologic/pkg/functions"
)

// aliases maps symbolic names to the builtins they stand for.
var aliases = map[string]string{
	"μ": "mucalculus.mu",
	"ν": "mucalculus.nu",
}

// registerBuiltins registers the standard library into reg. Builtins that
// evaluate formulas hold e as a non-owning back-reference; they never
// outlive it.
func registerBuiltins(reg *functions.Registry, e *Evaluator) error {
	groups := [][]functions.Definition{
		mathFunctions(),
		peanoFunctions(),
		stringFunctions(),
		collectionFunctions(e),
		setFunctions(),
		patternFunctions(),
		metaFunctions(e),
		provabilityFunctions(e),
		fixpointFunctions(e),
		recursiveFunctions(e),
	}

	var errs error
	for _, defs := range groups {
		errs = multierr.Append(errs, reg.RegisterAll(defs...))
	}
	for alias, name := range aliases {
		errs = multierr.Append(errs, reg.Alias(alias, name))
	}
	return errs
}
