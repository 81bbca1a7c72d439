// Package functions defines the builtin function contract and the registry
// the evaluator dispatches FunctionCall nodes through.
//
// Builtins are plain Go functions described by a [Definition]. Names are
// flat and namespaced by convention ("math.add", "string.concat").
//
// # Example
//
//	reg := functions.NewRegistry()
//	err := reg.Register(functions.Definition{
//	    Name:    "text.greet",
//	    Params:  []types.ParamKind{types.ParamString},
//	    Returns: types.ParamString,
//	    Pure:    true,
//	    Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
//	        name, err := functions.String("text.greet", args, 0)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return types.NewString("Hello, " + name + "!"), nil
//	    },
//	})
package functions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/sandrolain/gologic/pkg/types"
)

// Scope gives a builtin read access to the variables visible at the call
// site.
type Scope interface {
	Lookup(name string) (types.Value, bool)
}

// Func is the signature of a builtin implementation.
// args holds the evaluated arguments in order, or their canonical source
// text when the definition is Lazy.
type Func func(ctx context.Context, args []types.Value, scope Scope) (types.Value, error)

// Caller invokes callable values from inside a builtin, for higher-order
// functions such as fixpoint iteration.
type Caller interface {
	// Call applies fn (a callable Object or a String naming a builtin) to args.
	Call(ctx context.Context, fn types.Value, args ...types.Value) (types.Value, error)
	// EvaluateIn parses and evaluates src with the variables of scope
	// visible.
	EvaluateIn(ctx context.Context, src string, scope Scope) (types.Value, error)
}

// Definition describes a builtin.
type Definition struct {
	// Name is the function name as it appears in formulas.
	Name string
	// Params lists the accepted kind of each parameter.
	Params []types.ParamKind
	// Optional is the number of trailing parameters that may be omitted.
	Optional int
	// Variadic allows the last parameter to repeat.
	Variadic bool
	// Returns is the kind of the result.
	Returns types.ParamKind
	// Description is a one-line summary shown by introspection.
	Description string
	// Pure marks functions that are deterministic and read no scope.
	// Only calls to pure builtins are eligible for result caching.
	Pure bool
	// Lazy functions receive their arguments as canonical source strings
	// instead of evaluated values.
	Lazy bool
	// NeedsScope functions are invoked with a freshly pushed scope.
	NeedsScope bool
	// Fn is the implementation.
	Fn Func
}

// MinArgs returns the minimum number of arguments.
func (d *Definition) MinArgs() int {
	return len(d.Params) - d.Optional
}

// MaxArgs returns the maximum number of arguments, or -1 when variadic.
func (d *Definition) MaxArgs() int {
	if d.Variadic {
		return -1
	}
	return len(d.Params)
}

// validate reports definitions that can never be called.
func (d *Definition) validate() error {
	switch {
	case d.Name == "":
		return errors.New("function definition has an empty name")
	case d.Fn == nil:
		return fmt.Errorf("function %q has no implementation", d.Name)
	case d.Optional < 0 || d.Optional > len(d.Params):
		return fmt.Errorf("function %q declares %d optional of %d parameters", d.Name, d.Optional, len(d.Params))
	case d.Variadic && len(d.Params) == 0:
		return fmt.Errorf("function %q is variadic without parameters", d.Name)
	}
	return nil
}

// Registry maps names to builtin definitions. Registration fails fast on
// duplicates. Safe for concurrent use by multiple goroutines.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def. It returns *types.DuplicateFunctionError when the name
// is taken and leaves the existing definition in place.
func (r *Registry) Register(def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}
	d := def
	d.Params = append([]types.ParamKind(nil), def.Params...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[d.Name]; ok {
		return &types.DuplicateFunctionError{Name: d.Name}
	}
	r.defs[d.Name] = &d
	return nil
}

// RegisterAll registers every definition that can be registered and returns
// the combined error of those that could not.
func (r *Registry) RegisterAll(defs ...Definition) error {
	var errs error
	for _, def := range defs {
		errs = multierr.Append(errs, r.Register(def))
	}
	return errs
}

// Alias registers alias as a second name for an existing definition.
func (r *Registry) Alias(alias, name string) error {
	r.mu.RLock()
	d, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return &types.UnknownFunctionError{Name: name}
	}
	def := *d
	def.Name = alias
	return r.Register(def)
}

// Lookup returns a copy of the definition registered under name. Changing
// the copy does not affect the registry.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	d, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	def := *d
	def.Params = append([]types.ParamKind(nil), d.Params...)
	return &def, true
}

// Len returns the number of registered names, aliases included.
func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.defs)
	r.mu.RUnlock()
	return n
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
