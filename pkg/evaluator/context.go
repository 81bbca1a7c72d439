package evaluator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// EvalContext holds variable bindings as a stack of scopes, innermost last,
// plus an optional read-only parent consulted when a name is not found.
//
// Scopes are pushed and popped only through WithScope and WithBinding, so a
// scope can never outlive the call that created it.
//
// An EvalContext is not safe for concurrent use.
type EvalContext struct {
	scopes []map[string]types.Value
	parent functions.Scope
}

// NewContext creates an evaluation context with one empty scope.
func NewContext() *EvalContext {
	return &EvalContext{scopes: []map[string]types.Value{{}}}
}

// NewContextWith creates an evaluation context whose outermost scope holds
// a copy of vars.
func NewContextWith(vars map[string]types.Value) *EvalContext {
	c := NewContext()
	for name, v := range vars {
		c.scopes[0][name] = v
	}
	return c
}

// NewChild creates an empty context that falls back to c for lookups.
func (c *EvalContext) NewChild() *EvalContext {
	return &EvalContext{
		scopes: []map[string]types.Value{{}},
		parent: c,
	}
}

// newContextWithParent creates an empty context over an arbitrary scope.
func newContextWithParent(parent functions.Scope) *EvalContext {
	return &EvalContext{
		scopes: []map[string]types.Value{{}},
		parent: parent,
	}
}

// BindVariable binds name in the innermost scope, shadowing outer bindings.
func (c *EvalContext) BindVariable(name string, v types.Value) {
	c.scopes[len(c.scopes)-1][name] = v
}

// BindAll binds every entry of vars in the innermost scope.
func (c *EvalContext) BindAll(vars map[string]types.Value) {
	for name, v := range vars {
		c.BindVariable(name, v)
	}
}

// GetVariable resolves name or reports *types.UnboundVariableError.
func (c *EvalContext) GetVariable(name string) (types.Value, error) {
	if v, ok := c.Lookup(name); ok {
		return v, nil
	}
	return nil, &types.UnboundVariableError{Name: name}
}

// Lookup resolves name. An exact binding wins; otherwise a dotted name such
// as r.name resolves to the field of the object bound to its longest bound
// prefix. Names not found locally are looked up in the parent.
func (c *EvalContext) Lookup(name string) (types.Value, bool) {
	if v, ok := c.lookupLocal(name); ok {
		return v, true
	}
	for i := strings.LastIndexByte(name, '.'); i > 0; i = strings.LastIndexByte(name[:i], '.') {
		base, ok := c.lookupLocal(name[:i])
		if !ok {
			continue
		}
		return fieldPath(base, name[i+1:])
	}
	if c.parent != nil {
		return c.parent.Lookup(name)
	}
	return nil, false
}

func (c *EvalContext) lookupLocal(name string) (types.Value, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

func fieldPath(v types.Value, path string) (types.Value, bool) {
	for _, field := range strings.Split(path, ".") {
		obj, ok := v.(types.ObjectValue)
		if !ok {
			return nil, false
		}
		if v, ok = obj.Get(field); !ok {
			return nil, false
		}
	}
	return v, true
}

// WithScope runs fn with a fresh innermost scope and pops it afterwards,
// even when fn panics.
func (c *EvalContext) WithScope(fn func() error) error {
	c.scopes = append(c.scopes, map[string]types.Value{})
	defer func() {
		c.scopes[len(c.scopes)-1] = nil
		c.scopes = c.scopes[:len(c.scopes)-1]
	}()
	return fn()
}

// WithBinding runs fn with name bound to v in a fresh scope.
func (c *EvalContext) WithBinding(name string, v types.Value, fn func() error) error {
	return c.WithScope(func() error {
		c.BindVariable(name, v)
		return fn()
	})
}

// Depth returns the number of scopes on the stack.
func (c *EvalContext) Depth() int {
	return len(c.scopes)
}

// Variables returns the bindings visible in the local scopes, innermost
// winning. Parent bindings are not included.
func (c *EvalContext) Variables() map[string]types.Value {
	out := make(map[string]types.Value)
	for _, scope := range c.scopes {
		for name, v := range scope {
			out[name] = v
		}
	}
	return out
}

// Names returns the sorted names of Variables.
func (c *EvalContext) Names() []string {
	vars := c.Variables()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns a string representation of the context.
func (c *EvalContext) String() string {
	return fmt.Sprintf("Context{scopes=%d, bindings=%d, parent=%t}", len(c.scopes), len(c.Variables()), c.parent != nil)
}
