package evaluator

import (
	"errors"
	"testing"

	"github.com/sandrolain/gologic/pkg/types"
)

func TestContextShadowing(t *testing.T) {
	c := NewContext()
	c.BindVariable("x", types.NewInt(1))

	err := c.WithBinding("x", types.NewInt(2), func() error {
		v, err := c.GetVariable("x")
		if err != nil {
			return err
		}
		if !types.Equal(v, types.NewInt(2)) {
			t.Fatalf("inner x = %s", v)
		}
		if c.Depth() != 2 {
			t.Fatalf("depth = %d", c.Depth())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	v, err := c.GetVariable("x")
	if err != nil || !types.Equal(v, types.NewInt(1)) {
		t.Fatalf("outer x = %v, %v", v, err)
	}
	if c.Depth() != 1 {
		t.Fatalf("scope not popped: depth %d", c.Depth())
	}
}

func TestContextScopePoppedOnError(t *testing.T) {
	c := NewContext()
	boom := errors.New("boom")
	err := c.WithScope(func() error {
		c.BindVariable("tmp", types.True)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
	if _, ok := c.Lookup("tmp"); ok {
		t.Fatal("binding survived its scope")
	}

	func() {
		defer func() { _ = recover() }()
		_ = c.WithScope(func() error { panic("boom") })
	}()
	if c.Depth() != 1 {
		t.Fatalf("depth after panic = %d", c.Depth())
	}
}

func TestContextUnbound(t *testing.T) {
	c := NewContext()
	_, err := c.GetVariable("missing")
	var unbound *types.UnboundVariableError
	if !errors.As(err, &unbound) || unbound.Name != "missing" {
		t.Fatalf("error = %v", err)
	}
}

func TestContextParent(t *testing.T) {
	parent := NewContextWith(map[string]types.Value{
		"a": types.NewInt(1),
		"r": types.NewObject(map[string]types.Value{"k": types.NewString("v")}),
	})
	child := parent.NewChild()
	child.BindVariable("b", types.NewInt(2))

	for name, want := range map[string]types.Value{
		"a":   types.NewInt(1),
		"b":   types.NewInt(2),
		"r.k": types.NewString("v"),
	} {
		got, ok := child.Lookup(name)
		if !ok || !types.Equal(got, want) {
			t.Fatalf("Lookup(%s) = %v, %t", name, got, ok)
		}
	}
	if _, ok := parent.Lookup("b"); ok {
		t.Fatal("child binding visible in parent")
	}
	if _, ok := child.Lookup("r.missing"); ok {
		t.Fatal("missing field resolved")
	}
	if got := child.Names(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("Names = %v", got)
	}
}

func TestContextBindAll(t *testing.T) {
	c := NewContext()
	c.BindAll(map[string]types.Value{"x": types.True, "y": types.False})
	if vars := c.Variables(); len(vars) != 2 {
		t.Fatalf("Variables = %v", vars)
	}
	if got := c.String(); got != "Context{scopes=1, bindings=2, parent=false}" {
		t.Fatalf("String = %q", got)
	}
}

func TestCacheKeys(t *testing.T) {
	e := MustNew()
	tests := map[string]bool{
		"math.add(1, 2)":         true,
		"[1, 2]":                 true,
		"forall x in [1]: x > 0": true,
		"x + 1":                  false,
		"meta.formulas()":        false,
		"collection.map([1], f)": false,
		"lambda(x) => x":         false,
		"1":                      false,
	}
	for src, want := range tests {
		node, err := e.parseSource(src)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := e.cacheKey(node); ok != want {
			t.Fatalf("cacheable(%s) = %t, want %t", src, ok, want)
		}
	}
}
