package functions

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/multierr"

	"github.com/sandrolain/gologic/pkg/types"
)

func constFn(v types.Value) Func {
	return func(context.Context, []types.Value, Scope) (types.Value, error) { return v, nil }
}

func TestRegisterDuplicateFailsFast(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Definition{Name: "a.b", Fn: constFn(types.True)}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := reg.Register(Definition{Name: "a.b", Fn: constFn(types.False)})
	var dup *types.DuplicateFunctionError
	if !errors.As(err, &dup) || dup.Name != "a.b" {
		t.Fatalf("error = %v, want DuplicateFunctionError", err)
	}
	d, _ := reg.Lookup("a.b")
	got, _ := d.Fn(context.Background(), nil, nil)
	if got != types.True {
		t.Fatalf("duplicate registration replaced the original")
	}
}

func TestRegisterAllAggregates(t *testing.T) {
	reg := NewRegistry()
	err := reg.RegisterAll(
		Definition{Name: "ok", Fn: constFn(types.Null)},
		Definition{Name: "", Fn: constFn(types.Null)},
		Definition{Name: "nofn"},
		Definition{Name: "ok", Fn: constFn(types.Null)},
	)
	if got := len(multierr.Errors(err)); got != 3 {
		t.Fatalf("got %d errors, want 3: %v", got, err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
}

func TestAlias(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(Definition{Name: "mucalculus.mu", Fn: constFn(types.Null)})
	if err := reg.Alias("μ", "mucalculus.mu"); err != nil {
		t.Fatalf("Alias: %v", err)
	}
	if _, ok := reg.Lookup("μ"); !ok {
		t.Fatal("alias not registered")
	}
	var unknown *types.UnknownFunctionError
	if err := reg.Alias("x", "missing"); !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownFunctionError", err)
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "mucalculus.mu" {
		t.Fatalf("Names = %v", names)
	}
}

func TestCheckArgs(t *testing.T) {
	def := &Definition{
		Name:     "string.concat",
		Params:   []types.ParamKind{types.ParamString},
		Optional: 1,
		Variadic: true,
		Fn:       constFn(types.Null),
	}
	if err := def.CheckArgs(nil); err != nil {
		t.Fatalf("no args: %v", err)
	}
	if err := def.CheckArgs([]types.Value{types.NewString("a"), types.NewString("b")}); err != nil {
		t.Fatalf("two strings: %v", err)
	}
	err := def.CheckArgs([]types.Value{types.NewString("a"), types.NewInt(1)})
	var tm *types.TypeMismatchError
	if !errors.As(err, &tm) || tm.Got != types.KindInteger || tm.Expected != "string (argument 2)" {
		t.Fatalf("error = %v, want type mismatch on argument 2", err)
	}

	add := &Definition{Name: "math.add", Params: []types.ParamKind{types.ParamNumber, types.ParamNumber}, Fn: constFn(types.Null)}
	var ae *types.ArityError
	if err := add.CheckArgs([]types.Value{types.NewInt(1)}); !errors.As(err, &ae) || ae.Min != 2 || ae.Max != 2 {
		t.Fatalf("error = %v, want ArityError", err)
	}
	if err := add.CheckArgs([]types.Value{types.NewInt(1), types.NewFloat(2)}); err != nil {
		t.Fatalf("mixed numbers: %v", err)
	}
	if got := add.Signature(); got != "math.add(number, number) -> any" {
		t.Fatalf("Signature = %q", got)
	}
}

func TestArgHelpers(t *testing.T) {
	args := []types.Value{types.NewInt(3), types.NewString("s"), types.NewCollection(types.NewString("a"))}
	if n, err := Int64("f", args, 0); err != nil || n != 3 {
		t.Fatalf("Int64 = %d, %v", n, err)
	}
	if f, err := Float("f", args, 0); err != nil || f != 3 {
		t.Fatalf("Float = %v, %v", f, err)
	}
	if ss, err := Strings("f", args, 2); err != nil || ss[0] != "a" {
		t.Fatalf("Strings = %v, %v", ss, err)
	}
	var tm *types.TypeMismatchError
	if _, err := Bool("f", args, 1); !errors.As(err, &tm) {
		t.Fatalf("Bool error = %v", err)
	}
	var ae *types.ArityError
	if _, err := String("f", args, 5); !errors.As(err, &ae) {
		t.Fatalf("missing argument error = %v", err)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(Definition{
		Name:   "a.b",
		Params: []types.ParamKind{types.ParamInteger},
		Pure:   true,
		Fn:     constFn(types.True),
	})
	d, _ := reg.Lookup("a.b")
	d.Pure = false
	d.Params[0] = types.ParamString
	d.Fn = constFn(types.False)

	again, _ := reg.Lookup("a.b")
	if !again.Pure || again.Params[0] != types.ParamInteger {
		t.Fatalf("registry definition changed through Lookup: %+v", again)
	}
	if got, _ := again.Fn(context.Background(), nil, nil); got != types.True {
		t.Fatalf("Fn replaced through Lookup")
	}
}
