package types

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestCompareTotalOrder(t *testing.T) {
	ordered := []Value{
		Null,
		False,
		True,
		NewInt(-3),
		NewFloat(1.5),
		NewInt(2),
		NewString("a"),
		NewString("b"),
		NewCollection(NewInt(1)),
		NewCollection(NewInt(1), NewInt(2)),
		NewObject(map[string]Value{"a": NewInt(1)}),
	}
	for i := range ordered {
		for j := range ordered {
			got := Compare(ordered[i], ordered[j])
			want := cmpInt(i, j)
			if got != want {
				t.Fatalf("Compare(%s, %s) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestEqualNumeric(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int float", NewInt(2), NewFloat(2.0), true},
		{"int int", NewInt(2), NewInt(3), false},
		{"string int", NewString("2"), NewInt(2), false},
		{"collections", NewCollection(NewInt(1)), NewCollection(NewFloat(1)), true},
		{"objects", NewObject(map[string]Value{"k": True}), NewObject(map[string]Value{"k": True}), true},
		{"null null", Null, Null, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Fatalf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValuesAreImmutable(t *testing.T) {
	items := []Value{NewInt(1), NewInt(2)}
	c := NewCollection(items...).(CollectionValue)
	items[0] = NewInt(99)
	if !Equal(c.At(0), NewInt(1)) {
		t.Fatalf("collection shares its input slice")
	}
	out := c.Items()
	out[1] = Null
	if !Equal(c.At(1), NewInt(2)) {
		t.Fatalf("Items() exposes internal storage")
	}

	n := big.NewInt(5)
	iv := NewBigInt(n).(IntegerValue)
	n.SetInt64(6)
	if iv.String() != "5" {
		t.Fatalf("integer shares its big.Int: %s", iv)
	}
	iv.Big().SetInt64(7)
	if iv.String() != "5" {
		t.Fatalf("Big() exposes internal storage: %s", iv)
	}

	o := NewObject(map[string]Value{"a": True}).(ObjectValue)
	o2 := o.With("b", False)
	if o.Len() != 1 || o2.(ObjectValue).Len() != 2 {
		t.Fatalf("With mutated the receiver")
	}
}

func TestStringRendering(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NewInt(42), "42"},
		{NewFloat(2), "2.0"},
		{NewFloat(0.5), "0.5"},
		{NewFloat(math.Inf(1)), "Infinity"},
		{NewString("a\"b"), `"a\"b"`},
		{NewCollection(NewInt(1), NewString("x")), `[1, "x"]`},
		{NewObject(map[string]Value{"b": True, "a": Null, "@callable": NewString("lambda")}), `{"@callable": "lambda", a: null, b: true}`},
		{Null, "null"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Fatalf("String() = %s, want %s", got, tt.want)
		}
	}
}

func TestSortValues(t *testing.T) {
	got := SortValues([]Value{NewInt(3), NewInt(1), NewFloat(3.0), NewString("a"), NewInt(1)})
	want := []Value{NewInt(1), NewInt(3), NewString("a")}
	if len(got) != len(want) {
		t.Fatalf("SortValues = %v, want %v", got, want)
	}
	for i := range want {
		if !Equal(got[i], want[i]) {
			t.Fatalf("SortValues[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNativeConversion(t *testing.T) {
	doc := map[string]any{
		"name":  "alice",
		"age":   30,
		"score": 9.5,
		"tags":  []any{"a", "b"},
		"meta":  map[any]any{"ok": true},
		"none":  nil,
	}
	v, err := FromNative(doc)
	if err != nil {
		t.Fatalf("FromNative: %v", err)
	}
	obj := v.(ObjectValue)
	if age, _ := obj.Get("age"); !Equal(age, NewInt(30)) || age.Kind() != KindInteger {
		t.Fatalf("age = %v", age)
	}
	if meta, _ := obj.Get("meta"); meta.Kind() != KindObject {
		t.Fatalf("meta = %v", meta)
	}

	back := ToNative(v).(map[string]any)
	if back["age"] != int64(30) || back["name"] != "alice" {
		t.Fatalf("ToNative = %v", back)
	}

	if _, err := FromNative(struct{}{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestErrorsSupportAs(t *testing.T) {
	cause := errors.New("boom")
	var err error = &EvaluationError{Function: "math.divide", Args: []Value{NewInt(1), NewInt(0)}, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("EvaluationError does not unwrap")
	}
	var coded Coded
	if !errors.As(err, &coded) || coded.ErrorCode() != ErrEvaluation {
		t.Fatalf("EvaluationError is not Coded")
	}
	if got := err.Error(); got != "D0001: math.divide(1, 0): boom" {
		t.Fatalf("Error() = %q", got)
	}

	v := &ForallViolation{Variable: "x", Counterexamples: []Value{NewInt(-1)}}
	if v.Error() != "Q0001: forall x failed for -1" {
		t.Fatalf("Error() = %q", v.Error())
	}
}

func TestFromNativeRejectsNonFinite(t *testing.T) {
	for _, x := range []any{math.NaN(), math.Inf(1), math.Inf(-1), float32(math.Inf(1)), []any{1, math.NaN()}} {
		if v, err := FromNative(x); err == nil {
			t.Fatalf("FromNative(%v) = %v, want error", x, v)
		}
	}
	if v, err := FromNative(1.5); err != nil || !Equal(v, NewFloat(1.5)) {
		t.Fatalf("FromNative(1.5) = %v, %v", v, err)
	}
}

func TestCompareMixedNumbersExactly(t *testing.T) {
	two53 := new(big.Int).Lsh(big.NewInt(1), 53)
	i53 := NewBigInt(two53)
	i53p1 := NewBigInt(new(big.Int).Add(two53, big.NewInt(1)))
	f53 := NewFloat(math.Ldexp(1, 53))

	tests := []struct {
		a, b Value
		want int
	}{
		{i53, f53, 0},
		{f53, i53, 0},
		{i53p1, f53, 1},
		{f53, i53p1, -1},
		{i53p1, i53, 1},
		{NewInt(2), NewFloat(2.5), -1},
		{NewFloat(-0.5), NewInt(0), -1},
		{NewInt(3), NewFloat(math.Inf(1)), -1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
	if Equal(i53p1, f53) {
		t.Fatalf("2^53+1 equals float 2^53")
	}
}
