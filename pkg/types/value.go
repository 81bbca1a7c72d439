package types

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindString
	KindCollection
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindCollection:
		return "collection"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is a runtime datum. The set of implementations is closed: the
// unexported marker keeps other packages from adding kinds, so a type switch
// over the seven concrete types below is exhaustive.
//
// Values are immutable. Constructors copy their inputs and accessors hand out
// copies, so a Value can be shared freely across scopes and cache entries.
type Value interface {
	Kind() Kind
	String() string
	value()
}

// BooleanValue is a truth value.
type BooleanValue struct{ val bool }

// IntegerValue is an arbitrary-precision integer.
type IntegerValue struct{ val *big.Int }

// FloatValue is an IEEE-754 double.
type FloatValue struct{ val float64 }

// StringValue is a UTF-8 string.
type StringValue struct{ val string }

// CollectionValue is an ordered sequence of values.
type CollectionValue struct{ items []Value }

// ObjectValue maps string keys to values. Key order carries no meaning.
type ObjectValue struct{ fields map[string]Value }

// NullValue is the absent value.
type NullValue struct{}

func (BooleanValue) Kind() Kind    { return KindBoolean }
func (IntegerValue) Kind() Kind    { return KindInteger }
func (FloatValue) Kind() Kind      { return KindFloat }
func (StringValue) Kind() Kind     { return KindString }
func (CollectionValue) Kind() Kind { return KindCollection }
func (ObjectValue) Kind() Kind     { return KindObject }
func (NullValue) Kind() Kind       { return KindNull }

func (BooleanValue) value()    {}
func (IntegerValue) value()    {}
func (FloatValue) value()      {}
func (StringValue) value()     {}
func (CollectionValue) value() {}
func (ObjectValue) value()     {}
func (NullValue) value()       {}

// Null is the single null value.
var Null Value = NullValue{}

// True and False are the boolean values.
var (
	True  Value = BooleanValue{val: true}
	False Value = BooleanValue{val: false}
)

// NewBool returns the boolean value for b.
func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewInt returns an integer value.
func NewInt(n int64) Value {
	return IntegerValue{val: big.NewInt(n)}
}

// NewBigInt returns an integer value holding a copy of n.
func NewBigInt(n *big.Int) Value {
	if n == nil {
		return IntegerValue{val: new(big.Int)}
	}
	return IntegerValue{val: new(big.Int).Set(n)}
}

// NewFloat returns a float value.
func NewFloat(f float64) Value {
	return FloatValue{val: f}
}

// NewString returns a string value.
func NewString(s string) Value {
	return StringValue{val: s}
}

// NewCollection returns a collection holding a copy of items.
func NewCollection(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return CollectionValue{items: out}
}

// NewObject returns an object holding a copy of fields.
func NewObject(fields map[string]Value) Value {
	out := make(map[string]Value, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return ObjectValue{fields: out}
}

// Bool returns the payload.
func (v BooleanValue) Bool() bool { return v.val }

// Big returns a copy of the payload.
func (v IntegerValue) Big() *big.Int {
	if v.val == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.val)
}

// Int64 returns the payload and whether it fits in an int64.
func (v IntegerValue) Int64() (int64, bool) {
	if v.val == nil {
		return 0, true
	}
	if !v.val.IsInt64() {
		return 0, false
	}
	return v.val.Int64(), true
}

// Float returns the payload.
func (v FloatValue) Float() float64 { return v.val }

// Str returns the payload.
func (v StringValue) Str() string { return v.val }

// Len returns the number of items.
func (v CollectionValue) Len() int { return len(v.items) }

// At returns the item at i.
func (v CollectionValue) At(i int) Value { return v.items[i] }

// Items returns a copy of the items.
func (v CollectionValue) Items() []Value {
	out := make([]Value, len(v.items))
	copy(out, v.items)
	return out
}

// Len returns the number of fields.
func (v ObjectValue) Len() int { return len(v.fields) }

// Get returns the field value for key.
func (v ObjectValue) Get(key string) (Value, bool) {
	f, ok := v.fields[key]
	return f, ok
}

// Keys returns the field names in sorted order.
func (v ObjectValue) Keys() []string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fields returns a copy of the fields.
func (v ObjectValue) Fields() map[string]Value {
	out := make(map[string]Value, len(v.fields))
	for k, f := range v.fields {
		out[k] = f
	}
	return out
}

// With returns a copy of the object with key set to val.
func (v ObjectValue) With(key string, val Value) Value {
	out := v.Fields()
	out[key] = val
	return ObjectValue{fields: out}
}

// AsNumber converts an Integer or Float to float64. Integers too large for a
// float64 round to the nearest representable value.
func AsNumber(v Value) (float64, bool) {
	switch n := v.(type) {
	case IntegerValue:
		f, _ := new(big.Float).SetInt(n.Big()).Float64()
		return f, true
	case FloatValue:
		return n.val, true
	default:
		return 0, false
	}
}

// IsNumber reports whether v is an Integer or a Float.
func IsNumber(v Value) bool {
	k := v.Kind()
	return k == KindInteger || k == KindFloat
}

// Truth returns the payload of a Boolean value.
func Truth(v Value) (bool, bool) {
	b, ok := v.(BooleanValue)
	if !ok {
		return false, false
	}
	return b.val, true
}

// Equal reports structural equality. Integers and floats compare numerically.
func Equal(a, b Value) bool {
	if IsNumber(a) && IsNumber(b) {
		return compareNumbers(a, b) == 0
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return Compare(a, b) == 0
}

// kindRank orders kinds for cross-kind comparison. Integers and floats share
// a rank so that numbers interleave by magnitude.
func kindRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindBoolean:
		return 1
	case KindInteger, KindFloat:
		return 2
	case KindString:
		return 3
	case KindCollection:
		return 4
	default:
		return 5
	}
}

// Compare is a total order over values: null < boolean < number < string <
// collection < object. Within a kind, booleans order false < true, numbers
// numerically (NaN below every other number), strings bytewise, collections
// lexicographically and objects by their sorted key/value sequence.
func Compare(a, b Value) int {
	ra, rb := kindRank(a.Kind()), kindRank(b.Kind())
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch x := a.(type) {
	case NullValue:
		return 0
	case BooleanValue:
		y := b.(BooleanValue)
		switch {
		case x.val == y.val:
			return 0
		case !x.val:
			return -1
		default:
			return 1
		}
	case IntegerValue, FloatValue:
		return compareNumbers(a, b)
	case StringValue:
		return strings.Compare(x.val, b.(StringValue).val)
	case CollectionValue:
		y := b.(CollectionValue)
		for i := 0; i < len(x.items) && i < len(y.items); i++ {
			if c := Compare(x.items[i], y.items[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(x.items), len(y.items))
	case ObjectValue:
		y := b.(ObjectValue)
		xk, yk := x.Keys(), y.Keys()
		for i := 0; i < len(xk) && i < len(yk); i++ {
			if c := strings.Compare(xk[i], yk[i]); c != 0 {
				return c
			}
			if c := Compare(x.fields[xk[i]], y.fields[yk[i]]); c != 0 {
				return c
			}
		}
		return cmpInt(len(xk), len(yk))
	}
	return 0
}

func compareNumbers(a, b Value) int {
	ai, aInt := a.(IntegerValue)
	bi, bInt := b.(IntegerValue)
	if aInt && bInt {
		return ai.Big().Cmp(bi.Big())
	}
	af, _ := AsNumber(a)
	bf, _ := AsNumber(b)
	switch {
	case math.IsNaN(af) && math.IsNaN(bf):
		return 0
	case math.IsNaN(af):
		return -1
	case math.IsNaN(bf):
		return 1
	case aInt:
		// Mixed pairs compare exactly; float64 cannot hold every integer.
		return new(big.Float).SetInt(ai.Big()).Cmp(big.NewFloat(bf))
	case bInt:
		return big.NewFloat(af).Cmp(new(big.Float).SetInt(bi.Big()))
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortValues sorts a copy of items under Compare and drops duplicates.
func SortValues(items []Value) []Value {
	out := make([]Value, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return Compare(out[i], out[j]) < 0 })
	uniq := out[:0]
	for i, v := range out {
		if i > 0 && Compare(uniq[len(uniq)-1], v) == 0 {
			continue
		}
		uniq = append(uniq, v)
	}
	return uniq
}

func (v BooleanValue) String() string { return strconv.FormatBool(v.val) }

func (v IntegerValue) String() string {
	if v.val == nil {
		return "0"
	}
	return v.val.String()
}

func (v FloatValue) String() string { return FormatFloat(v.val) }

func (v StringValue) String() string { return strconv.Quote(v.val) }

func (v CollectionValue) String() string {
	parts := make([]string, len(v.items))
	for i, item := range v.items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (v ObjectValue) String() string {
	keys := v.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = renderKey(k) + ": " + v.fields[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (NullValue) String() string { return "null" }

// FormatFloat renders f so that the lexer reads it back as a float: the
// result always carries a decimal point or an exponent.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Display renders v for humans: strings appear without quotes.
func Display(v Value) string {
	if s, ok := v.(StringValue); ok {
		return s.val
	}
	return v.String()
}
