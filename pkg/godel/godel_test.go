package godel

import (
	"errors"
	"math/big"
	"testing"
)

func TestEncodeKnownValues(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"", 1},
		{"\x00", 2},
		{"\x01", 4},
		{"\x00\x00", 6},
		{"\x01\x00\x00", 60},
		{"\x00\x01\x00", 90},
	}
	for _, tt := range tests {
		if got := Encode(tt.text); got.Cmp(big.NewInt(tt.want)) != 0 {
			t.Fatalf("Encode(%q) = %s, want %d", tt.text, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, text := range []string{"", "x", "forall x in xs: x > 0", "∀x ∈ xs: ¬p(x)", "meta.diag(\"n\")"} {
		n := Encode(text)
		got, err := Decode(n)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)): %v", text, err)
		}
		if got != text {
			t.Fatalf("Decode(Encode(%q)) = %q", text, got)
		}
		if Encode(got).Cmp(n) != 0 {
			t.Fatalf("Encode(Decode(n)) != n for %q", text)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, n := range []int64{0, -4, 3, 10, 2 * 5} {
		_, err := Decode(big.NewInt(n))
		if !errors.Is(err, ErrNotAnEncoding) {
			t.Fatalf("Decode(%d) error = %v, want ErrNotAnEncoding", n, err)
		}
	}
	// 2^(0xC3+1) alone is a truncated two-byte UTF-8 sequence.
	n := new(big.Int).Exp(big.NewInt(2), big.NewInt(0xC3+1), nil)
	if _, err := Decode(n); !errors.Is(err, ErrNotAnEncoding) {
		t.Fatalf("invalid UTF-8 accepted: %v", err)
	}
}

func TestPrimes(t *testing.T) {
	got := Primes(8)
	want := []int64{2, 3, 5, 7, 11, 13, 17, 19}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Primes(8) = %v", got)
		}
	}
}
