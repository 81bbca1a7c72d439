// Package godel maps text to natural numbers and back using prime-power
// encoding: the i-th byte b of the UTF-8 text contributes the factor
// p_i^(b+1), where p_i is the i-th prime. The empty text encodes to 1.
//
// Encoding is injective and Decode inverts it exactly, so
// Encode(Decode(n)) == n for every n that Decode accepts.
package godel

import (
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"
)

// ErrNotAnEncoding reports a number that no text encodes to.
var ErrNotAnEncoding = errors.New("not a formula encoding")

// Encode returns the Gödel number of text.
func Encode(text string) *big.Int {
	ps := Primes(len(text))
	factors := make([]*big.Int, len(text))
	for i := 0; i < len(text); i++ {
		factors[i] = new(big.Int).Exp(big.NewInt(ps[i]), big.NewInt(int64(text[i])+1), nil)
	}
	return product(factors)
}

// product multiplies factors pairwise so that operands stay balanced; long
// texts encode to numbers of millions of bits.
func product(factors []*big.Int) *big.Int {
	switch len(factors) {
	case 0:
		return big.NewInt(1)
	case 1:
		return factors[0]
	}
	mid := len(factors) / 2
	return new(big.Int).Mul(product(factors[:mid]), product(factors[mid:]))
}

// Decode returns the text whose Gödel number is n.
func Decode(n *big.Int) (string, error) {
	if n == nil || n.Sign() <= 0 {
		return "", fmt.Errorf("%w: %v is not positive", ErrNotAnEncoding, n)
	}
	rest := new(big.Int).Set(n)
	one := big.NewInt(1)
	var buf []byte
	var q, r big.Int
	for p := range primeStream() {
		if rest.Cmp(one) == 0 {
			break
		}
		prime := big.NewInt(p)
		exp := 0
		for {
			q.QuoRem(rest, prime, &r)
			if r.Sign() != 0 {
				break
			}
			rest.Set(&q)
			exp++
			if exp > 256 {
				return "", fmt.Errorf("%w: exponent of %d exceeds 256", ErrNotAnEncoding, p)
			}
		}
		if exp == 0 {
			// A gap in the prime sequence: the remaining factors cannot be
			// attributed to a position.
			return "", fmt.Errorf("%w: prime %d is missing", ErrNotAnEncoding, p)
		}
		buf = append(buf, byte(exp-1))
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%w: decoded bytes are not valid UTF-8", ErrNotAnEncoding)
	}
	return string(buf), nil
}

// Primes returns the first n primes.
func Primes(n int) []int64 {
	out := make([]int64, 0, n)
	for p := range primeStream() {
		if len(out) == n {
			break
		}
		out = append(out, p)
	}
	return out
}

// primeStream yields the primes in increasing order.
func primeStream() func(yield func(int64) bool) {
	return func(yield func(int64) bool) {
		var found []int64
		for c := int64(2); ; c++ {
			prime := true
			for _, p := range found {
				if p*p > c {
					break
				}
				if c%p == 0 {
					prime = false
					break
				}
			}
			if !prime {
				continue
			}
			found = append(found, c)
			if !yield(c) {
				return
			}
		}
	}
}
