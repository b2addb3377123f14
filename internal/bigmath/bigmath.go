// Package bigmath holds the pure big-integer math the quote
// orchestrator leans on: unsigned-amount normalization, executor-fee
// scaling, and expiry normalization. None of it touches I/O, so it is
// property-tested in isolation.
package bigmath

import (
	"math/big"
	"strings"
)

// NormalizeUint interprets s as an unsigned integer per §4.I step 9:
// strings with a fractional part are truncated at the decimal point,
// negatives clamp to zero, empty becomes "0". Returns ok=false if s is not
// a finite numeric string at all (the caller maps that to INVALID_AMOUNT).
func NormalizeUint(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewInt(0), true
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		for _, r := range s[dot+1:] {
			if r < '0' || r > '9' {
				return nil, false
			}
		}
		s = s[:dot]
	}
	if s == "" {
		s = "0"
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, false
		}
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	if neg {
		return big.NewInt(0), true
	}
	return n, true
}

// ClampBps clamps integer fee basis points to [0, 9999].
func ClampBps(fb int) int {
	if fb < 0 {
		return 0
	}
	if fb > 9999 {
		return 9999
	}
	return fb
}

// GrossFromNet computes the gross amount the executor must move so that,
// after skimming feeBps basis points, the taker still receives at least
// net — §4.I step 9. feeBps is assumed already clamped to [0, 9999].
func GrossFromNet(net *big.Int, feeBps int) *big.Int {
	if feeBps == 0 || net.Sign() == 0 {
		return new(big.Int).Set(net)
	}
	num := new(big.Int).Mul(net, big.NewInt(10000))
	den := big.NewInt(int64(10000 - feeBps))
	return CeilDiv(num, den)
}

// CeilDiv computes ceil(num/den) for non-negative num and positive den
// using the (num + den - 1) / den identity specified in §4.I step 9.
func CeilDiv(num, den *big.Int) *big.Int {
	sum := new(big.Int).Add(num, den)
	sum.Sub(sum, big.NewInt(1))
	return sum.Div(sum, den)
}

// NormalizeExpiry applies §4.I step 10: values above 1e12 are treated as
// milliseconds and floor-divided by 1000; anything else is treated as
// seconds. The result is clamped to be non-negative.
func NormalizeExpiry(e *big.Int) int64 {
	threshold := new(big.Int).SetInt64(1_000_000_000_000)
	v := new(big.Int).Set(e)
	if v.Cmp(threshold) > 0 {
		v.Div(v, big.NewInt(1000))
	}
	if v.Sign() < 0 {
		return 0
	}
	return v.Int64()
}
