package models

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// ZeroKMPL is shown whenever no efficiency can be derived
const ZeroKMPL = "0.00"

// numericPrefix matches the leading number of a free-text input
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading number of s the way a browser's parseFloat
// does. Empty or non-numeric text yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	match := numericPrefix.FindString(s)
	if match == "" {
		return 0
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) {
		// Out-of-range exponents parse to ±Inf with an error, which is what
		// parseFloat returns as well.
		if math.IsInf(v, 0) {
			return v
		}
		return 0
	}
	return v
}

// ComputeKMPL derives kilometers per litre from raw form text, formatted
// with exactly two decimals. Litres at or below zero yield "0.00".
func ComputeKMPL(kilometers, litres string) string {
	return DeriveKMPL(ParseNumber(kilometers), ParseNumber(litres))
}

// DeriveKMPL is ComputeKMPL for already-parsed values
func DeriveKMPL(km, litres float64) string {
	if !(litres > 0) {
		return ZeroKMPL
	}

	ratio := km / litres
	if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return ZeroKMPL
	}
	return FormatFixed2(ratio)
}

// FormatFixed2 formats v with two decimals, rounding halves away from zero
// on the exact binary value of v.
func FormatFixed2(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	// n = floor(v*100 + 1/2), computed exactly
	r := new(big.Rat).SetFloat64(v)
	r.Mul(r, big.NewRat(100, 1))
	r.Add(r, big.NewRat(1, 2))
	n := new(big.Int).Quo(r.Num(), r.Denom())

	digits := n.String()
	for len(digits) < 3 {
		digits = "0" + digits
	}

	out := digits[:len(digits)-2] + "." + digits[len(digits)-2:]
	if neg && n.Sign() != 0 {
		out = "-" + out
	}
	return out
}
