package payment

import (
	"fmt"
	"strings"
)

// amountScale is the number of fractional digits Amount keeps internally.
// Payment schemes cap amounts well below the int64 range at this scale.
const amountScale = 4

// Amount is a decimal-safe monetary value parsed from its string form.
// Comparisons never round-trip through binary floating point.
type Amount struct {
	negative bool
	scaled   int64
	places   int
}

// ParseAmount parses a plain decimal string such as "12500.00". Scientific
// notation, thousands separators, and more than four fractional digits are
// rejected.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}

	var a Amount
	if s[0] == '-' || s[0] == '+' {
		a.negative = s[0] == '-'
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if hasFrac {
		if fracPart == "" || len(fracPart) > amountScale {
			return Amount{}, fmt.Errorf("invalid amount %q: unsupported precision", s)
		}
		a.places = len(fracPart)
	}

	for _, part := range []string{intPart, fracPart} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return Amount{}, fmt.Errorf("invalid amount %q", s)
			}
			digit := int64(c - '0')
			if a.scaled > (1<<62)/10 {
				return Amount{}, fmt.Errorf("amount %q out of range", s)
			}
			a.scaled = a.scaled*10 + digit
		}
	}

	// Padding to full scale can overflow even when every digit fit.
	for i := a.places; i < amountScale; i++ {
		if a.scaled > (1<<62)/10 {
			return Amount{}, fmt.Errorf("amount %q out of range", s)
		}
		a.scaled *= 10
	}

	if a.scaled == 0 {
		a.negative = false
	}

	return a, nil
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Amount) Cmp(b Amount) int {
	av, bv := a.signed(), b.signed()
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func (a Amount) signed() int64 {
	if a.negative {
		return -a.scaled
	}
	return a.scaled
}

// IsZero reports whether the amount equals zero at any precision.
func (a Amount) IsZero() bool {
	return a.scaled == 0
}

// DecimalPlaces returns the number of fractional digits in the source text.
func (a Amount) DecimalPlaces() int {
	return a.places
}
