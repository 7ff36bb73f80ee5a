// Package utils provides small helpers shared across layers, with no
// domain knowledge of kiosks, calls, or payments.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def for empty or malformed input.
// Used for optional numeric query parameters.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampInt bounds n to the inclusive range [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
