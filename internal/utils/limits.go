// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// valid integer.
//
//	n := utils.AtoiDefault(c.Query("limit"), 10)
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampLimit bounds a requested page size to [1, max]. Zero or negative
// values mean "as many as allowed" and return max.
func ClampLimit(n, max int) int {
	if n <= 0 || n > max {
		return max
	}
	return n
}
