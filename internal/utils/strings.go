// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// spaceRE matches runs of consecutive whitespace.
var spaceRE = regexp.MustCompile(`\s+`)

// CollapseSpaces trims surrounding whitespace and collapses interior runs
// of whitespace (spaces, tabs, newlines) to a single space.
func CollapseSpaces(s string) string {
	return spaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ClipRunes truncates s to at most max runes. It counts runes, not bytes,
// so multi-byte characters are never split. max <= 0 leaves s unchanged.
func ClipRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
