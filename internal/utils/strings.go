// Package utils provides common utility functions.
package utils

import (
	"strings"
	"unicode/utf8"
)

// MaskKey masks an API key for safe logging (shows first 8 and last 4 chars).
// Use this to avoid logging sensitive credentials in plain text.
func MaskKey(key string) string {
	if key == "" {
		return "(empty)"
	}
	if len(key) < 16 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

// Truncate cuts s to at most maxRunes characters without splitting a rune.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// TrimCap trims surrounding whitespace, caps the length, then trims again
// so a cut that lands on whitespace never leaves a trailing blank.
// Applying it twice yields the same result as applying it once.
func TrimCap(s string, maxRunes int) string {
	return strings.TrimSpace(Truncate(strings.TrimSpace(s), maxRunes))
}
