// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TruncatedMarker is appended to any text cut short before it reaches the model.
const TruncatedMarker = " (truncated)"

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

// TruncateChars cuts s to at most maxChars runes and appends TruncatedMarker when it does.
// The second return value reports whether s was cut.
func TruncateChars(s string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s, false
	}
	cut := strings.TrimRight(string([]rune(s)[:maxChars]), " \t\n")
	return cut + TruncatedMarker, true
}

// TruncateWords keeps the first maxWords words of s, split the same way as CountWords, and
// appends TruncatedMarker when words were dropped. Whitespace inside the kept prefix is preserved.
func TruncateWords(s string, maxWords int) (string, bool) {
	if maxWords <= 0 {
		return s, false
	}
	words := 0
	inWord := false
	for i, r := range s {
		isSpace := unicode.IsSpace(r)
		if !isSpace && !inWord {
			words++
			if words > maxWords {
				return strings.TrimRightFunc(s[:i], unicode.IsSpace) + TruncatedMarker, true
			}
		}
		inWord = !isSpace
	}
	return s, false
}

// CountWords returns the number of whitespace-separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// CollapseSpaces trims each line of s, collapses runs of blanks inside lines and drops
// repeated empty lines.
func CollapseSpaces(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, ln := range lines {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
