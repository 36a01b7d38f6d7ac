package grading

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lower applies Unicode lowercasing. A cases.Caser is stateful, so one is
// built per call rather than shared between goroutines.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Normalize lowercases text, replaces every rune that is not an ASCII letter,
// digit or whitespace with a space and splits the result into tokens.
func Normalize(text string) []string {
	if text == "" {
		return nil
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, lower(text))
	return strings.Fields(cleaned)
}
