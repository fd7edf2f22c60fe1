package parser

import (
	"strings"
	"unicode"
)

// CleanText tidies extracted page text for display: every line is trimmed,
// runs separated by double spaces become their own lines, and blank lines
// are dropped.
func CleanText(text string) string {
	chunks := []string{}

	for _, line := range splitLines(text) {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}

			chunks = append(chunks, phrase)
		}
	}

	return strings.Join(chunks, "\n")
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			return true
		default:
			return false
		}
	})
}

func cleanHumanText(value string) string {
	return strings.TrimSpace(collapseSpaces(value))
}

func collapseSpaces(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	previousSpace := false
	for _, r := range value {
		if unicode.IsSpace(r) {
			if previousSpace {
				continue
			}

			builder.WriteRune(' ')
			previousSpace = true

			continue
		}

		builder.WriteRune(r)
		previousSpace = false
	}

	return builder.String()
}
