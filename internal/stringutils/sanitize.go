package stringutils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeName turns user input into a single-line display name: invalid
// UTF-8, NUL and other control characters are dropped, and every run of
// whitespace becomes one space.
func SanitizeName(s string) string {
	if utf8.ValidString(s) && !hasControlChars(s) && !hasIrregularSpace(s) {
		return strings.TrimSpace(s)
	}

	var builder strings.Builder
	builder.Grow(len(s))

	space := false
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			continue
		case unicode.IsSpace(r):
			space = builder.Len() > 0
			continue
		case isControl(r) || !unicode.IsPrint(r):
			continue
		}
		if space {
			builder.WriteByte(' ')
			space = false
		}
		builder.WriteRune(r)
	}

	return builder.String()
}

func isControl(r rune) bool {
	return r < 32 || r == 127 || (r >= 128 && r <= 159)
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if isControl(r) {
			return true
		}
	}
	return false
}

// hasIrregularSpace reports whitespace other than single ASCII spaces.
func hasIrregularSpace(s string) bool {
	prev := false
	for _, r := range s {
		if !unicode.IsSpace(r) {
			prev = false
			continue
		}
		if r != ' ' || prev {
			return true
		}
		prev = true
	}
	return false
}
