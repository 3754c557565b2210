package stringutils_test

import (
	"testing"

	"github.com/habiliai/botruntime/internal/stringutils"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name",
			input:    "Aylia",
			expected: "Aylia",
		},
		{
			name:     "surrounding spaces",
			input:    "  Alice's Cleric Bot ",
			expected: "Alice's Cleric Bot",
		},
		{
			name:     "null byte",
			input:    "Ay\u0000lia",
			expected: "Aylia",
		},
		{
			name:     "control characters",
			input:    "Br\u0001\u001f\u007fom",
			expected: "Brom",
		},
		{
			name:     "newlines and tabs collapse",
			input:    "Night\n\tWatch   Bot",
			expected: "Night Watch Bot",
		},
		{
			name:     "invalid utf-8",
			input:    "Zed\xff\xfe",
			expected: "Zed",
		},
		{
			name:     "unicode letters are kept",
			input:    "Élodie 세라",
			expected: "Élodie 세라",
		},
		{
			name:     "only whitespace",
			input:    " \t\n ",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stringutils.SanitizeName(tc.input))
		})
	}
}
