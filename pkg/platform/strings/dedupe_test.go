package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{
			name:     "keeps order of first appearance",
			input:    []string{"fourthline", "qes", "fourthline"},
			expected: []string{"fourthline", "qes"},
		},
		{
			name:     "drops blanks and trims",
			input:    []string{" bank ", "", "  ", "qes"},
			expected: []string{"bank", "qes"},
		},
		{
			name:     "preserves case",
			input:    []string{"QES", "qes"},
			expected: []string{"QES", "qes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	assert.Equal(t, []string{"core", "qes"}, DedupeAndTrimLower([]string{"CORE", " qes", "Core"}))
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "blank yields nil", input: "   ", expected: nil},
		{name: "single", input: "core", expected: []string{"core"}},
		{name: "mixed case and repeats", input: " core, QES,,qes ", expected: []string{"core", "qes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}
